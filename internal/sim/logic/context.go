package logic

import (
	"log"
	"time"

	"zonesim.ai/internal/sim/condlist"
	"zonesim.ai/internal/sim/tasks"
)

// SpatialService answers world-geometry queries the engine needs but
// does not own.
type SpatialService interface {
	NearestReachable(p Vec3) Vec3
}

// RestrictorService switches the actor's active restriction zones.
type RestrictorService interface {
	ApplyRestrictions(a *Actor, in, out []string)
}

// EventSink receives activation events. No event is emitted for a
// transition to the null section.
type EventSink interface {
	SchemeActivated(ev ActivationEvent)
}

// Context is the explicit simulation context every activation takes:
// the read-only scheme table, content services and sinks. There is no
// ambient package state; tests build their own Context.
type Context struct {
	Registry *Registry
	Eval     *condlist.Evaluator
	Jobs     *tasks.Board      // nil when the scene has no job sites
	Offline  *OfflineRegistry  // nil disables offline resume
	Space    SpatialService    // nil skips humanoid repositioning
	Restrict RestrictorService // nil skips restriction-zone switching
	Events   EventSink         // nil drops events
	Log      *log.Logger

	Tick     func() uint64
	GameTime func() time.Time

	conds map[string]condlist.Condlist
}

// ParseCond parses and caches a condlist field value. A malformed
// condlist is malformed content: the error is fatal at the caller.
func (c *Context) ParseCond(expr string) (condlist.Condlist, error) {
	if cl, ok := c.conds[expr]; ok {
		return cl, nil
	}
	cl, err := condlist.Parse(expr)
	if err != nil {
		return nil, err
	}
	if c.conds == nil {
		c.conds = map[string]condlist.Condlist{}
	}
	c.conds[expr] = cl
	return cl, nil
}

func (c *Context) now() uint64 {
	if c.Tick == nil {
		return 0
	}
	return c.Tick()
}

func (c *Context) gameTime() time.Time {
	if c.GameTime == nil {
		return time.Time{}
	}
	return c.GameTime()
}

func (c *Context) logf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Printf(format, args...)
	}
}

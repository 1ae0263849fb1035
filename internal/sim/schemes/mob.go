package schemes

import (
	"fmt"

	"zonesim.ai/internal/sim/logic"
)

// HomeState anchors a creature to a den point it wanders around.
type HomeState struct {
	Point      string
	Radius     float64
	Aggressive bool
}

type mobHome struct{}

func (mobHome) Scheme() logic.SchemeID { return "mob_home" }

func (mobHome) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	a.State.SetSlot("mob_home", &HomeState{
		Point:      fieldStr(a, section, "point", "spawn"),
		Radius:     fieldFloat(a, section, "radius", 30),
		Aggressive: fieldBool(a, section, "aggressive", false),
	})
	return nil
}

func (mobHome) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}

// MobWalkerState is the creature patrol slot.
type MobWalkerState struct {
	Path     string
	Waypoint int
}

type mobWalker struct{}

func (mobWalker) Scheme() logic.SchemeID { return "mob_walker" }

func (mobWalker) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	path := fieldStr(a, section, "path", "")
	if path == "" {
		return fmt.Errorf("mob_walker %s[%s]: missing path", a.ID, section)
	}
	a.State.SetSlot("mob_walker", &MobWalkerState{Path: path})
	return nil
}

func (mobWalker) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {}

func (mobWalker) Tick(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	if st, ok := a.State.Slot("mob_walker"); ok {
		if ms, ok := st.(*MobWalkerState); ok {
			ms.Waypoint++
		}
	}
}

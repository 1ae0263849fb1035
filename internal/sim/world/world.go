// Package world owns the live scene: the actor set, the online/offline
// split around the focus point, the tick loop and the persistence
// plumbing. All state is owned by the single run-loop goroutine;
// everything external talks to it over channels.
package world

import (
	"log"
	"math"
	"sort"
	"sync/atomic"
	"time"

	plog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
	"zonesim.ai/internal/sim/condlist"
	"zonesim.ai/internal/sim/logic"
	"zonesim.ai/internal/sim/profile"
	"zonesim.ai/internal/sim/tasks"
	"zonesim.ai/internal/sim/tuning"
)

// ActivationSink receives journaled activations (JSONL logger, sqlite
// index). Nil-safe slices; a failed sink never stops the sim.
type ActivationSink interface {
	WriteActivation(plog.ActivationEntry) error
}

type AuditSink interface {
	WriteAudit(plog.AuditEntry) error
}

type Config struct {
	SceneID  string
	Tuning   tuning.Tuning
	Profiles *profile.Set
	Registry *logic.Registry
	Preds    *condlist.PredicateSet
	Sites    []tasks.JobSite
	Spawns   []Spawn

	// SnapshotDir empty disables periodic snapshots.
	SnapshotDir string

	ActSinks   []ActivationSink
	AuditSinks []AuditSink

	// OnSnapshotWritten runs after each successful snapshot write (e.g.
	// to index it). Called from the loop goroutine.
	OnSnapshotWritten func(path string, snap snapshot.SnapshotV1)

	Logger *log.Logger
}

type World struct {
	cfg    Config
	logger *log.Logger

	tick      atomic.Uint64
	gameStart time.Time
	started   time.Time

	actors map[string]*logic.Actor
	order  []string
	online map[string]bool

	focus logic.Vec3

	ctx   *logic.Context
	jobs  *tasks.Board
	offl  *logic.OfflineRegistry
	zones *restrictor

	observers map[string]chan []byte
	nextObs   uint64

	stop          chan struct{}
	observerJoin  chan observerJoinReq
	observerLeave chan string
	focusCh       chan logic.Vec3
	useCh         chan useReq
	snapReq       chan chan snapResp
}

type useReq struct {
	ActorID string
	UserID  string
}

type snapResp struct {
	Path string
	Tick uint64
	Err  error
}

func New(cfg Config) (*World, error) {
	cfg.Tuning.ApplyDefaults()
	w := newWorld(cfg)
	if err := w.spawnAll(); err != nil {
		return nil, err
	}
	return w, nil
}

func newWorld(cfg Config) *World {
	w := &World{
		cfg:       cfg,
		logger:    cfg.Logger,
		gameStart: time.Now().UTC(),
		started:   time.Now(),
		actors:    map[string]*logic.Actor{},
		online:    map[string]bool{},
		jobs:      tasks.NewBoard(cfg.Sites),
		offl:      logic.NewOfflineRegistry(),
		zones:     newRestrictor(),
		observers: map[string]chan []byte{},

		stop:          make(chan struct{}),
		observerJoin:  make(chan observerJoinReq, 8),
		observerLeave: make(chan string, 8),
		focusCh:       make(chan logic.Vec3, 8),
		useCh:         make(chan useReq, 64),
		snapReq:       make(chan chan snapResp, 4),
	}
	w.ctx = &logic.Context{
		Registry: cfg.Registry,
		Eval:     condlist.NewEvaluator(cfg.Preds),
		Jobs:     w.jobs,
		Offline:  w.offl,
		Space:    gridSpace{},
		Restrict: w.zones,
		Events:   w,
		Log:      cfg.Logger,
		Tick:     w.tick.Load,
		GameTime: w.gameTime,
	}
	return w
}

func (w *World) ID() string { return w.cfg.SceneID }

func (w *World) Tick() uint64 { return w.tick.Load() }

// SetFocus moves the simulation focus point the online radius is
// measured from.
func (w *World) SetFocus(p logic.Vec3) {
	select {
	case w.focusCh <- p:
	default:
	}
}

// Use delivers a scripted interaction with a prop to the loop.
func (w *World) Use(actorID, userID string) {
	select {
	case w.useCh <- useReq{ActorID: actorID, UserID: userID}:
	default:
	}
}

func (w *World) gameTime() time.Time {
	elapsed := time.Since(w.started)
	factor := w.cfg.Tuning.GameTimeFactor
	if factor <= 0 {
		factor = 1
	}
	return w.gameStart.Add(time.Duration(float64(elapsed) * factor))
}

// spawnAll creates every configured actor and runs its initial
// resolution. Spawn failures are fatal: malformed content must stop
// scene setup, not leave a mis-activated actor behind.
func (w *World) spawnAll() error {
	for _, sp := range w.cfg.Spawns {
		a, err := w.buildActor(sp)
		if err != nil {
			return err
		}
		w.actors[a.ID] = a
		w.order = append(w.order, a.ID)
	}
	sort.Strings(w.order)
	for _, id := range w.order {
		a := w.actors[id]
		if a.Archetype == logic.ArchetypeHumanoid {
			if _, ok := w.jobs.JobFor(a.ID); !ok {
				// Humanoids without an explicit target bind to terrain
				// work; a failed bind is caught by resolution below.
				if _, ok := a.Profile.Field(profile.EntrySection, "active"); !ok {
					w.jobs.Assign(a.ID)
				}
			}
		}
		if err := logic.EnableBaseSchemes(w.ctx, a, profile.EntrySection); err != nil {
			return err
		}
		w.online[a.ID] = true
		if err := logic.Activate(w.ctx, a, logic.AutoTarget(), "spawn", false); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) buildActor(sp Spawn) (*logic.Actor, error) {
	prof, ok := w.cfg.Profiles.Get(sp.Profile)
	if !ok {
		return nil, &SpawnError{ActorID: sp.ID, Reason: "unknown profile " + sp.Profile}
	}
	arch, err := logic.ParseArchetype(prof.Archetype)
	if err != nil {
		return nil, &SpawnError{ActorID: sp.ID, Reason: err.Error()}
	}
	a := logic.NewActor(sp.ID, sp.Name, arch, prof)
	a.Species = sp.Species
	a.Pos = logic.Vec3{X: sp.Pos[0], Y: sp.Pos[1], Z: sp.Pos[2]}
	if sp.Health > 0 {
		a.Health = sp.Health
	}
	return a, nil
}

type SpawnError struct {
	ActorID string
	Reason  string
}

func (e *SpawnError) Error() string { return "spawn " + e.ActorID + ": " + e.Reason }

// gridSpace snaps positions to the navigation grid; the nearest
// reachable point of any position is its integer cell center.
type gridSpace struct{}

func (gridSpace) NearestReachable(p logic.Vec3) logic.Vec3 {
	return logic.Vec3{
		X: math.Round(p.X),
		Y: math.Round(p.Y),
		Z: math.Round(p.Z),
	}
}

// restrictor tracks which restriction zones each actor is held in and
// out of. The scene owns zone geometry elsewhere; this is the switch.
type restrictor struct {
	in  map[string][]string
	out map[string][]string
}

func newRestrictor() *restrictor {
	return &restrictor{in: map[string][]string{}, out: map[string][]string{}}
}

func (r *restrictor) ApplyRestrictions(a *logic.Actor, in, out []string) {
	if len(in) == 0 {
		delete(r.in, a.ID)
	} else {
		r.in[a.ID] = in
	}
	if len(out) == 0 {
		delete(r.out, a.ID)
	} else {
		r.out[a.ID] = out
	}
}

func (r *restrictor) Zones(actorID string) (in, out []string) {
	return r.in[actorID], r.out[actorID]
}

func dist(a, b logic.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

package logic

import (
	"zonesim.ai/internal/sim/profile"
)

type Vec3 struct {
	X, Y, Z float64
}

// Actor is one live simulated entity. Exactly one Actor record exists
// per live actor; it is owned by the world loop, created on registration
// and destroyed on deregistration. Only the activation engine and the
// schemes it delegates to mutate State.
type Actor struct {
	ID      string
	Name    string
	Species string // creature sub-species; selects optional generic behaviors

	Archetype Archetype
	Profile   *profile.Profile

	Pos    Vec3
	Health float64

	// Info flags: world facts condlists test with +name / -name.
	infos map[string]bool

	// Policy is flat always-on behavior state written by the generic
	// scheme layer on every section switch.
	Policy Policy

	// Prop-only: scripted interaction callback. Cleared by the generic
	// layer so a stale handler never outlives its section.
	UseCallback func(userID string)
	// Prop-only: whether non-scripted interaction is allowed.
	Usable bool

	State ActorState
}

// Policy holds the archetype-level sub-behavior knobs the generic layer
// reconfigures against the new section whenever the main section
// switches.
type Policy struct {
	Invulnerable    bool
	HearingEnabled  bool
	GatherItems     bool
	ItemPickup      bool
	HelpWounded     bool
	CorpseDetection bool
	WeaponPolicy    string
	MapMarker       string
	FactionGroup    string
	IgnoreThreshold float64
	DangerRadius    float64
	MeetSection     SectionID
	AbuseEnabled    bool

	// Creature only.
	Invisible       bool
	ControlReleased bool

	// Active restriction zones.
	RestrictionsIn  []string
	RestrictionsOut []string
}

func NewActor(id, name string, arch Archetype, prof *profile.Profile) *Actor {
	a := &Actor{
		ID:        id,
		Name:      name,
		Archetype: arch,
		Profile:   prof,
		Health:    1.0,
		infos:     map[string]bool{},
	}
	a.State.init()
	return a
}

// condlist.ActorView

func (a *Actor) ActorID() string { return a.ID }

func (a *Actor) HasInfo(name string) bool { return a.infos[name] }

func (a *Actor) Field(name string) (float64, bool) {
	switch name {
	case "health":
		return a.Health, true
	case "x":
		return a.Pos.X, true
	case "y":
		return a.Pos.Y, true
	case "z":
		return a.Pos.Z, true
	}
	return 0, false
}

// condlist.InfoWriter

func (a *Actor) GiveInfo(name string)  { a.infos[name] = true }
func (a *Actor) ClearInfo(name string) { delete(a.infos, name) }

// Infos returns the set flags in unspecified order, for persistence.
func (a *Actor) Infos() []string {
	out := make([]string, 0, len(a.infos))
	for k, v := range a.infos {
		if v {
			out = append(out, k)
		}
	}
	return out
}

// condlist.ScriptStater: state map exposed to tengo predicates.
func (a *Actor) ScriptState() map[string]interface{} {
	return map[string]interface{}{
		"id":        a.ID,
		"name":      a.Name,
		"archetype": a.Archetype.String(),
		"health":    a.Health,
		"x":         a.Pos.X,
		"y":         a.Pos.Y,
		"z":         a.Pos.Z,
	}
}

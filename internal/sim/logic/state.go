package logic

import (
	"time"

	"zonesim.ai/internal/sim/condlist"
)

// SchemeState is a concrete scheme's private runtime slot. Each scheme
// owns exactly one slot per actor, created lazily by that scheme's
// activation and cleared only by that scheme itself.
type SchemeState interface{}

// ActorState is the activation engine's per-actor record. ActiveSection
// and ActiveScheme are always set and cleared together; the paired
// accessors below are the only way to touch them.
type ActorState struct {
	activeSection SectionID
	activeScheme  SchemeID

	// Overrides for the active section, replaced wholesale on each
	// transition and nil while unbound.
	Overrides *Overrides

	// Stamped only on non-restore transitions, so a load-time replay is
	// distinguishable from a fresh switch.
	ActivationTick     uint64
	ActivationGameTime time.Time

	slots map[SchemeID]SchemeState

	// Permanent delegated-scheme bindings, wired once per actor by the
	// base-scheme enable step.
	base map[BaseSlot]SectionID

	baseEnabled bool
	activating  bool
}

// Overrides are per-section parameters schemes consult regardless of
// which scheme is active.
type Overrides struct {
	CombatIgnore      condlist.Condlist
	KeepWhenAttacked  bool
	OnCombat          condlist.Condlist
	OnOffline         condlist.Condlist
	PostCombatIdleMin int
	PostCombatIdleMax int
	SoundGroup        string
}

func (s *ActorState) init() {
	if s.slots == nil {
		s.slots = map[SchemeID]SchemeState{}
	}
}

// Active reports the current logic section, if any.
func (s *ActorState) Active() (SectionID, bool) {
	return s.activeSection, s.activeSection != ""
}

// ActiveScheme reports the scheme derived from the active section.
func (s *ActorState) ActiveScheme() (SchemeID, bool) {
	return s.activeScheme, s.activeScheme != ""
}

func (s *ActorState) setActive(section SectionID, scheme SchemeID) {
	s.activeSection = section
	s.activeScheme = scheme
}

func (s *ActorState) clearActive() {
	s.activeSection = ""
	s.activeScheme = ""
}

// BaseBinding reports the section a permanent delegated slot points at.
// ok=false means the slot uses its neutral default.
func (s *ActorState) BaseBinding(slot BaseSlot) (SectionID, bool) {
	sec, ok := s.base[slot]
	return sec, ok
}

// BaseEnabled reports whether the base-scheme enable step ran.
func (s *ActorState) BaseEnabled() bool { return s.baseEnabled }

// Slot returns the scheme's runtime slot, if created.
func (s *ActorState) Slot(id SchemeID) (SchemeState, bool) {
	st, ok := s.slots[id]
	return st, ok
}

// SetSlot installs the scheme's runtime slot. Slots persist across
// unrelated transitions; only the owning scheme replaces or clears them.
func (s *ActorState) SetSlot(id SchemeID, st SchemeState) {
	s.init()
	s.slots[id] = st
}

func (s *ActorState) ClearSlot(id SchemeID) {
	delete(s.slots, id)
}

// Slots iterates over existing slots, for persistence.
func (s *ActorState) Slots() map[SchemeID]SchemeState {
	return s.slots
}

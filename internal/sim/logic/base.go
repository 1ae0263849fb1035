package logic

// BaseSlot names one of the permanent delegated schemes wired when an
// actor is first fully configured, as opposed to the per-switch generic
// bundle.
type BaseSlot string

const (
	BaseCombat       BaseSlot = "combat"
	BaseGatherItems  BaseSlot = "gather_items"
	BaseOnHit        BaseSlot = "on_hit"
	BaseOnDeath      BaseSlot = "on_death"
	BaseWounded      BaseSlot = "wounded"
	BaseMeet         BaseSlot = "meet"
	BaseInfo         BaseSlot = "info"
	BaseCombatIgnore BaseSlot = "combat_ignore"
	BaseReachTask    BaseSlot = "reach_task"
)

// Slots whose configured section may be absent from the profile without
// failing setup. Everything else is structurally required once named.
var optionalBaseSlots = map[BaseSlot]bool{
	BaseOnHit: true,
	BaseInfo:  true,
}

var baseSlotOrder = []BaseSlot{
	BaseCombat,
	BaseGatherItems,
	BaseOnHit,
	BaseOnDeath,
	BaseWounded,
	BaseMeet,
	BaseInfo,
	BaseCombatIgnore,
	BaseReachTask,
}

// EnableBaseSchemes wires the actor's permanent delegated schemes, each
// pointed at the section the profile's entry block names for that slot.
// An unnamed slot keeps its neutral default. Runs once per actor;
// repeated calls are no-ops.
func EnableBaseSchemes(ctx *Context, a *Actor, entry string) error {
	if a.State.baseEnabled {
		return nil
	}
	bindings := map[BaseSlot]SectionID{}
	for _, slot := range baseSlotOrder {
		v, ok := a.Profile.Field(entry, string(slot))
		if !ok || v == "" {
			continue
		}
		sec := SectionID(v)
		if !a.Profile.HasSection(v) {
			if optionalBaseSlots[slot] {
				ctx.logf("base enable %s: optional slot %s names missing section %q, using default", a.ID, slot, v)
				continue
			}
			return configErr(ErrBadProfile, a.ID, sec, "base slot %s names missing section", slot)
		}
		bindings[slot] = sec
	}
	a.State.base = bindings
	a.State.baseEnabled = true
	return nil
}

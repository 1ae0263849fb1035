package schemes

import (
	"zonesim.ai/internal/sim/logic"
)

// policyToggle is the shape most generic sub-behaviors share: one
// boolean policy knob reconfigured from a section field on every switch.
type policyToggle struct {
	id  logic.SchemeID
	key string
	def bool
	set func(p *logic.Policy, v bool)
}

func (t policyToggle) Scheme() logic.SchemeID { return t.id }

func (t policyToggle) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	t.Reset(ctx, a, section)
	return nil
}

func (t policyToggle) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	t.set(&a.Policy, fieldBool(a, section, t.key, t.def))
}

// meet re-points the dialogue sub-behavior at whatever meet section the
// new main section names, falling back to the permanent base binding.
type meet struct{}

func (meet) Scheme() logic.SchemeID { return logic.SchemeMeet }

func (m meet) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	m.Reset(ctx, a, section)
	return nil
}

func (meet) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	target := fieldStr(a, section, "meet", "")
	if target == "" {
		if sec, ok := a.State.BaseBinding(logic.BaseMeet); ok {
			target = string(sec)
		}
	}
	a.Policy.MeetSection = logic.SectionID(target)
}

// woundedScheme and deathScheme keep the section their handlers consult
// in their runtime slots, re-pointed on every switch.

type WoundedState struct {
	Section logic.SectionID
	HPState float64
}

type woundedScheme struct{}

func (woundedScheme) Scheme() logic.SchemeID { return logic.SchemeWounded }

func (w woundedScheme) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	w.Reset(ctx, a, section)
	return nil
}

func (woundedScheme) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	target := logic.SectionID(fieldStr(a, section, "wounded", ""))
	if target == "" {
		if sec, ok := a.State.BaseBinding(logic.BaseWounded); ok {
			target = sec
		}
	}
	if target == "" {
		a.State.ClearSlot(logic.SchemeWounded)
		return
	}
	a.State.SetSlot(logic.SchemeWounded, &WoundedState{
		Section: target,
		HPState: fieldFloat(a, target, "hp_state", 0.2),
	})
}

type DeathState struct {
	Section logic.SectionID
}

type deathScheme struct{}

func (deathScheme) Scheme() logic.SchemeID { return logic.SchemeDeath }

func (d deathScheme) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	d.Reset(ctx, a, section)
	return nil
}

func (deathScheme) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	target := logic.SectionID(fieldStr(a, section, "on_death", ""))
	if target == "" {
		if sec, ok := a.State.BaseBinding(logic.BaseOnDeath); ok {
			target = sec
		}
	}
	if target == "" {
		a.State.ClearSlot(logic.SchemeDeath)
		return
	}
	a.State.SetSlot(logic.SchemeDeath, &DeathState{Section: target})
}

type danger struct{}

func (danger) Scheme() logic.SchemeID { return logic.SchemeDanger }

func (d danger) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	d.Reset(ctx, a, section)
	return nil
}

func (danger) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.DangerRadius = fieldFloat(a, section, "danger_radius", 20)
}

// combatIgnore owns no policy knob of its own; the engine recomputes
// the condlist in Overrides. The reset only drops the stale slot.
type combatIgnore struct{}

func (combatIgnore) Scheme() logic.SchemeID { return logic.SchemeCombatIgnore }

func (combatIgnore) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	return nil
}

func (combatIgnore) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.State.ClearSlot(logic.SchemeCombatIgnore)
}

type mapMarker struct{}

func (mapMarker) Scheme() logic.SchemeID { return logic.SchemeMapMarker }

func (m mapMarker) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	m.Reset(ctx, a, section)
	return nil
}

func (mapMarker) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.MapMarker = fieldStr(a, section, "map_marker", "")
}

type ignoreThreshold struct{}

func (ignoreThreshold) Scheme() logic.SchemeID { return logic.SchemeIgnoreThreshold }

func (i ignoreThreshold) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	i.Reset(ctx, a, section)
	return nil
}

func (ignoreThreshold) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.IgnoreThreshold = fieldFloat(a, section, "max_ignore_distance", 0)
}

type factionGroup struct{}

func (factionGroup) Scheme() logic.SchemeID { return logic.SchemeFactionGroup }

func (f factionGroup) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	f.Reset(ctx, a, section)
	return nil
}

func (factionGroup) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.FactionGroup = fieldStr(a, section, "faction", "")
}

type weaponPolicy struct{}

func (weaponPolicy) Scheme() logic.SchemeID { return logic.SchemeWeaponPolicy }

func (w weaponPolicy) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	w.Reset(ctx, a, section)
	return nil
}

func (weaponPolicy) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.WeaponPolicy = fieldStr(a, section, "weapon", "auto")
}

// restrictions switches the actor's restriction zones to the set the
// new section names, through the world's restrictor service.
type restrictions struct{}

func (restrictions) Scheme() logic.SchemeID { return logic.SchemeRestrictions }

func (r restrictions) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	r.Reset(ctx, a, section)
	return nil
}

func (restrictions) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	in := splitList(fieldStr(a, section, "in_restr", ""))
	out := splitList(fieldStr(a, section, "out_restr", ""))
	a.Policy.RestrictionsIn = in
	a.Policy.RestrictionsOut = out
	if ctx.Restrict != nil {
		ctx.Restrict.ApplyRestrictions(a, in, out)
	}
}

// mobRelease drops any control hooks a prior scheme held over the
// creature. Must run before the rest of the creature bundle.
type mobRelease struct{}

func (mobRelease) Scheme() logic.SchemeID { return logic.SchemeMobRelease }

func (m mobRelease) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	m.Reset(ctx, a, section)
	return nil
}

func (mobRelease) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	a.Policy.ControlReleased = true
	a.State.ClearSlot("mob_control")
}

type VehHitState struct {
	Section logic.SectionID
}

type vehHit struct{}

func (vehHit) Scheme() logic.SchemeID { return logic.SchemeVehHit }

func (v vehHit) Activate(ctx *logic.Context, a *logic.Actor, section logic.SectionID, restoring bool) error {
	v.Reset(ctx, a, section)
	return nil
}

func (vehHit) Reset(ctx *logic.Context, a *logic.Actor, section logic.SectionID) {
	target := logic.SectionID(fieldStr(a, section, "on_hit", ""))
	if target == "" {
		a.State.ClearSlot(logic.SchemeVehHit)
		return
	}
	a.State.SetSlot(logic.SchemeVehHit, &VehHitState{Section: target})
}

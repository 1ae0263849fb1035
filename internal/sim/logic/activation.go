package logic

import (
	"fmt"
	"strconv"

	"zonesim.ai/internal/protocol"
)

// Activate drives the actor's section state machine. It is synchronous
// and atomic from the scheduler's point of view: once begun it runs to
// completion before any other logic observes the new state. A nested
// activation for the same actor is programmer error and panics.
//
// Ordering guarantees: the generic-layer reset completes before the
// target scheme's activation is invoked, and the activation event is
// emitted last, after the scheme's runtime slot exists. When the target
// scheme's activation fails, the previous binding, its overrides, and
// the generic layer are restored before the error is returned.
func Activate(ctx *Context, a *Actor, target Target, label string, restoring bool) error {
	if a.State.activating {
		panic(fmt.Sprintf("%s: actor %s: nested activation (label %q)", protocol.ErrReentrantActivation, a.ID, label))
	}
	a.State.activating = true
	defer func() { a.State.activating = false }()

	section, null, err := ResolveTarget(ctx, a, target)
	if err != nil {
		return err
	}
	if null {
		a.State.Overrides = nil
		resetGenericSchemes(ctx, a, "", "")
		a.State.clearActive()
		if !restoring {
			a.State.ActivationTick = ctx.now()
			a.State.ActivationGameTime = ctx.gameTime()
		}
		return nil
	}

	scheme, err := SchemeFromSection(section)
	if err != nil {
		return err
	}
	if !a.Profile.HasSection(string(section)) {
		return configErr(ErrUnresolvedScheme, a.ID, section, "section not defined in profile %q", a.Profile.Name)
	}

	ov, err := resolveOverrides(ctx, a, section)
	if err != nil {
		return err
	}

	prevOverrides := a.State.Overrides
	prevSection, _ := a.State.Active()
	prevScheme, _ := a.State.ActiveScheme()

	a.State.Overrides = ov

	// Generic state must not reflect the outgoing scheme while the new
	// scheme initializes.
	resetGenericSchemes(ctx, a, scheme, section)

	desc := ctx.Registry.MustLookup(scheme)
	if err := desc.Activate(ctx, a, section, restoring); err != nil {
		// The binding still names the previous section; overrides and
		// generic state must match it again.
		a.State.Overrides = prevOverrides
		resetGenericSchemes(ctx, a, prevScheme, prevSection)
		return fmt.Errorf("activate %s[%s]: %w", a.ID, section, err)
	}

	if !restoring {
		a.State.ActivationTick = ctx.now()
		a.State.ActivationGameTime = ctx.gameTime()
	}
	a.State.setActive(section, scheme)

	if a.Archetype == ArchetypeHumanoid && ctx.Space != nil {
		a.Pos = ctx.Space.NearestReachable(a.Pos)
	}

	if ctx.Events != nil {
		ctx.Events.SchemeActivated(ActivationEvent{
			Tick:      ctx.now(),
			ActorID:   a.ID,
			Scheme:    scheme,
			Section:   section,
			Restoring: restoring,
			Label:     label,
		})
	}
	return nil
}

// IsActive reports whether candidate is the actor's current section.
// Pure comparison, no side effects.
func IsActive(a *Actor, candidate SectionID) bool {
	cur, ok := a.State.Active()
	return ok && cur == candidate
}

// MaybeSwitch applies a config-declared transition: it re-evaluates the
// current section's `active` condlist and activates the chosen section
// when it differs from the current one.
func MaybeSwitch(ctx *Context, a *Actor, label string) (switched bool, err error) {
	section, null, ok, err := ActiveSwitchTarget(ctx, a)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if null {
		if _, bound := a.State.Active(); !bound {
			return false, nil
		}
		return true, Activate(ctx, a, NullTarget(), label, false)
	}
	if IsActive(a, section) {
		return false, nil
	}
	return true, Activate(ctx, a, NamedTarget(section), label, false)
}

// resolveOverrides recomputes the per-section override set. It is
// replaced wholesale on every transition so nothing stale from a prior
// section survives.
func resolveOverrides(ctx *Context, a *Actor, section SectionID) (*Overrides, error) {
	ov := &Overrides{}
	read := func(key string) (string, bool) {
		return a.Profile.Field(string(section), key)
	}
	if v, ok := read("combat_ignore_cond"); ok {
		cl, err := ctx.ParseCond(v)
		if err != nil {
			return nil, configErr(ErrBadProfile, a.ID, section, "combat_ignore_cond: %v", err)
		}
		ov.CombatIgnore = cl
	}
	if v, ok := read("combat_ignore_keep_when_attacked"); ok {
		ov.KeepWhenAttacked = v == "true"
	}
	if v, ok := read("on_combat"); ok {
		cl, err := ctx.ParseCond(v)
		if err != nil {
			return nil, configErr(ErrBadProfile, a.ID, section, "on_combat: %v", err)
		}
		ov.OnCombat = cl
	}
	if v, ok := read("on_offline"); ok {
		cl, err := ctx.ParseCond(v)
		if err != nil {
			return nil, configErr(ErrBadProfile, a.ID, section, "on_offline: %v", err)
		}
		ov.OnOffline = cl
	}
	if v, ok := read("post_combat_idle_min"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			ov.PostCombatIdleMin = n
		}
	}
	if v, ok := read("post_combat_idle_max"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			ov.PostCombatIdleMax = n
		}
	}
	if v, ok := read("soundgroup"); ok {
		ov.SoundGroup = v
	}
	return ov, nil
}

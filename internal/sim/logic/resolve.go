package logic

import "zonesim.ai/internal/sim/profile"

// Target names what an activation request asks for: a specific section,
// the explicit null section ("no active logic"), or automatic selection
// through the resolution chain.
type Target struct {
	kind    targetKind
	section SectionID
}

type targetKind uint8

const (
	targetAuto targetKind = iota
	targetNamed
	targetNull
)

// AutoTarget selects through offline resume, the profile's `active`
// field and the terrain-job fallback, in that order.
func AutoTarget() Target { return Target{kind: targetAuto} }

func NamedTarget(section SectionID) Target {
	return Target{kind: targetNamed, section: section}
}

// NullTarget transitions the actor to the unbound state.
func NullTarget() Target { return Target{kind: targetNull} }

// ResolveTarget turns a target into a concrete section. null=true means
// the resolution chose "no active logic" (only possible via a condlist
// branch with an empty section). Errors are fatal configuration errors.
func ResolveTarget(ctx *Context, a *Actor, t Target) (section SectionID, null bool, err error) {
	switch t.kind {
	case targetNull:
		return "", true, nil
	case targetNamed:
		if !a.Profile.HasSection(string(t.section)) {
			return "", false, configErr(ErrUnresolvedScheme, a.ID, t.section, "section not defined in profile %q", a.Profile.Name)
		}
		return t.section, false, nil
	}

	// Offline resume: a previously recorded section is preferred over
	// profile defaults, consumed only when actually adopted. A stale
	// record (section gone from the profile) is discarded and resolution
	// silently falls through.
	if ctx.Offline != nil {
		if last, ok := ctx.Offline.Peek(a.ID); ok {
			if a.Profile.HasSection(string(last)) {
				ctx.Offline.Take(a.ID)
				return last, false, nil
			}
			ctx.Offline.Drop(a.ID)
		}
	}

	if expr, ok := a.Profile.Field(profile.EntrySection, "active"); ok {
		return resolveActive(ctx, a, profile.EntrySection, expr)
	}

	// Terrain-job fallback: no explicit target anywhere in the profile,
	// so the actor's work-site binding must supply the section.
	if ctx.Jobs != nil {
		if job, ok := ctx.Jobs.JobFor(a.ID); ok {
			return SectionID(job.Section), false, nil
		}
	}
	return "", false, configErr(ErrNotAssignedToTerrain, a.ID, profile.EntrySection, "no active field and no terrain job")
}

// resolveActive evaluates a section's `active` condlist. No matching
// branch means the profile lacks an unconditional fallback, which is a
// fatal content error, not a silent default.
func resolveActive(ctx *Context, a *Actor, section, expr string) (SectionID, bool, error) {
	cl, err := ctx.ParseCond(expr)
	if err != nil {
		return "", false, configErr(ErrBadProfile, a.ID, SectionID(section), "active: %v", err)
	}
	picked, ok := ctx.Eval.Evaluate(a, nil, cl)
	if !ok {
		return "", false, configErr(ErrNoElseClause, a.ID, SectionID(section), "no condlist branch matched")
	}
	if picked == "" {
		return "", true, nil
	}
	return SectionID(picked), false, nil
}

// ActiveSwitchTarget re-evaluates the current section's own `active`
// field, returning the section the actor should now be in. ok=false
// when the current section declares no transitions.
func ActiveSwitchTarget(ctx *Context, a *Actor) (section SectionID, null bool, ok bool, err error) {
	cur, bound := a.State.Active()
	if !bound {
		return "", false, false, nil
	}
	expr, has := a.Profile.Field(string(cur), "active")
	if !has {
		return "", false, false, nil
	}
	sec, isNull, err := resolveActive(ctx, a, string(cur), expr)
	if err != nil {
		return "", false, false, err
	}
	return sec, isNull, true, nil
}

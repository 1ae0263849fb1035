// Package schemes holds the concrete behavior implementations the
// activation engine dispatches to: the main schemes actors bind to
// (walker, guard, camper, mob_home, ...) and the always-on generic
// sub-behaviors reset on every section switch.
package schemes

import (
	"strconv"
	"strings"

	"zonesim.ai/internal/sim/logic"
)

// RegisterAll installs every scheme into the registry. Called once at
// startup, before the registry is sealed.
func RegisterAll(reg *logic.Registry) {
	// Humanoid main schemes.
	reg.Register(walker{})
	reg.Register(guard{})
	reg.Register(camper{})
	reg.Register(remark{})

	// Creature main schemes.
	reg.Register(mobHome{})
	reg.Register(mobWalker{})

	// Prop and vehicle main schemes.
	reg.Register(phIdle{})
	reg.Register(vehPatrol{})

	// Generic bundle sub-behaviors.
	reg.Register(policyToggle{id: logic.SchemeHelpWounded, key: "help_wounded_enabled", def: true,
		set: func(p *logic.Policy, v bool) { p.HelpWounded = v }})
	reg.Register(policyToggle{id: logic.SchemeCorpseDetection, key: "corpse_detection_enabled", def: true,
		set: func(p *logic.Policy, v bool) { p.CorpseDetection = v }})
	reg.Register(policyToggle{id: logic.SchemeAbuse, key: "abuse", def: true,
		set: func(p *logic.Policy, v bool) { p.AbuseEnabled = v }})
	reg.Register(policyToggle{id: logic.SchemeGatherItems, key: "gather_items_enabled", def: true,
		set: func(p *logic.Policy, v bool) { p.GatherItems = v }})
	reg.Register(policyToggle{id: logic.SchemeHearing, key: "hearing_enabled", def: true,
		set: func(p *logic.Policy, v bool) { p.HearingEnabled = v }})
	reg.Register(policyToggle{id: logic.SchemeInvulnerability, key: "invulnerable", def: false,
		set: func(p *logic.Policy, v bool) { p.Invulnerable = v }})
	reg.Register(policyToggle{id: logic.SchemeItemPickup, key: "pickup_items", def: true,
		set: func(p *logic.Policy, v bool) { p.ItemPickup = v }})
	reg.Register(policyToggle{id: logic.SchemeMobInvisibility, key: "invisible", def: false,
		set: func(p *logic.Policy, v bool) { p.Invisible = v }})

	reg.Register(meet{})
	reg.Register(woundedScheme{})
	reg.Register(deathScheme{})
	reg.Register(danger{})
	reg.Register(combatIgnore{})
	reg.Register(mapMarker{})
	reg.Register(ignoreThreshold{})
	reg.Register(factionGroup{})
	reg.Register(weaponPolicy{})
	reg.Register(restrictions{})
	reg.Register(mobRelease{})
	reg.Register(vehHit{})
}

// Field helpers. An empty section name (null transition) reads nothing
// and every helper yields its default.

func fieldStr(a *logic.Actor, section logic.SectionID, key, def string) string {
	if v, ok := a.Profile.Field(string(section), key); ok {
		return v
	}
	return def
}

func fieldBool(a *logic.Actor, section logic.SectionID, key string, def bool) bool {
	v, ok := a.Profile.Field(string(section), key)
	if !ok {
		return def
	}
	return v == "true"
}

func fieldFloat(a *logic.Actor, section logic.SectionID, key string, def float64) float64 {
	v, ok := a.Profile.Field(string(section), key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

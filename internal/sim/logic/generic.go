package logic

// Scheme identifiers for the per-archetype generic bundles. The bundle
// entries are ordinary registered schemes; the engine resets them in a
// fixed order on every main-section switch, later entries may assume
// earlier ones are already reset.
const (
	SchemeMeet            SchemeID = "meet"
	SchemeHelpWounded     SchemeID = "help_wounded"
	SchemeCorpseDetection SchemeID = "corpse_detection"
	SchemeAbuse           SchemeID = "abuse"
	SchemeWounded         SchemeID = "wounded"
	SchemeDeath           SchemeID = "death"
	SchemeDanger          SchemeID = "danger"
	SchemeGatherItems     SchemeID = "gather_items"
	SchemeCombatIgnore    SchemeID = "combat_ignore"
	SchemeHearing         SchemeID = "hearing"
	SchemeMapMarker       SchemeID = "map_marker"
	SchemeIgnoreThreshold SchemeID = "ignore_threshold"
	SchemeInvulnerability SchemeID = "invulnerability"
	SchemeFactionGroup    SchemeID = "faction_group"
	SchemeItemPickup      SchemeID = "item_pickup"
	SchemeWeaponPolicy    SchemeID = "weapon_policy"
	SchemeRestrictions    SchemeID = "restrictions"
	SchemeMobRelease      SchemeID = "mob_release"
	SchemeMobInvisibility SchemeID = "mob_invisibility"
	SchemeVehHit          SchemeID = "veh_hit"
)

// SpeciesPsyDog is the one creature sub-species whose invisibility is
// toggled manually by the generic layer rather than by its own logic.
const SpeciesPsyDog = "psy_dog_phantom"

var humanoidBundle = []SchemeID{
	SchemeMeet,
	SchemeHelpWounded,
	SchemeCorpseDetection,
	SchemeAbuse,
	SchemeWounded,
	SchemeDeath,
	SchemeDanger,
	SchemeGatherItems,
	SchemeCombatIgnore,
	SchemeHearing,
	SchemeMapMarker,
	SchemeIgnoreThreshold,
	SchemeInvulnerability,
	SchemeFactionGroup,
	SchemeItemPickup,
	SchemeWeaponPolicy,
	SchemeRestrictions,
}

var creatureBundle = []SchemeID{
	SchemeMobRelease,
	SchemeMobInvisibility, // skipped unless the species opts in
	SchemeCombatIgnore,
	SchemeHearing,
	SchemeInvulnerability,
	SchemeRestrictions,
}

// resetGenericSchemes tears the archetype's always-on sub-behaviors down
// and reconstructs them against the new section. section is empty when
// the actor transitions to the null section.
func resetGenericSchemes(ctx *Context, a *Actor, scheme SchemeID, section SectionID) {
	switch a.Archetype {
	case ArchetypeHumanoid:
		resetBundle(ctx, a, humanoidBundle, section)
	case ArchetypeCreature:
		for _, id := range creatureBundle {
			if id == SchemeMobInvisibility && a.Species != SpeciesPsyDog {
				continue
			}
			resetOne(ctx, a, id, section)
		}
	case ArchetypeProp:
		a.UseCallback = nil
		a.Usable = true
	case ArchetypeVehicle:
		resetOne(ctx, a, SchemeVehHit, section)
	}
	if section != "" {
		ctx.logf("generic reset %s archetype=%s scheme=%s section=%s", a.ID, a.Archetype, scheme, section)
	}
}

func resetBundle(ctx *Context, a *Actor, bundle []SchemeID, section SectionID) {
	for _, id := range bundle {
		resetOne(ctx, a, id, section)
	}
}

// resetOne dispatches to a bundle entry's descriptor. A bundle entry
// absent from the registry is skipped: the bundle is fixed by archetype,
// which sub-behaviors a deployment registers is not.
func resetOne(ctx *Context, a *Actor, id SchemeID, section SectionID) {
	if d, ok := ctx.Registry.Lookup(id); ok {
		d.Reset(ctx, a, section)
	}
}

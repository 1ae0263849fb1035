package schemes

import (
	"testing"
	"time"

	"zonesim.ai/internal/sim/condlist"
	"zonesim.ai/internal/sim/logic"
	"zonesim.ai/internal/sim/profile"
)

func newCtx(t *testing.T) *logic.Context {
	t.Helper()
	reg := logic.NewRegistry()
	RegisterAll(reg)
	reg.Seal()
	return &logic.Context{
		Registry: reg,
		Eval:     condlist.NewEvaluator(nil),
		Tick:     func() uint64 { return 42 },
		GameTime: func() time.Time { return time.Unix(0, 0).UTC() },
	}
}

func watchProfile() *profile.Profile {
	return &profile.Profile{
		Name:      "watch",
		Archetype: "humanoid",
		Sections: map[string]profile.Section{
			"logic": {
				"active":   "walker@rounds",
				"on_death": "death@default",
				"wounded":  "wounded@default",
			},
			"walker@rounds": {
				"path":         "rounds",
				"team":         "gate_watch",
				"meet":         "meet@friendly",
				"invulnerable": "true",
				"weapon":       "pistol",
				"out_restr":    "gate_zone, yard",
			},
			"guard@gate":      {"point": "gate"},
			"meet@friendly":   {"greeting": "wave"},
			"death@default":   {},
			"wounded@default": {"hp_state": "0.35"},
		},
	}
}

func TestWalkerActivationBuildsSlot(t *testing.T) {
	ctx := newCtx(t)
	a := logic.NewActor("st_1", "Watch", logic.ArchetypeHumanoid, watchProfile())

	if err := logic.Activate(ctx, a, logic.AutoTarget(), "spawn", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	st, ok := a.State.Slot("walker")
	if !ok {
		t.Fatalf("walker slot missing")
	}
	ws := st.(*WalkerState)
	if ws.Path != "rounds" || ws.Team != "gate_watch" {
		t.Fatalf("bad walker state: %+v", ws)
	}
}

func TestGenericBundleReconfiguresPolicy(t *testing.T) {
	ctx := newCtx(t)
	a := logic.NewActor("st_1", "Watch", logic.ArchetypeHumanoid, watchProfile())
	if err := logic.EnableBaseSchemes(ctx, a, profile.EntrySection); err != nil {
		t.Fatalf("enable base: %v", err)
	}

	if err := logic.Activate(ctx, a, logic.NamedTarget("walker@rounds"), "", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !a.Policy.Invulnerable {
		t.Fatalf("invulnerable field not applied")
	}
	if a.Policy.WeaponPolicy != "pistol" {
		t.Fatalf("weapon policy = %q", a.Policy.WeaponPolicy)
	}
	if a.Policy.MeetSection != "meet@friendly" {
		t.Fatalf("meet section = %q", a.Policy.MeetSection)
	}
	if len(a.Policy.RestrictionsOut) != 2 || a.Policy.RestrictionsOut[0] != "gate_zone" {
		t.Fatalf("restrictions = %v", a.Policy.RestrictionsOut)
	}
	ws, ok := a.State.Slot(logic.SchemeWounded)
	if !ok {
		t.Fatalf("wounded slot not wired")
	}
	if got := ws.(*WoundedState); got.Section != "wounded@default" || got.HPState != 0.35 {
		t.Fatalf("wounded state: %+v", got)
	}

	// The next section names none of these fields, so every knob
	// returns to its default.
	if err := logic.Activate(ctx, a, logic.NamedTarget("guard@gate"), "", false); err != nil {
		t.Fatalf("activate guard: %v", err)
	}
	if a.Policy.Invulnerable {
		t.Fatalf("invulnerability leaked across sections")
	}
	if a.Policy.WeaponPolicy != "auto" {
		t.Fatalf("weapon policy not reset: %q", a.Policy.WeaponPolicy)
	}
	if len(a.Policy.RestrictionsOut) != 0 {
		t.Fatalf("restrictions leaked: %v", a.Policy.RestrictionsOut)
	}
}

func TestWalkerRestoreKeepsProgress(t *testing.T) {
	ctx := newCtx(t)
	a := logic.NewActor("st_1", "Watch", logic.ArchetypeHumanoid, watchProfile())

	if err := logic.Activate(ctx, a, logic.NamedTarget("walker@rounds"), "", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	st, _ := a.State.Slot("walker")
	st.(*WalkerState).Waypoint = 7

	if err := logic.Activate(ctx, a, logic.NamedTarget("walker@rounds"), "load", true); err != nil {
		t.Fatalf("restore: %v", err)
	}
	st, _ = a.State.Slot("walker")
	if got := st.(*WalkerState).Waypoint; got != 7 {
		t.Fatalf("waypoint after restore = %d, want 7", got)
	}

	if err := logic.Activate(ctx, a, logic.NamedTarget("walker@rounds"), "switch", false); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	st, _ = a.State.Slot("walker")
	if got := st.(*WalkerState).Waypoint; got != 0 {
		t.Fatalf("genuine switch kept waypoint %d, want fresh slot", got)
	}
}

func TestGuardSlotRoundTrip(t *testing.T) {
	ctx := newCtx(t)
	d := ctx.Registry.MustLookup("guard")
	p, ok := d.(logic.SchemePersister)
	if !ok {
		t.Fatalf("guard does not persist its slot")
	}
	data, err := p.SaveSlot(&GuardState{Point: "gate", Alerted: true})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	st, err := p.LoadSlot(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gs := st.(*GuardState)
	if gs.Point != "gate" || !gs.Alerted {
		t.Fatalf("round trip lost state: %+v", gs)
	}
}

func TestRemarkOneShotSuppressedOnRestore(t *testing.T) {
	prof := &profile.Profile{
		Name:      "talker",
		Archetype: "humanoid",
		Sections: map[string]profile.Section{
			"logic":        {"active": "remark@greet"},
			"remark@greet": {"anim": "hello", "give_info": "greeted"},
		},
	}
	ctx := newCtx(t)

	fresh := logic.NewActor("st_1", "", logic.ArchetypeHumanoid, prof)
	if err := logic.Activate(ctx, fresh, logic.AutoTarget(), "", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !fresh.HasInfo("greeted") {
		t.Fatalf("one-shot info not given on genuine switch")
	}

	loaded := logic.NewActor("st_2", "", logic.ArchetypeHumanoid, prof)
	if err := logic.Activate(ctx, loaded, logic.NamedTarget("remark@greet"), "load", true); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if loaded.HasInfo("greeted") {
		t.Fatalf("one-shot info replayed on restore")
	}
}

func TestPropUseCallbackSwitchesSection(t *testing.T) {
	prof := &profile.Profile{
		Name:      "gate",
		Archetype: "prop",
		Sections: map[string]profile.Section{
			"logic":          {"active": "ph_idle@closed"},
			"ph_idle@closed": {"on_use": "ph_idle@open"},
			"ph_idle@open":   {"on_use": "ph_idle@closed", "usable": "true"},
		},
	}
	ctx := newCtx(t)
	a := logic.NewActor("gate_1", "Gate", logic.ArchetypeProp, prof)

	if err := logic.Activate(ctx, a, logic.AutoTarget(), "spawn", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if a.UseCallback == nil {
		t.Fatalf("closed gate has no use callback")
	}
	a.UseCallback("player")
	if sec, _ := a.State.Active(); sec != "ph_idle@open" {
		t.Fatalf("after use: section %q, want ph_idle@open", sec)
	}
	if a.UseCallback == nil {
		t.Fatalf("open gate lost its use callback")
	}
	a.UseCallback("player")
	if sec, _ := a.State.Active(); sec != "ph_idle@closed" {
		t.Fatalf("after second use: section %q, want ph_idle@closed", sec)
	}
}

func TestCreatureHomeActivation(t *testing.T) {
	prof := &profile.Profile{
		Name:      "boar",
		Archetype: "creature",
		Sections: map[string]profile.Section{
			"logic":        {"active": "mob_home@den"},
			"mob_home@den": {"point": "den_1", "radius": "45", "aggressive": "true"},
		},
	}
	ctx := newCtx(t)
	a := logic.NewActor("m_1", "Boar", logic.ArchetypeCreature, prof)
	a.Species = "boar"

	if err := logic.Activate(ctx, a, logic.AutoTarget(), "spawn", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	st, ok := a.State.Slot("mob_home")
	if !ok {
		t.Fatalf("mob_home slot missing")
	}
	hs := st.(*HomeState)
	if hs.Point != "den_1" || hs.Radius != 45 || !hs.Aggressive {
		t.Fatalf("bad home state: %+v", hs)
	}
	if !a.Policy.ControlReleased {
		t.Fatalf("creature bundle did not release control hooks")
	}
}

func TestSchemeTickersAdvanceSlots(t *testing.T) {
	ctx := newCtx(t)
	a := logic.NewActor("st_1", "Watch", logic.ArchetypeHumanoid, watchProfile())
	if err := logic.Activate(ctx, a, logic.NamedTarget("walker@rounds"), "", false); err != nil {
		t.Fatalf("activate: %v", err)
	}
	d := ctx.Registry.MustLookup("walker")
	ticker, ok := d.(logic.SchemeTicker)
	if !ok {
		t.Fatalf("walker does not tick")
	}
	for i := 0; i < 3; i++ {
		ticker.Tick(ctx, a, "walker@rounds")
	}
	st, _ := a.State.Slot("walker")
	if got := st.(*WalkerState).Waypoint; got != 3 {
		t.Fatalf("waypoint = %d, want 3", got)
	}
}

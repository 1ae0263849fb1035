package world

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	plog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
	"zonesim.ai/internal/protocol"
	"zonesim.ai/internal/sim/logic"
	"zonesim.ai/internal/sim/profile"
	"zonesim.ai/internal/sim/schemes"
	"zonesim.ai/internal/sim/tasks"
	"zonesim.ai/internal/sim/tuning"
)

type recSink struct {
	entries []plog.ActivationEntry
}

func (s *recSink) WriteActivation(e plog.ActivationEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func (s *recSink) restorings(actorID string) int {
	n := 0
	for _, e := range s.entries {
		if e.ActorID == actorID && e.Restoring {
			n++
		}
	}
	return n
}

type auditRec struct {
	entries []plog.AuditEntry
}

func (s *auditRec) WriteAudit(e plog.AuditEntry) error {
	s.entries = append(s.entries, e)
	return nil
}

func testProfiles() *profile.Set {
	watch := &profile.Profile{
		Name:      "watch",
		Archetype: "humanoid",
		Sections: map[string]profile.Section{
			"logic": {
				"active":   "walker@rounds",
				"on_death": "death@default",
			},
			"walker@rounds": {
				"path":   "rounds",
				"team":   "gate_watch",
				"active": "{+fall_back} guard@gate, walker@rounds",
			},
			"guard@gate":    {"point": "gate"},
			"death@default": {},
		},
	}
	hand := &profile.Profile{
		Name:      "hand",
		Archetype: "humanoid",
		Sections: map[string]profile.Section{
			"logic":         {"on_death": "death@default"},
			"guard@depot":   {"point": "depot"},
			"death@default": {},
		},
	}
	return &profile.Set{
		ByName: map[string]*profile.Profile{"watch": watch, "hand": hand},
		Digest: "test-digest",
	}
}

func testConfig(t *testing.T) Config {
	t.Helper()
	reg := logic.NewRegistry()
	schemes.RegisterAll(reg)
	reg.Seal()
	return Config{
		SceneID:  "scene_test",
		Profiles: testProfiles(),
		Registry: reg,
		Tuning: tuning.Tuning{
			TickRateHz:         10,
			SimRadius:          100,
			LogicEveryTicks:    1,
			SuspendEveryTicks:  2,
			SnapshotEveryTicks: 1 << 30,
			GameTimeFactor:     60,
		},
		Sites: []tasks.JobSite{
			{ID: "depot", Section: "guard@depot", Pos: [3]int{5, 0, 5}, Capacity: 2},
		},
		Spawns: []Spawn{
			{ID: "st_1", Name: "Watch", Profile: "watch", Pos: [3]float64{10, 0, 0}},
			{ID: "st_2", Name: "Hand", Profile: "hand", Pos: [3]float64{20, 0, 0}},
		},
	}
}

func mustStep(t *testing.T, w *World) {
	t.Helper()
	if _, err := w.StepOnce(); err != nil {
		t.Fatalf("step: %v", err)
	}
}

func activeSection(t *testing.T, w *World, id string) string {
	t.Helper()
	a, ok := w.actors[id]
	if !ok {
		t.Fatalf("actor %s missing", id)
	}
	sec, _ := a.State.Active()
	return string(sec)
}

func TestSpawnResolvesInitialSections(t *testing.T) {
	w, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if got := activeSection(t, w, "st_1"); got != "walker@rounds" {
		t.Fatalf("st_1 section = %q", got)
	}
	// No configured target: st_2 falls back to its terrain job.
	if got := activeSection(t, w, "st_2"); got != "guard@depot" {
		t.Fatalf("st_2 section = %q", got)
	}
	if job, ok := w.jobs.JobFor("st_2"); !ok || job.SiteID != "depot" {
		t.Fatalf("st_2 job = %+v ok=%v", job, ok)
	}
	for _, id := range []string{"st_1", "st_2"} {
		if !w.online[id] {
			t.Fatalf("%s not online after spawn", id)
		}
	}
}

func TestLogicStepFollowsActiveCondlist(t *testing.T) {
	w, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	w.actors["st_1"].GiveInfo("fall_back")
	mustStep(t, w)
	if got := activeSection(t, w, "st_1"); got != "guard@gate" {
		t.Fatalf("section after switch = %q", got)
	}
}

func TestFailedSwitchHaltsStepAndKeepsBinding(t *testing.T) {
	audits := &auditRec{}
	cfg := testConfig(t)
	cfg.AuditSinks = []AuditSink{audits}
	watch := cfg.Profiles.ByName["watch"]
	watch.Sections["walker@rounds"]["active"] = "{+go_broken} walker@broken, walker@rounds"
	watch.Sections["walker@rounds"]["soundgroup"] = "rounds"
	// No path: the walker scheme rejects the section on activation.
	watch.Sections["walker@broken"] = profile.Section{}

	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	a := w.actors["st_1"]
	if a.State.Overrides == nil || a.State.Overrides.SoundGroup != "rounds" {
		t.Fatalf("overrides not resolved from walker@rounds")
	}
	wantTick := a.State.ActivationTick

	a.GiveInfo("go_broken")
	if _, err := w.StepOnce(); err == nil {
		t.Fatalf("broken section did not stop the step")
	}
	if got := activeSection(t, w, "st_1"); got != "walker@rounds" {
		t.Fatalf("section after failed switch = %q", got)
	}
	if a.State.Overrides == nil || a.State.Overrides.SoundGroup != "rounds" {
		t.Fatalf("overrides no longer match the bound section")
	}
	if a.State.ActivationTick != wantTick {
		t.Fatalf("activation tick restamped by a failed switch")
	}

	var fatal bool
	for _, e := range audits.entries {
		if e.Kind == "fatal" && strings.HasPrefix(e.Detail, protocol.ErrInternal) {
			fatal = true
		}
	}
	if !fatal {
		t.Fatalf("no fatal audit entry journaled")
	}
}

func TestRadiusSuspendAndResume(t *testing.T) {
	sink := &recSink{}
	cfg := testConfig(t)
	cfg.ActSinks = []ActivationSink{sink}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}

	// Move the watcher out of range; the next membership check suspends it.
	w.actors["st_1"].Pos = logic.Vec3{X: 500}
	mustStep(t, w)
	mustStep(t, w)
	if w.online["st_1"] {
		t.Fatalf("st_1 still online beyond radius")
	}
	if got := activeSection(t, w, "st_1"); got != "" {
		t.Fatalf("suspended actor still bound to %q", got)
	}
	last, ok := w.offl.Peek("st_1")
	if !ok || last != "walker@rounds" {
		t.Fatalf("offline record = %q ok=%v", last, ok)
	}

	// Back in range: resolution adopts the recorded section.
	w.actors["st_1"].Pos = logic.Vec3{X: 10}
	mustStep(t, w)
	mustStep(t, w)
	if !w.online["st_1"] {
		t.Fatalf("st_1 not resumed")
	}
	if got := activeSection(t, w, "st_1"); got != "walker@rounds" {
		t.Fatalf("resumed section = %q", got)
	}
	if w.offl.Suspended("st_1") {
		t.Fatalf("offline record not destroyed on resume")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	sink := &recSink{}
	cfg := testConfig(t)
	cfg.SnapshotDir = t.TempDir()
	cfg.ActSinks = []ActivationSink{sink}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}

	// Accumulate patrol progress and suspend the hand so the snapshot
	// carries both a live slot and an offline record.
	for i := 0; i < 5; i++ {
		mustStep(t, w)
	}
	w.actors["st_2"].Pos = logic.Vec3{X: 900}
	mustStep(t, w)
	mustStep(t, w)
	if w.online["st_2"] {
		t.Fatalf("st_2 not suspended")
	}

	watcher := w.actors["st_1"]
	wantTick := watcher.State.ActivationTick
	wantTime := watcher.State.ActivationGameTime
	st, _ := watcher.State.Slot("walker")
	wantWaypoint := st.(*schemes.WalkerState).Waypoint
	if wantWaypoint == 0 {
		t.Fatalf("walker made no progress before save")
	}

	path, err := w.writeSnapshot()
	if err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	if filepath.Dir(path) != cfg.SnapshotDir {
		t.Fatalf("snapshot path = %q", path)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.ProfilesDigest != "test-digest" {
		t.Fatalf("profiles digest = %q", snap.ProfilesDigest)
	}

	cfg2 := testConfig(t)
	cfg2.Spawns = nil
	sink2 := &recSink{}
	cfg2.ActSinks = []ActivationSink{sink2}
	w2, err := Restore(cfg2, snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if got := w2.Tick(); got != snap.Header.Tick {
		t.Fatalf("restored tick = %d, want %d", got, snap.Header.Tick)
	}
	if got := activeSection(t, w2, "st_1"); got != "walker@rounds" {
		t.Fatalf("restored section = %q", got)
	}
	r := w2.actors["st_1"]
	if r.State.ActivationTick != wantTick {
		t.Fatalf("activation tick changed on load: %d != %d", r.State.ActivationTick, wantTick)
	}
	if !r.State.ActivationGameTime.Equal(wantTime) {
		t.Fatalf("activation game time changed on load")
	}
	st2, ok := r.State.Slot("walker")
	if !ok {
		t.Fatalf("walker slot lost on load")
	}
	if got := st2.(*schemes.WalkerState).Waypoint; got != wantWaypoint {
		t.Fatalf("waypoint = %d, want %d", got, wantWaypoint)
	}
	// The reload is the only restoring activation the actor sees.
	if n := sink2.restorings("st_1"); n != 1 {
		t.Fatalf("restoring activations = %d, want 1", n)
	}

	// The suspended hand stays offline with its record intact.
	if w2.online["st_2"] {
		t.Fatalf("st_2 online after restore")
	}
	last, ok := w2.offl.Peek("st_2")
	if !ok || last != "guard@depot" {
		t.Fatalf("restored offline record = %q ok=%v", last, ok)
	}
	if job, ok := w2.jobs.JobFor("st_2"); !ok || job.SiteID != "depot" {
		t.Fatalf("restored job = %+v ok=%v", job, ok)
	}
}

func TestObserverReceivesActivationStream(t *testing.T) {
	w, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	out := make(chan []byte, 16)
	resp := make(chan protocol.WelcomeMsg, 1)
	w.handleObserverJoin(observerJoinReq{Name: "probe", Out: out, Resp: resp})
	welcome := <-resp
	if welcome.Type != protocol.TypeWelcome || welcome.WorldID != "scene_test" {
		t.Fatalf("welcome = %+v", welcome)
	}

	w.actors["st_1"].GiveInfo("fall_back")
	mustStep(t, w)

	var saw bool
	for len(out) > 0 {
		var base protocol.BaseMessage
		b := <-out
		if err := json.Unmarshal(b, &base); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		if base.Type != protocol.TypeActivated {
			continue
		}
		var msg protocol.ActivatedMsg
		if err := json.Unmarshal(b, &msg); err != nil {
			t.Fatalf("bad activation frame: %v", err)
		}
		if msg.ActorID == "st_1" && msg.Section == "guard@gate" {
			saw = true
		}
	}
	if !saw {
		t.Fatalf("observer missed the activation broadcast")
	}

	w.handleObserverLeave(welcome.ObserverID)
	if _, ok := w.observers[welcome.ObserverID]; ok {
		t.Fatalf("observer not removed")
	}
}

func TestUseRequestInvokesCallback(t *testing.T) {
	cfg := testConfig(t)
	gate := &profile.Profile{
		Name:      "gate",
		Archetype: "prop",
		Sections: map[string]profile.Section{
			"logic":          {"active": "ph_idle@closed"},
			"ph_idle@closed": {"on_use": "ph_idle@open"},
			"ph_idle@open":   {"on_use": "ph_idle@closed"},
		},
	}
	cfg.Profiles.ByName["gate"] = gate
	cfg.Spawns = append(cfg.Spawns, Spawn{ID: "ph_1", Name: "Gate", Profile: "gate", Pos: [3]float64{1, 0, 1}})
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	if got := activeSection(t, w, "ph_1"); got != "ph_idle@closed" {
		t.Fatalf("gate section = %q", got)
	}
	w.handleUse(useReq{ActorID: "ph_1", UserID: "st_1"})
	if got := activeSection(t, w, "ph_1"); got != "ph_idle@open" {
		t.Fatalf("gate section after use = %q", got)
	}
}

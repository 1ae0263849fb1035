package condlist

import (
	"os"
	"path/filepath"
	"testing"
)

type fakeActor struct {
	id     string
	infos  map[string]bool
	fields map[string]float64
}

func newFakeActor(id string) *fakeActor {
	return &fakeActor{id: id, infos: map[string]bool{}, fields: map[string]float64{}}
}

func (a *fakeActor) ActorID() string { return a.id }
func (a *fakeActor) HasInfo(name string) bool {
	return a.infos[name]
}
func (a *fakeActor) Field(name string) (float64, bool) {
	v, ok := a.fields[name]
	return v, ok
}
func (a *fakeActor) GiveInfo(name string)  { a.infos[name] = true }
func (a *fakeActor) ClearInfo(name string) { delete(a.infos, name) }
func (a *fakeActor) ScriptState() map[string]interface{} {
	st := map[string]interface{}{"id": a.id}
	for k, v := range a.fields {
		st[k] = v
	}
	return st
}

func TestEvaluateHealthBranch(t *testing.T) {
	cl, err := Parse("{health<0.3} wounded_retreat, guard")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEvaluator(nil)

	a := newFakeActor("a1")
	a.fields["health"] = 0.2
	got, ok := e.Evaluate(a, nil, cl)
	if !ok || got != "wounded_retreat" {
		t.Fatalf("health=0.2: got %q ok=%v", got, ok)
	}

	a.fields["health"] = 0.9
	got, ok = e.Evaluate(a, nil, cl)
	if !ok || got != "guard" {
		t.Fatalf("health=0.9: got %q ok=%v", got, ok)
	}
}

func TestNoMatchWithoutFallback(t *testing.T) {
	cl, err := Parse("{+alerted} alarm")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEvaluator(nil)
	a := newFakeActor("a1")
	if got, ok := e.Evaluate(a, nil, cl); ok {
		t.Fatalf("expected no match, got %q", got)
	}
}

func TestInfoCondsAndEffects(t *testing.T) {
	cl, err := Parse("{+alerted -stunned} chase %+seen -calm%, idle")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEvaluator(nil)
	a := newFakeActor("a1")
	a.GiveInfo("alerted")
	a.GiveInfo("calm")

	got, ok := e.Evaluate(a, nil, cl)
	if !ok || got != "chase" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	if !a.HasInfo("seen") {
		t.Fatalf("effect +seen not applied")
	}
	if a.HasInfo("calm") {
		t.Fatalf("effect -calm not applied")
	}

	a.GiveInfo("stunned")
	got, ok = e.Evaluate(a, nil, cl)
	if !ok || got != "idle" {
		t.Fatalf("with stunned: got %q ok=%v", got, ok)
	}
}

func TestNativePredicate(t *testing.T) {
	preds := NewPredicateSet()
	preds.Register("is_night", func(actor, speaker ActorView, args []string) bool {
		return true
	})
	cl, err := Parse("{=is_night} sleep, patrol")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEvaluator(preds)
	a := newFakeActor("a1")
	if got, _ := e.Evaluate(a, nil, cl); got != "sleep" {
		t.Fatalf("got %q", got)
	}

	cl2, err := Parse("{!is_night} patrol, sleep")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, _ := e.Evaluate(a, nil, cl2); got != "sleep" {
		t.Fatalf("negated: got %q", got)
	}
}

func TestScriptPredicate(t *testing.T) {
	dir := t.TempDir()
	src := `
threshold := 0.5
if len(args) > 0 {
	threshold = float(args[0])
}
result := actor.health < threshold
`
	if err := os.WriteFile(filepath.Join(dir, "low_health.tengo"), []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	preds := NewPredicateSet()
	if err := preds.LoadScripts(dir); err != nil {
		t.Fatalf("load scripts: %v", err)
	}

	cl, err := Parse("{=low_health(0.4)} retreat, hold")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e := NewEvaluator(preds)

	a := newFakeActor("a1")
	a.fields["health"] = 0.2
	if got, _ := e.Evaluate(a, nil, cl); got != "retreat" {
		t.Fatalf("health=0.2: got %q", got)
	}
	a.fields["health"] = 0.8
	if got, _ := e.Evaluate(a, nil, cl); got != "hold" {
		t.Fatalf("health=0.8: got %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"",
		"{health<} x",
		"{unterminated x",
		"{~weird} x",
		"x %+a",
	}
	for _, expr := range bad {
		if _, err := Parse(expr); err == nil {
			t.Fatalf("expected parse error for %q", expr)
		}
	}
}

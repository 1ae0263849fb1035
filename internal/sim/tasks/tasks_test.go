package tasks

import "testing"

func testSites() []JobSite {
	return []JobSite{
		{ID: "b_site", Section: "guard@b", Capacity: 1},
		{ID: "a_site", Section: "guard@a", Capacity: 2},
	}
}

func TestAssignDeterministicOrder(t *testing.T) {
	b := NewBoard(testSites())
	j1, ok := b.Assign("x1")
	if !ok || j1.SiteID != "a_site" {
		t.Fatalf("first assignment: %+v ok=%v", j1, ok)
	}
	j2, _ := b.Assign("x2")
	if j2.SiteID != "a_site" {
		t.Fatalf("second assignment should fill a_site: %+v", j2)
	}
	j3, _ := b.Assign("x3")
	if j3.SiteID != "b_site" {
		t.Fatalf("third assignment should spill to b_site: %+v", j3)
	}
	if _, ok := b.Assign("x4"); ok {
		t.Fatalf("fourth assignment should fail, all slots taken")
	}
}

func TestAssignIsStableForBoundActor(t *testing.T) {
	b := NewBoard(testSites())
	j1, _ := b.Assign("x1")
	j2, _ := b.Assign("x1")
	if j1 != j2 {
		t.Fatalf("re-assign changed job: %+v vs %+v", j1, j2)
	}
}

func TestJobForHasNoSideEffects(t *testing.T) {
	b := NewBoard(testSites())
	if _, ok := b.JobFor("x1"); ok {
		t.Fatalf("unbound actor should have no job")
	}
	b.Assign("x1")
	j, ok := b.JobFor("x1")
	if !ok || j.Section != "guard@a" {
		t.Fatalf("bound actor job: %+v ok=%v", j, ok)
	}
}

func TestReleaseFreesSlot(t *testing.T) {
	b := NewBoard([]JobSite{{ID: "s", Section: "guard@s", Capacity: 1}})
	b.Assign("x1")
	if _, ok := b.Assign("x2"); ok {
		t.Fatalf("slot should be full")
	}
	b.Release("x1")
	if _, ok := b.Assign("x2"); !ok {
		t.Fatalf("released slot should be assignable")
	}
}

func TestAssignTo(t *testing.T) {
	b := NewBoard(testSites())
	if err := b.AssignTo("x1", "b_site"); err != nil {
		t.Fatalf("assign to: %v", err)
	}
	j, _ := b.JobFor("x1")
	if j.SiteID != "b_site" {
		t.Fatalf("job: %+v", j)
	}
	if err := b.AssignTo("x2", "nope"); err == nil {
		t.Fatalf("expected unknown site error")
	}
}

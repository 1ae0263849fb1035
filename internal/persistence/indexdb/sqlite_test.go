package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	plog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return idx
}

func TestActivationsForActor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, e := range []plog.ActivationEntry{
		{Tick: 10, ActorID: "st_1", Scheme: "walker", Section: "walker@rounds"},
		{Tick: 10, ActorID: "st_2", Scheme: "guard", Section: "guard@gate"},
		{Tick: 25, ActorID: "st_1", Scheme: "camper", Section: "camper@cover", Restoring: true},
	} {
		if err := idx.WriteActivation(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	rows, err := idx.ActivationsForActor(context.Background(), "st_1", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Section != "walker@rounds" || rows[1].Section != "camper@cover" {
		t.Fatalf("bad order: %+v", rows)
	}
	if !rows[1].Restoring {
		t.Fatalf("restoring flag lost")
	}
}

func TestActivationsSince(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, e := range []plog.ActivationEntry{
		{Tick: 10, ActorID: "st_1", Scheme: "walker", Section: "walker@rounds"},
		{Tick: 40, ActorID: "st_2", Scheme: "guard", Section: "guard@gate", Label: "resume"},
		{Tick: 90, ActorID: "st_1", Scheme: "camper", Section: "camper@cover"},
	} {
		if err := idx.WriteActivation(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	rows, err := idx.ActivationsSince(context.Background(), 40, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Section != "guard@gate" || rows[1].Section != "camper@cover" {
		t.Fatalf("bad order: %+v", rows)
	}
	if rows[0].Label != "resume" {
		t.Fatalf("label lost: %+v", rows[0])
	}

	capped, err := idx.ActivationsSince(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("capped query: %v", err)
	}
	if len(capped) != 1 || capped[0].Tick != 10 {
		t.Fatalf("capped rows: %+v", capped)
	}
}

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	none, _, ok, err := idx.LatestSnapshot(context.Background())
	if err != nil || ok || none != "" {
		t.Fatalf("empty index: path=%q ok=%v err=%v", none, ok, err)
	}

	for _, tick := range []uint64{100, 300, 200} {
		snap := snapshot.SnapshotV1{
			Header:         snapshot.Header{Version: 1, SceneID: "scene", Tick: tick},
			ProfilesDigest: "abc",
			Actors: []snapshot.ActorV1{
				{ID: "st_1", Online: true, ActiveSection: "walker@rounds"},
				{ID: "st_2"},
			},
			Offline: []snapshot.OfflineV1{{ActorID: "st_2", LastSection: "guard@gate"}},
		}
		idx.RecordSnapshot(filepath.Join(dir, "snap"), snap)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	_, tick, ok, err := idx.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !ok || tick != 300 {
		t.Fatalf("latest tick = %d ok=%v, want 300", tick, ok)
	}
}

func TestUpsertProfiles(t *testing.T) {
	idx := openTestIndex(t)
	defer idx.Close()

	rows := []ProfileRow{
		{Name: "sentry", Archetype: "humanoid", Digest: "d1", JSON: []byte(`{"name":"sentry"}`)},
		{Name: "", Archetype: "skipped", Digest: "d2", JSON: []byte(`{}`)},
	}
	if err := idx.UpsertProfiles(rows); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("profiles = %d, want 1 (empty name skipped)", n)
	}
}

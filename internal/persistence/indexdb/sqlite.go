// Package indexdb maintains a queryable sqlite index over the scene's
// activation journal and snapshots. It is a secondary index: the JSONL
// logs remain the source of truth, so writes are buffered and dropped
// under backpressure rather than stalling the sim.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	plog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqActivation reqKind = iota + 1
	reqAudit
	reqSnapshot
)

type req struct {
	kind reqKind

	activation plog.ActivationEntry
	audit      plog.AuditEntry
	snapshot   snapshotRow
}

type snapshotRow struct {
	Tick    uint64
	Path    string
	Actors  int
	Online  int
	Offline int
	Digest  string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// High buffer: a scene-wide resolve pass activates every actor in
		// one tick, and none of those writes may stall the sim.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS activations (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			actor_id TEXT NOT NULL,
			scheme TEXT NOT NULL,
			section TEXT NOT NULL,
			restoring INTEGER NOT NULL,
			label TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activations_actor_tick ON activations(actor_id, tick);`,
		`CREATE INDEX IF NOT EXISTS idx_activations_scheme_tick ON activations(scheme, tick);`,
		`CREATE TABLE IF NOT EXISTS audits (
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			actor_id TEXT,
			detail TEXT,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (tick, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_kind_tick ON audits(kind, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			actors INTEGER NOT NULL,
			online INTEGER NOT NULL,
			offline INTEGER NOT NULL,
			profiles_digest TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			name TEXT PRIMARY KEY,
			archetype TEXT NOT NULL,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) WriteActivation(entry plog.ActivationEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqActivation, activation: entry}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
	return nil
}

func (s *SQLiteIndex) WriteAudit(entry plog.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	online := 0
	for _, a := range snap.Actors {
		if a.Online {
			online++
		}
	}
	r := snapshotRow{
		Tick:    snap.Header.Tick,
		Path:    path,
		Actors:  len(snap.Actors),
		Online:  online,
		Offline: len(snap.Offline),
		Digest:  snap.ProfilesDigest,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertProfiles stores the loaded profile catalog so operators can
// query what content a scene ran with. Synchronous; called at startup
// and on hot reload, never from the tick path.
func (s *SQLiteIndex) UpsertProfiles(rows []ProfileRow) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO profiles(name,archetype,digest,json,updated_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.Name == "" || len(r.JSON) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.Name, r.Archetype, r.Digest, string(r.JSON), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type ProfileRow struct {
	Name      string
	Archetype string
	Digest    string
	JSON      []byte
}

// ActivationRow is what activation queries return.
type ActivationRow struct {
	Tick      uint64
	ActorID   string
	Scheme    string
	Section   string
	Restoring bool
	Label     string
}

// ActivationsForActor returns the actor's activation history in tick
// order, newest last, capped at limit.
func (s *SQLiteIndex) ActivationsForActor(ctx context.Context, actorID string, limit int) ([]ActivationRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, actor_id, scheme, section, restoring, COALESCE(label,'')
		 FROM activations WHERE actor_id = ? ORDER BY tick, seq LIMIT ?`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivationRow
	for rows.Next() {
		var r ActivationRow
		var restoring int
		if err := rows.Scan(&r.Tick, &r.ActorID, &r.Scheme, &r.Section, &restoring, &r.Label); err != nil {
			return nil, err
		}
		r.Restoring = restoring != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// ActivationsSince returns activations recorded at or after fromTick in
// journal order, capped at limit. Backs the observer handshake backlog.
func (s *SQLiteIndex) ActivationsSince(ctx context.Context, fromTick uint64, limit int) ([]ActivationRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick, actor_id, scheme, section, restoring, COALESCE(label,'')
		 FROM activations WHERE tick >= ? ORDER BY tick, seq LIMIT ?`, fromTick, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivationRow
	for rows.Next() {
		var r ActivationRow
		var restoring int
		if err := rows.Scan(&r.Tick, &r.ActorID, &r.Scheme, &r.Section, &restoring, &r.Label); err != nil {
			return nil, err
		}
		r.Restoring = restoring != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestSnapshot returns the path and tick of the newest recorded
// snapshot, ok=false when none exists.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context) (path string, tick uint64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT path, tick FROM snapshots ORDER BY tick DESC LIMIT 1`)
	if err := row.Scan(&path, &tick); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, false, nil
		}
		return "", 0, false, err
	}
	return path, tick, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertActivation, _ := s.db.Prepare(`INSERT OR REPLACE INTO activations(tick,seq,actor_id,scheme,section,restoring,label,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT OR REPLACE INTO audits(tick,seq,kind,actor_id,detail,raw_json) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,actors,online,offline,profiles_digest) VALUES(?,?,?,?,?,?)`)
	defer func() {
		if insertActivation != nil {
			_ = insertActivation.Close()
		}
		if insertAudit != nil {
			_ = insertAudit.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		lastActTick uint64
		actSeq      int

		lastAuditTick uint64
		auditSeq      int
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqActivation:
			a := r.activation
			if a.Tick != lastActTick {
				lastActTick = a.Tick
				actSeq = 0
			}
			seq := actSeq
			actSeq++
			raw, _ := json.Marshal(a)
			if insertActivation != nil {
				restoring := 0
				if a.Restoring {
					restoring = 1
				}
				if _, err := tx.Stmt(insertActivation).Exec(
					int64(a.Tick),
					seq,
					a.ActorID,
					a.Scheme,
					a.Section,
					restoring,
					a.Label,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			if a.Tick != lastAuditTick {
				lastAuditTick = a.Tick
				auditSeq = 0
			}
			seq := auditSeq
			auditSeq++
			raw, _ := json.Marshal(a)
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(
					int64(a.Tick),
					seq,
					a.Kind,
					a.ActorID,
					a.Detail,
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Actors,
					sn.Online,
					sn.Offline,
					sn.Digest,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}

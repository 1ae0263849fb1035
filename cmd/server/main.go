package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"zonesim.ai/internal/persistence/indexdb"
	persistlog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
	"zonesim.ai/internal/sim/condlist"
	"zonesim.ai/internal/sim/logic"
	"zonesim.ai/internal/sim/profile"
	"zonesim.ai/internal/sim/schemes"
	"zonesim.ai/internal/sim/tasks"
	"zonesim.ai/internal/sim/tuning"
	"zonesim.ai/internal/sim/world"
	"zonesim.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		sceneID    = flag.String("scene", "scene_1", "scene id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (JSONL journals stay on)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")

		watchContent = flag.Bool("watch", false, "watch profile/script files and audit changes (dev)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	profilesDir := filepath.Join(*configDir, "profiles")
	scriptsDir := filepath.Join(*configDir, "scripts")
	profiles, err := profile.LoadDir(profilesDir, filepath.Join(*configDir, "schema", "profile.schema.json"))
	if err != nil {
		logger.Fatalf("load profiles: %v", err)
	}

	preds := condlist.NewPredicateSet()
	if err := preds.LoadScripts(scriptsDir); err != nil {
		logger.Fatalf("load predicate scripts: %v", err)
	}

	sites, err := tasks.LoadSites(filepath.Join(*configDir, "jobs.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load job sites: %v", err)
		}
		sites = nil
	}
	spawns, err := world.LoadSpawns(filepath.Join(*configDir, "actors.yaml"))
	if err != nil {
		logger.Fatalf("load actors: %v", err)
	}

	reg := logic.NewRegistry()
	schemes.RegisterAll(reg)
	reg.Seal()

	sceneDir := filepath.Join(*dataDir, "scenes", *sceneID)
	_ = os.MkdirAll(sceneDir, 0o755)
	snapshotDir := filepath.Join(sceneDir, "snapshots")

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(sceneDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertProfiles(profileRows(profiles)); err != nil {
			logger.Printf("index db: upsert profiles: %v", err)
		}
	}

	actLog := persistlog.NewActivationLogger(sceneDir)
	auditLog := persistlog.NewAuditLogger(sceneDir)
	defer actLog.Close()
	defer auditLog.Close()

	cfg := world.Config{
		SceneID:     *sceneID,
		Tuning:      tune,
		Profiles:    profiles,
		Registry:    reg,
		Preds:       preds,
		Sites:       sites,
		Spawns:      spawns,
		SnapshotDir: snapshotDir,
		ActSinks:    []world.ActivationSink{actLog},
		AuditSinks:  []world.AuditSink{auditLog},
		Logger:      logger,
	}
	if idx != nil {
		cfg.ActSinks = append(cfg.ActSinks, idx)
		cfg.AuditSinks = append(cfg.AuditSinks, idx)
		cfg.OnSnapshotWritten = func(path string, snap snapshot.SnapshotV1) {
			idx.RecordSnapshot(path, snap)
		}
	}

	// Fresh scene or snapshot resume.
	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(idx, snapshotDir)
	}

	var w *world.World
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.SceneID != "" && snap.Header.SceneID != *sceneID {
			logger.Fatalf("snapshot scene id mismatch: flag=%s snap=%s", *sceneID, snap.Header.SceneID)
		}
		if snap.ProfilesDigest != "" && snap.ProfilesDigest != profiles.Digest {
			logger.Printf("profiles changed since snapshot (digest %s -> %s)", snap.ProfilesDigest, profiles.Digest)
		}
		w, err = world.Restore(cfg, snap)
		if err != nil {
			logger.Fatalf("restore: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), w.Tick())
	} else {
		w, err = world.New(cfg)
		if err != nil {
			logger.Fatalf("world: %v", err)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("scene stopped: %v", err)
		}
	}()

	if *watchContent {
		watcher, err := profile.NewWatcher(profilesDir, scriptsDir)
		if err != nil {
			logger.Fatalf("content watcher: %v", err)
		}
		defer watcher.Close()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case path, ok := <-watcher.Events:
					if !ok {
						return
					}
					// Loaded content is immutable for the scene's lifetime;
					// the change takes effect on the next restart.
					logger.Printf("content changed: %s (restart to apply)", path)
					_ = auditLog.WriteAudit(persistlog.AuditEntry{
						TS:     time.Now().UTC().Format(time.RFC3339Nano),
						Tick:   w.Tick(),
						Kind:   "content_changed",
						Detail: path,
					})
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					logger.Printf("content watcher: %v", err)
				}
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP zonesim_scene_tick Current scene tick.\n")
		fmt.Fprintf(rw, "# TYPE zonesim_scene_tick gauge\n")
		fmt.Fprintf(rw, "zonesim_scene_tick{scene=%q} %d\n", *sceneID, w.Tick())
	})
	if envBool("ZS_ENABLE_ADMIN_HTTP", true) {
		// Local-only admin endpoint (does not affect sim determinism).
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			path, tick, err := w.Snapshot()
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "tick": tick, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "tick": tick, "path": path})
		})
	} else {
		logger.Printf("admin endpoints disabled (ZS_ENABLE_ADMIN_HTTP=false)")
	}
	wsSrv := ws.NewServer(w, logger)
	if idx != nil {
		wsSrv.SetBacklog(idx)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func profileRows(set *profile.Set) []indexdb.ProfileRow {
	names := make([]string, 0, len(set.ByName))
	for name := range set.ByName {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([]indexdb.ProfileRow, 0, len(names))
	for _, name := range names {
		p := set.ByName[name]
		jb, err := json.Marshal(p)
		if err != nil {
			continue
		}
		rows = append(rows, indexdb.ProfileRow{
			Name:      p.Name,
			Archetype: p.Archetype,
			Digest:    set.Digest,
			JSON:      jb,
		})
	}
	return rows
}

// latestSnapshot prefers the index's record, falling back to a directory
// scan when the db is disabled or empty.
func latestSnapshot(idx *indexdb.SQLiteIndex, dir string) string {
	if idx != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if path, _, ok, err := idx.LatestSnapshot(ctx); err == nil && ok {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "snap-") || !strings.HasSuffix(name, ".zst") {
			continue
		}
		base := strings.TrimSuffix(strings.TrimPrefix(name, "snap-"), ".zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

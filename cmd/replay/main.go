package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	persistlog "zonesim.ai/internal/persistence/log"
	"zonesim.ai/internal/persistence/snapshot"
)

func main() {
	var (
		snapPath = flag.String("snapshot", "", "path to snap-*.zst (optional)")
		journal  = flag.String("journal", "", "activations dir containing activations-*.jsonl.zst (optional)")
		actorID  = flag.String("actor", "", "only print activations of this actor")
		fromTick = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" && *journal == "" {
		fmt.Fprintln(os.Stderr, "need -snapshot and/or -journal")
		os.Exit(2)
	}

	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		printSnapshot(snap)
	}

	if *journal == "" {
		return
	}
	files, err := listJournalFiles(*journal)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list journal:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no journal files found in", *journal)
		os.Exit(1)
	}
	var printed uint64
	for _, path := range files {
		n, err := dumpFile(path, *actorID, *fromTick, *toTick)
		if err != nil {
			fmt.Fprintln(os.Stderr, "journal:", err)
			os.Exit(1)
		}
		printed += n
	}
	fmt.Printf("%d activations\n", printed)
}

func printSnapshot(snap snapshot.SnapshotV1) {
	online := 0
	for _, a := range snap.Actors {
		if a.Online {
			online++
		}
	}
	fmt.Printf("snapshot v%d scene=%s tick=%d actors=%d online=%d offline_records=%d jobs=%d profiles_digest=%s\n",
		snap.Header.Version, snap.Header.SceneID, snap.Header.Tick,
		len(snap.Actors), online, len(snap.Offline), len(snap.Jobs), snap.ProfilesDigest)
	for _, a := range snap.Actors {
		state := "offline"
		if a.Online {
			state = "online"
		}
		fmt.Printf("  %-12s %-10s %-8s section=%-24s activation_tick=%d slots=%d\n",
			a.ID, a.Archetype, state, a.ActiveSection, a.ActivationTick, len(a.Slots))
	}
}

func listJournalFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "activations-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func dumpFile(path, actorID string, fromTick, toTick uint64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var printed uint64
	for sc.Scan() {
		var entry persistlog.ActivationEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return printed, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if entry.Tick < fromTick {
			continue
		}
		if toTick != 0 && entry.Tick > toTick {
			return printed, nil
		}
		if actorID != "" && entry.ActorID != actorID {
			continue
		}
		flags := ""
		if entry.Restoring {
			flags = " [restoring]"
		}
		if entry.Label != "" {
			flags += " (" + entry.Label + ")"
		}
		fmt.Printf("%-10d %-12s %-12s %s%s\n", entry.Tick, entry.ActorID, entry.Scheme, entry.Section, flags)
		printed++
	}
	return printed, sc.Err()
}

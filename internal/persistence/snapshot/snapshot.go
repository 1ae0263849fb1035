package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	SceneID string `json:"scene_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the full persisted scene state. The actors with a
// non-empty ActiveSection at save time are exactly the actors that
// re-activate on load.
type SnapshotV1 struct {
	Header Header `json:"header"`

	TickRateHz     int     `json:"tick_rate_hz"`
	SimRadius      float64 `json:"sim_radius"`
	GameTimeUnix   int64   `json:"game_time_unix"`
	ProfilesDigest string  `json:"profiles_digest"`

	Actors  []ActorV1   `json:"actors"`
	Offline []OfflineV1 `json:"offline"`
	Jobs    []JobV1     `json:"jobs"`
}

type ActorV1 struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Species   string     `json:"species,omitempty"`
	Archetype string     `json:"archetype"`
	Profile   string     `json:"profile"`
	Pos       [3]float64 `json:"pos"`
	Health    float64    `json:"health"`
	Infos     []string   `json:"infos,omitempty"`

	Online             bool   `json:"online"`
	ActiveSection      string `json:"active_section,omitempty"`
	ActivationTick     uint64 `json:"activation_tick,omitempty"`
	ActivationGameTime int64  `json:"activation_game_time,omitempty"`

	// Scheme runtime slots, encoded by each persisting scheme itself.
	Slots map[string][]byte `json:"slots,omitempty"`
}

// OfflineV1 records a suspended actor's last section. An empty
// LastSection means the actor was unbound when it left simulation.
type OfflineV1 struct {
	ActorID     string `json:"actor_id"`
	LastSection string `json:"last_section,omitempty"`
}

type JobV1 struct {
	ActorID string `json:"actor_id"`
	SiteID  string `json:"site_id"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is informational; the gob body carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

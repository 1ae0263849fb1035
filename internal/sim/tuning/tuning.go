package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	// Radius (in world units) around the focus point inside which actors
	// are simulated online. Beyond it they are suspended to offline state.
	SimRadius float64 `yaml:"sim_radius"`

	// How often each online actor re-evaluates its section's `active`
	// condlist for config-declared transitions.
	LogicEveryTicks int `yaml:"logic_every_ticks"`

	// How often online/offline membership is re-checked.
	SuspendEveryTicks int `yaml:"suspend_every_ticks"`

	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`

	// Seconds of game time per real second.
	GameTimeFactor float64 `yaml:"game_time_factor"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.ApplyDefaults()
	return t, nil
}

func Defaults() Tuning {
	var t Tuning
	t.ApplyDefaults()
	return t
}

func (t *Tuning) ApplyDefaults() {
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = "1.0"
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = 10
	}
	if t.SimRadius <= 0 {
		t.SimRadius = 150
	}
	if t.LogicEveryTicks <= 0 {
		t.LogicEveryTicks = 5
	}
	if t.SuspendEveryTicks <= 0 {
		t.SuspendEveryTicks = 20
	}
	if t.SnapshotEveryTicks <= 0 {
		t.SnapshotEveryTicks = 3000
	}
	if t.GameTimeFactor <= 0 {
		t.GameTimeFactor = 60
	}
}

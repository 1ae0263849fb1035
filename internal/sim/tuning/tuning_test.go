package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("tick_rate_hz: 20\nsim_radius: 75\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tune, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tune.TickRateHz != 20 {
		t.Fatalf("tick_rate_hz: got %d", tune.TickRateHz)
	}
	if tune.SimRadius != 75 {
		t.Fatalf("sim_radius: got %v", tune.SimRadius)
	}
	if tune.LogicEveryTicks <= 0 || tune.SnapshotEveryTicks <= 0 {
		t.Fatalf("defaults not applied: %+v", tune)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.TickRateHz <= 0 || d.SimRadius <= 0 || d.GameTimeFactor <= 0 {
		t.Fatalf("bad defaults: %+v", d)
	}
}

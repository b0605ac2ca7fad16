package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := []byte(`
tick_rate_hz: 30
pools:
  bullets: 64
collision:
  missile_radius: 9
explosions:
  max_speed: -1
`)
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := Defaults()
	if got.TickRateHz != 30 || got.Pools.Bullets != 64 || got.Collision.MissileRadius != 9 {
		t.Fatalf("overrides lost: %+v", got)
	}
	if got.Pools.Missiles != d.Pools.Missiles || got.MaxDt != d.MaxDt || got.Explosions.Fragments != 12 {
		t.Fatalf("defaults not filled: %+v", got)
	}
	if got.Explosions.MaxSpeed != d.Explosions.MaxSpeed {
		t.Fatalf("negative max speed kept: %v", got.Explosions.MaxSpeed)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	p := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(p, []byte("pools: [1, 2"), 0o644)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaultsAreNormalized(t *testing.T) {
	d := Defaults()
	n := d
	n.Normalize()
	if n != d {
		t.Fatalf("defaults changed by Normalize:\n%+v\n%+v", d, n)
	}
}

func TestDigestTracksValues(t *testing.T) {
	a := Defaults()
	b := Defaults()
	if a.Digest() != b.Digest() {
		t.Fatalf("equal tunings digest differently")
	}
	b.Pools.Bullets++
	if a.Digest() == b.Digest() {
		t.Fatalf("digest ignored pool change")
	}
}

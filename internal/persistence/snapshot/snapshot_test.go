package snapshot

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func sample() SnapshotV1 {
	return SnapshotV1{
		Header:     Header{Version: Version, MissionID: "valley_patrol", Tick: 120},
		Seed:       7742,
		TickRateHz: 60,
		MaxDt:      0.05,
		Clock:      2,
		RNGState:   99,
		Bounds:     BoundsV1{MinX: -10, MaxX: 10, MinZ: -10, MaxZ: 10, Ceiling: 50, WarningMargin: 2},
		OOBMaxTime: 10,
		OOB:        OOBV1{IsOOB: true, Timer: 1.5},
		Player:     PlayerV1{Health: 80, MaxHealth: 100, Pos: [3]float64{1, 2, 3}},
		Enemies:    []EnemyV1{{ID: 1, Health: 0, Destroyed: true, DestroyedTimer: 0.5}},
		Armory:     ArmoryV1{Slots: []SlotV1{{Slot: 0, WeaponID: "m61_cannon", Cooldown: 0.02}}, FireCooldown: 0.1},
		Bullets:    []ProjectileV1{{Slot: 3, Age: 0.2, MaxAge: 1.5, Damage: 8}},
		Explosions: []ExplosionV1{{Slot: 0, Age: 0.3, MaxAge: 1.8, Fragments: make([]FragmentV1, 12)}},
		Digest:     "abc",
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snapshots", "120.snap.zst")
	in := sample()
	if err := WriteSnapshot(p, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ReadSnapshot(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", in, out)
	}
	h, err := ReadHeader(p)
	if err != nil || h.Tick != 120 || h.MissionID != "valley_patrol" {
		t.Fatalf("header: %+v %v", h, err)
	}
}

func TestReadSnapshot_RejectsUnknownVersion(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.snap.zst")
	s := sample()
	s.Header.Version = 99
	if err := WriteSnapshot(p, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(p); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestReadSnapshot_Garbage(t *testing.T) {
	p := filepath.Join(t.TempDir(), "g.snap.zst")
	f, _ := os.Create(p)
	enc, _ := zstd.NewWriter(f)
	_, _ = enc.Write([]byte("{\"version\":1}\nnot gob"))
	_ = enc.Close()
	_ = f.Close()
	if _, err := ReadSnapshot(p); err == nil {
		t.Fatalf("expected decode error")
	}
}

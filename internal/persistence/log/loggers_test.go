package log

import (
	"path/filepath"
	"testing"
	"time"

	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/kernel/model"
)

func TestJSONLZstdWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "ticks")
	now := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	if err := w.Write(world.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if err := w.Write(world.TickLogEntry{Tick: 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(dir, "ticks")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files=%v want 2", files)
	}
	if filepath.Base(files[0]) != "ticks-2026-03-01-10.jsonl.zst" {
		t.Fatalf("first file=%s", filepath.Base(files[0]))
	}
}

func TestTickLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewTickLogger(dir)
	pose := model.Pose{Pos: model.Vec3{1, 2, 3}, Forward: model.Vec3{0, 0, -1}}
	in := model.Input{
		Player:  &pose,
		FireGun: true,
		Enemies: []model.EnemyIntent{{ID: 4, FireMissile: true}},
	}
	for i := uint64(0); i < 3; i++ {
		if err := l.WriteTick(world.TickLogEntry{Tick: i, Dt: 0.05, Input: in, Digest: "d"}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, err := ListFiles(filepath.Join(dir, "ticks"), "ticks")
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	var got []world.TickLogEntry
	if err := ScanTicks(files[0], func(e world.TickLogEntry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("entries=%d want 3", len(got))
	}
	e := got[2]
	if e.Tick != 2 || e.Dt != 0.05 || e.Input.Player == nil || e.Input.Player.Pos != pose.Pos {
		t.Fatalf("entry=%+v", e)
	}
	if len(e.Input.Enemies) != 1 || !e.Input.Enemies[0].FireMissile {
		t.Fatalf("enemy intents=%+v", e.Input.Enemies)
	}
}

func TestEventLogger_StopEarly(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	for i := 0; i < 5; i++ {
		ev := model.Event{Tick: uint64(i), Type: model.EventEnemyHit, EntityID: 3, Weapon: "BULLET", Damage: 8}
		if err := l.WriteEvent(ev); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, _ := ListFiles(filepath.Join(dir, "events"), "events")
	if len(files) != 1 {
		t.Fatalf("files=%v", files)
	}
	n := 0
	err := ScanEvents(files[0], func(e model.Event) error {
		if e.Type != model.EventEnemyHit || e.Damage != 8 {
			t.Fatalf("event=%+v", e)
		}
		n++
		if n == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

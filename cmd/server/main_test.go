package main

import (
	"os"
	"path/filepath"
	"testing"

	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/kernel/model"
)

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("empty dir: %q", got)
	}
	snapDir := filepath.Join(dir, "snapshots")
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"99.snap.zst", "1200.snap.zst", "300.snap.zst", "notes.txt", "x.snap.zst"} {
		if err := os.WriteFile(filepath.Join(snapDir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got, want := latestSnapshot(dir), snapshotPath(dir, 1200); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

type recordingLogger struct {
	ticks  []uint64
	events []model.EventType
}

func (r *recordingLogger) WriteTick(e world.TickLogEntry) error {
	r.ticks = append(r.ticks, e.Tick)
	return nil
}

func (r *recordingLogger) WriteEvent(e model.Event) error {
	r.events = append(r.events, e.Type)
	return nil
}

func TestMultiLoggersFanOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	tl := multiTickLogger{a: a, b: b}
	_ = tl.WriteTick(world.TickLogEntry{Tick: 7})
	el := multiEventLogger{a: a, b: indexOrNil(nil)}
	_ = el.WriteEvent(model.Event{Type: model.EventEnemyHit})

	if len(a.ticks) != 1 || len(b.ticks) != 1 || a.ticks[0] != 7 {
		t.Fatalf("ticks a=%v b=%v", a.ticks, b.ticks)
	}
	if len(a.events) != 1 || len(b.events) != 0 {
		t.Fatalf("events a=%v b=%v", a.events, b.events)
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("SKYDUEL_TEST_FLAG", "false")
	if envBool("SKYDUEL_TEST_FLAG", true) {
		t.Fatalf("expected false")
	}
	t.Setenv("SKYDUEL_TEST_FLAG", "junk")
	if !envBool("SKYDUEL_TEST_FLAG", true) {
		t.Fatalf("junk should fall back to default")
	}
}

package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"skyduel.io/internal/persistence/snapshot"
)

func writeSnap(t *testing.T, dir string, snap snapshot.SnapshotV1) string {
	t.Helper()
	path := filepath.Join(dir, "snapshots", "120.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestOutcome(t *testing.T) {
	snap := snapshot.SnapshotV1{Enemies: []snapshot.EnemyV1{{ID: 1, Destroyed: true}, {ID: 2}}}
	if got := Outcome(snap); got != "" {
		t.Fatalf("in progress: got %q", got)
	}
	snap.Enemies[1].Destroyed = true
	if got := Outcome(snap); got != OutcomeVictory {
		t.Fatalf("all down: got %q", got)
	}
	snap.Player.IsDead = true
	if got := Outcome(snap); got != OutcomeDefeat {
		t.Fatalf("player dead: got %q", got)
	}
	if got := Outcome(snapshot.SnapshotV1{}); got != "" {
		t.Fatalf("no enemies: got %q", got)
	}
}

func TestArchiveOutcome_VictoryOnce(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: snapshot.Version, MissionID: "m1", Tick: 120},
		Seed:    7,
		Player:  snapshot.PlayerV1{Health: 40},
		Enemies: []snapshot.EnemyV1{{ID: 1, Destroyed: true}, {ID: 2, Destroyed: true}},
	}
	path := writeSnap(t, dir, snap)

	outcome, archived, ok, err := ArchiveOutcome(dir, path, snap)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !ok || outcome != OutcomeVictory {
		t.Fatalf("ok=%v outcome=%q", ok, outcome)
	}
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("archived snapshot: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "archives", OutcomeVictory, "meta.json"))
	if err != nil {
		t.Fatalf("meta: %v", err)
	}
	var meta OutcomeMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		t.Fatalf("meta decode: %v", err)
	}
	if meta.MissionID != "m1" || meta.EndTick != 120 || meta.Kills != 2 || meta.Seed != 7 || meta.Health != 40 {
		t.Fatalf("meta=%+v", meta)
	}

	// A later terminal snapshot does not replace the first one.
	snap.Header.Tick = 140
	_, _, ok, err = ArchiveOutcome(dir, path, snap)
	if err != nil || ok {
		t.Fatalf("second archive: ok=%v err=%v", ok, err)
	}
}

func TestArchiveOutcome_SkipsInProgress(t *testing.T) {
	dir := t.TempDir()
	snap := snapshot.SnapshotV1{
		Header:  snapshot.Header{Version: snapshot.Version, MissionID: "m1", Tick: 60},
		Enemies: []snapshot.EnemyV1{{ID: 1}},
	}
	path := writeSnap(t, dir, snap)
	_, _, ok, err := ArchiveOutcome(dir, path, snap)
	if err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "archives")); !os.IsNotExist(err) {
		t.Fatalf("archives dir created: %v", err)
	}
}

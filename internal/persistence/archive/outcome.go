// Package archive keeps the first snapshot in which a mission's outcome is
// decided, next to a small meta.json.
package archive

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"skyduel.io/internal/persistence/snapshot"
)

const (
	OutcomeVictory = "victory"
	OutcomeDefeat  = "defeat"
)

type OutcomeMeta struct {
	MissionID string  `json:"mission_id"`
	Outcome   string  `json:"outcome"`
	EndTick   uint64  `json:"end_tick"`
	Clock     float64 `json:"clock"`
	Seed      int64   `json:"seed"`
	Snapshot  string  `json:"snapshot"`
	CreatedAt string  `json:"created_at"`
	Kills     int     `json:"kills"`
	Health    float64 `json:"player_health"`
}

// Outcome reports how the mission in snap ended, or "" while it is still
// being fought. A dead player is a defeat even if every enemy is down.
func Outcome(snap snapshot.SnapshotV1) string {
	if snap.Player.IsDead {
		return OutcomeDefeat
	}
	if len(snap.Enemies) == 0 {
		return ""
	}
	for _, e := range snap.Enemies {
		if !e.Destroyed {
			return ""
		}
	}
	return OutcomeVictory
}

// ArchiveOutcome copies a snapshot whose outcome is decided into
// `missionDir/archives/<outcome>/`. Only the first such snapshot per outcome
// is kept; later calls return archived=false.
func ArchiveOutcome(missionDir, snapshotPath string, snap snapshot.SnapshotV1) (outcome, archivedPath string, archived bool, err error) {
	outcome = Outcome(snap)
	if outcome == "" {
		return "", "", false, nil
	}

	archiveDir := filepath.Join(missionDir, "archives", outcome)
	metaPath := filepath.Join(archiveDir, "meta.json")
	if _, err := os.Stat(metaPath); err == nil {
		return outcome, "", false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", false, err
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", "", false, err
	}

	kills := 0
	for _, e := range snap.Enemies {
		if e.Destroyed {
			kills++
		}
	}
	meta := OutcomeMeta{
		MissionID: snap.Header.MissionID,
		Outcome:   outcome,
		EndTick:   snap.Header.Tick,
		Clock:     snap.Clock,
		Seed:      snap.Seed,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Kills:     kills,
		Health:    snap.Player.Health,
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", "", false, err
	}
	if err := os.WriteFile(metaPath, b, 0o644); err != nil {
		return "", "", false, err
	}
	return outcome, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

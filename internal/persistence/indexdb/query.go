package indexdb

import (
	"context"
	"database/sql"
	"errors"

	"skyduel.io/internal/sim/world/kernel/model"
)

// KillsPerMission counts enemy destroyed events by mission.
func (s *SQLiteIndex) KillsPerMission(ctx context.Context) (map[string]int, error) {
	return KillsPerMission(ctx, s.db)
}

func KillsPerMission(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT mission_id, COUNT(*) FROM combat_events WHERE type=? GROUP BY mission_id`,
		model.EventEnemyDestroyed.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// EventCounts counts a mission's combat events by type name.
func (s *SQLiteIndex) EventCounts(ctx context.Context, missionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM combat_events WHERE mission_id=? GROUP BY type`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}

// LatestSnapshot returns the path and tick of the newest indexed snapshot for
// a mission. ok is false when none exists.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context, missionID string) (path string, tick uint64, ok bool, err error) {
	var t int64
	err = s.db.QueryRowContext(ctx,
		`SELECT path, tick FROM snapshots WHERE mission_id=? ORDER BY tick DESC LIMIT 1`, missionID).Scan(&path, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return path, uint64(t), true, nil
}

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"skyduel.io/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	missionID := fs.String("mission", "", "mission id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*missionID) == "" {
			fmt.Fprintln(os.Stderr, "missing -mission or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "missions", *missionID, "index", "mission.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *limit <= 0 {
		*limit = 20
	}
	switch q {
	case "snapshots":
		rows, err := querySnapshots(ctx, db, *missionID, *limit)
		if err != nil {
			logger.Fatal().Err(err).Msg("query snapshots")
		}
		for _, r := range rows {
			printJSON(r)
		}

	case "kills":
		kills, err := indexdb.KillsPerMission(ctx, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("query kills")
		}
		ids := make([]string, 0, len(kills))
		for id := range kills {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			printJSON(map[string]any{"mission_id": id, "kills": kills[id]})
		}

	case "ticks":
		rows, err := db.QueryContext(ctx,
			`SELECT mission_id,tick,dt,digest,fire_gun,fire_missile,enemy_intents FROM ticks ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			logger.Fatal().Err(err).Msg("query ticks")
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				MissionID    string  `json:"mission_id"`
				Tick         int64   `json:"tick"`
				Dt           float64 `json:"dt"`
				Digest       string  `json:"digest"`
				FireGun      bool    `json:"fire_gun"`
				FireMissile  bool    `json:"fire_missile"`
				EnemyIntents int     `json:"enemy_intents"`
			}
			if err := rows.Scan(&r.MissionID, &r.Tick, &r.Dt, &r.Digest, &r.FireGun, &r.FireMissile, &r.EnemyIntents); err != nil {
				logger.Fatal().Err(err).Msg("scan")
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			logger.Fatal().Err(err).Msg("rows")
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(snapshots, kills, ticks)")
		os.Exit(2)
	}
}

type snapshotRow struct {
	MissionID  string `json:"mission_id"`
	Tick       int64  `json:"tick"`
	Path       string `json:"path"`
	Seed       int64  `json:"seed"`
	Enemies    int    `json:"enemies"`
	Bullets    int    `json:"bullets"`
	Missiles   int    `json:"missiles"`
	Explosions int    `json:"explosions"`
	Digest     string `json:"digest"`
}

// querySnapshots lists the newest indexed snapshots, optionally for one
// mission only.
func querySnapshots(ctx context.Context, db *sql.DB, missionID string, limit int) ([]snapshotRow, error) {
	query := `SELECT mission_id,tick,path,seed,enemies,bullets,missiles,explosions,digest FROM snapshots`
	args := []any{}
	if missionID != "" {
		query += ` WHERE mission_id=?`
		args = append(args, missionID)
	}
	query += ` ORDER BY tick DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []snapshotRow
	for rows.Next() {
		var r snapshotRow
		if err := rows.Scan(&r.MissionID, &r.Tick, &r.Path, &r.Seed, &r.Enemies, &r.Bullets, &r.Missiles, &r.Explosions, &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

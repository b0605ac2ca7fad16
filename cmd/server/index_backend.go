package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"skyduel.io/internal/persistence/indexdb"
)

// openRuntimeIndex opens the read-model index for a mission directory. The
// index never feeds back into the simulation.
func openRuntimeIndex(missionDir string, disableDB bool, logger zerolog.Logger) (*indexdb.SQLiteIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SKYDUEL_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		logger.Info().Msg("index backend disabled")
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(missionDir, "index", "mission.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported SKYDUEL_INDEX_BACKEND: %s", backend)
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"skyduel.io/internal/logging"
	persistlog "skyduel.io/internal/persistence/log"
	"skyduel.io/internal/sim/world/kernel/model"
)

var logger = logging.New("admin", logging.Options{Console: true, Level: "warn"})

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "events":
			eventsCmd(os.Args[2:])
			return
		case "bootstrap":
			bootstrapCmd(os.Args[2:])
			return
		case "tile":
			tileCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	entries, err := os.ReadDir(filepath.Join(*dataDir, "missions"))
	if err != nil {
		logger.Fatal().Err(err).Msg("read")
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Println(e.Name())
		}
	}
}

// eventsCmd prints a mission's logged combat events as JSON lines.
func eventsCmd(args []string) {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	missionID := fs.String("mission", "", "mission id")
	typ := fs.String("type", "", "only this event type, e.g. ENEMY_DESTROYED (optional)")
	sinceTick := fs.Uint64("since_tick", 0, "skip events before tick")
	limit := fs.Int("limit", 0, "stop after this many events (0 = all)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*missionID) == "" {
		fmt.Fprintln(os.Stderr, "missing -mission")
		os.Exit(2)
	}
	var want model.EventType
	if *typ != "" {
		if err := want.UnmarshalText([]byte(strings.ToUpper(*typ))); err != nil {
			logger.Fatal().Err(err).Msg("bad -type")
		}
	}

	dir := filepath.Join(*dataDir, "missions", *missionID, "events")
	files, err := persistlog.ListFiles(dir, "events")
	if err != nil {
		logger.Fatal().Err(err).Msg("list events")
	}
	n, err := printEvents(files, want, *sinceTick, *limit, func(e model.Event) { printJSON(e) })
	if err != nil {
		logger.Fatal().Err(err).Msg("scan events")
	}
	logger.Info().Int("events", n).Msg("done")
}

// printEvents feeds matching events from files to emit and returns how
// many it emitted.
func printEvents(files []string, want model.EventType, sinceTick uint64, limit int, emit func(model.Event)) (int, error) {
	n := 0
	for _, path := range files {
		err := persistlog.ScanEvents(path, func(e model.Event) error {
			if e.Tick < sinceTick || (want != 0 && e.Type != want) {
				return nil
			}
			emit(e)
			n++
			if limit > 0 && n >= limit {
				return persistlog.ErrStop
			}
			return nil
		})
		if err != nil {
			return n, err
		}
		if limit > 0 && n >= limit {
			break
		}
	}
	return n, nil
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msg("marshal")
		return
	}
	fmt.Println(string(b))
}

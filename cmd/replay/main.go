package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"skyduel.io/internal/logging"
	persistlog "skyduel.io/internal/persistence/log"
	"skyduel.io/internal/persistence/snapshot"
	"skyduel.io/internal/sim/catalogs"
	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/tuning"
	"skyduel.io/internal/sim/world"
)

func main() {
	var (
		snapPath     = flag.String("snapshot", "", "path to .snap.zst")
		ticksDir     = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (default: ticks/ next to the snapshots/ dir)")
		configDir    = flag.String("configs", "./configs", "config directory")
		missionsPath = flag.String("missions", "", "path to missions.yaml (default: <configs>/missions.yaml)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		fromTick     = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick       = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		headerOnly   = flag.Bool("header", false, "print the snapshot summary and exit")
	)
	flag.Parse()

	logger := logging.New("replay", logging.Options{Console: true})

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read snapshot")
	}
	logger.Info().
		Int("version", snap.Header.Version).
		Str("mission", snap.Header.MissionID).
		Uint64("tick", snap.Header.Tick).
		Int64("seed", snap.Seed).
		Int("enemies", len(snap.Enemies)).
		Int("bullets", len(snap.Bullets)).
		Int("missiles", len(snap.Missiles)).
		Int("explosions", len(snap.Explosions)).
		Msg("snapshot")
	if *headerOnly {
		return
	}

	mp := *missionsPath
	if mp == "" {
		mp = filepath.Join(*configDir, "missions.yaml")
	}
	mcfg, err := missions.Load(mp)
	if err != nil {
		logger.Fatal().Err(err).Msg("load missions")
	}
	spec, err := mcfg.MissionByID(snap.Header.MissionID)
	if err != nil {
		logger.Fatal().Err(err).Msg("snapshot mission")
	}
	tp := *tuningPath
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal().Err(err).Msg("load tuning")
		}
		tune = tuning.Defaults()
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogs")
	}

	w, err := world.New(world.ConfigFor(tune, spec), cats)
	if err != nil {
		logger.Fatal().Err(err).Msg("world")
	}
	if err := w.ImportSnapshot(snap); err != nil {
		logger.Fatal().Err(err).Msg("import snapshot")
	}

	dir := *ticksDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(filepath.Dir(*snapPath)), "ticks")
	}
	files, err := persistlog.ListFiles(dir, "ticks")
	if err != nil {
		logger.Fatal().Err(err).Msg("list tick logs")
	}
	if len(files) == 0 {
		logger.Fatal().Str("dir", dir).Msg("no tick logs found")
	}

	checked, err := replay(w, files, *fromTick, *toTick)
	if err != nil {
		logger.Fatal().Err(err).Uint64("checked", checked).Msg("replay")
	}
	logger.Info().Uint64("checked", checked).Uint64("from", snap.Header.Tick).Uint64("to", w.CurrentTick()).Msg("replay ok")
}

var errDone = errors.New("replay done")

// replay steps w through every logged tick at or after its current tick and
// compares each post-step digest with the logged one. Ticks before
// verifyFrom are stepped but not counted. It stops after toTick when set.
func replay(w *world.World, files []string, verifyFrom, toTick uint64) (uint64, error) {
	startTick := w.CurrentTick()
	var checked uint64
	step := func(entry world.TickLogEntry) error {
		if entry.Tick < startTick {
			return nil
		}
		if toTick != 0 && entry.Tick > toTick {
			return errDone
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick gap: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, got := w.StepOnce(entry.Dt, entry.Input)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, entry.Tick)
		}
		if tick >= verifyFrom {
			checked++
			if got != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, entry.Digest)
			}
		}
		return nil
	}

	for _, path := range files {
		err := persistlog.ScanTicks(path, step)
		if errors.Is(err, errDone) {
			break
		}
		if err != nil {
			return checked, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	}
	return checked, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"skyduel.io/internal/logging"
	"skyduel.io/internal/persistence/archive"
	"skyduel.io/internal/persistence/indexdb"
	persistlog "skyduel.io/internal/persistence/log"
	"skyduel.io/internal/persistence/snapshot"
	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/catalogs"
	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/script"
	"skyduel.io/internal/sim/tuning"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/telemetry"
	"skyduel.io/internal/transport/observer"
	"skyduel.io/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		missionID    = flag.String("mission", "", "mission id (default: default_mission_id from the missions file)")
		configDir    = flag.String("configs", "./configs", "config directory")
		missionsPath = flag.String("missions", "", "path to missions.yaml (default: <configs>/missions.yaml)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		disableDB    = flag.Bool("disable_db", false, "disable indexing (ticks, combat events, snapshot metadata)")
		noScript     = flag.Bool("no_script", false, "do not fly the scripted enemy wing")
		logLevel     = flag.String("log_level", "info", "trace, debug, info, warn or error")
		logConsole   = flag.Bool("log_console", false, "human-readable log output")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", false, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := logging.New("server", logging.Options{Level: *logLevel, Console: *logConsole})

	mp := strings.TrimSpace(*missionsPath)
	if mp == "" {
		mp = filepath.Join(*configDir, "missions.yaml")
	}
	mcfg, err := missions.Load(mp)
	if err != nil {
		logger.Fatal().Err(err).Msg("load missions")
	}
	spec, err := mcfg.MissionByID(*missionID)
	if err != nil {
		logger.Fatal().Err(err).Strs("known", mcfg.IDs()).Msg("select mission")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal().Err(err).Msg("load tuning")
		}
		logger.Warn().Str("path", tp).Msg("tuning not found; using defaults")
		tune = tuning.Defaults()
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogs")
	}
	for _, r := range cats.Rejected() {
		logger.Warn().Str("entry", r.String()).Msg("catalog entry rejected")
	}

	missionDir := filepath.Join(*dataDir, "missions", spec.ID)
	if err := os.MkdirAll(missionDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create mission dir")
	}

	// Optional read model; never affects simulation determinism.
	idx, err := openRuntimeIndex(missionDir, *disableDB, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open index backend")
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertMissions(mcfg); err != nil {
			logger.Error().Err(err).Msg("index backend: upsert missions")
		}
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Error().Err(err).Msg("index backend: upsert catalogs")
		}
	}

	w, err := world.New(world.ConfigFor(tune, spec), cats)
	if err != nil {
		logger.Fatal().Err(err).Msg("world")
	}

	var wing *script.Wing
	if !*noScript {
		wing = script.NewWing(spec.Enemies)
		w.SetDriver(wing)
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(missionDir)
	}
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatal().Err(err).Msg("read snapshot")
		}
		if err := w.ImportSnapshot(snap); err != nil {
			logger.Fatal().Err(err).Str("path", snapshotToLoad).Msg("import snapshot")
		}
		if wing != nil {
			wing.SetClock(snap.Clock)
		}
		logger.Info().Str("snapshot", filepath.Base(snapshotToLoad)).Uint64("tick", w.CurrentTick()).Msg("resumed")
	}

	prom, err := telemetry.NewPrometheus("skyduel-server", spec.ID)
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry")
	}
	metrics, err := telemetry.NewCombat(prom.MeterProvider())
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry")
	}
	w.SetMetrics(metrics)

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(missionDir)
	eventLog := persistlog.NewEventLogger(missionDir)
	defer tickLog.Close()
	defer eventLog.Close()
	var mi *indexdb.MissionIndex
	if idx != nil {
		mi = idx.Mission(spec.ID)
	}
	w.SetTickLogger(multiTickLogger{a: tickLog, b: indexOrNil(mi)})
	w.SetEventLogger(multiEventLogger{a: eventLog, b: indexOrNil(mi)})

	// Snapshot writer.
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)
	go runSnapshotWriter(ctx, missionDir, snapCh, mi, logger)

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("world stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	if err := telemetry.RegisterRuntime(prom.MeterProvider(), func() telemetry.RuntimeStats {
		return runtimeStats(w, idx)
	}); err != nil {
		logger.Fatal().Err(err).Msg("telemetry runtime")
	}
	mux.Handle("/metrics", prom.Handler())

	if envBool("SKYDUEL_ENABLE_OBSERVER_HTTP", defaultEnableObserverHTTP()) {
		observer.NewServer(w, logger).Register(mux)
	} else {
		logger.Info().Msg("observer endpoints disabled (SKYDUEL_ENABLE_OBSERVER_HTTP=false)")
	}
	if envBool("SKYDUEL_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	digests := protocol.CatalogDigests{
		WeaponsDigest:  cats.Weapons.Digest,
		AircraftDigest: cats.Aircraft.Digest,
		TuningDigest:   tune.Digest(),
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(w, digests, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info().Str("addr", *addr).Str("mission", spec.ID).Int64("seed", spec.Seed).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("ListenAndServe")
	}
	<-worldDone
	ctxm, cancelm := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelm()
	if err := prom.Shutdown(ctxm); err != nil {
		logger.Warn().Err(err).Msg("telemetry shutdown")
	}
	if idx != nil {
		ctx3, cancel3 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel3()
		if err := idx.Sync(ctx3); err != nil {
			logger.Warn().Err(err).Msg("index sync on shutdown")
		}
	}
}

func runSnapshotWriter(ctx context.Context, missionDir string, ch <-chan snapshot.SnapshotV1, mi *indexdb.MissionIndex, logger zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-ch:
			path := snapshotPath(missionDir, snap.Header.Tick)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Error().Err(err).Uint64("tick", snap.Header.Tick).Msg("snapshot write")
				continue
			}
			if mi != nil {
				mi.RecordSnapshot(path, snap)
			}
			logger.Debug().Str("path", path).Msg("snapshot written")

			outcome, archived, ok, err := archive.ArchiveOutcome(missionDir, path, snap)
			if err != nil {
				logger.Warn().Err(err).Uint64("tick", snap.Header.Tick).Msg("archive outcome")
			} else if ok {
				logger.Info().Str("outcome", outcome).Str("path", archived).Uint64("tick", snap.Header.Tick).Msg("mission outcome archived")
			}
		}
	}
}

func runtimeStats(w *world.World, idx *indexdb.SQLiteIndex) telemetry.RuntimeStats {
	rs := telemetry.RuntimeStats{Tick: w.CurrentTick()}
	if idx == nil {
		return rs
	}
	s := idx.Stats()
	rs.HasIndexStats = true
	rs.IndexQueue = s.QueueDepth
	rs.IndexDropped = map[string]uint64{
		"tick":     s.DropTickTotal,
		"event":    s.DropEventTotal,
		"snapshot": s.DropSnapshotTotal,
	}
	return rs
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func snapshotPath(missionDir string, tick uint64) string {
	return filepath.Join(missionDir, "snapshots", fmt.Sprintf("%d.snap.zst", tick))
}

func latestSnapshot(missionDir string) string {
	dir := filepath.Join(missionDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".snap.zst") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".snap.zst"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func defaultEnableObserverHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// indexOrNil avoids storing a typed nil pointer in the logger interfaces.
func indexOrNil(mi *indexdb.MissionIndex) interface {
	world.TickLogger
	world.EventLogger
} {
	if mi == nil {
		return nil
	}
	return mi
}

type multiTickLogger struct {
	a world.TickLogger
	b world.TickLogger
}

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiEventLogger struct {
	a world.EventLogger
	b world.EventLogger
}

func (m multiEventLogger) WriteEvent(e model.Event) error {
	if m.a != nil {
		_ = m.a.WriteEvent(e)
	}
	if m.b != nil {
		_ = m.b.WriteEvent(e)
	}
	return nil
}

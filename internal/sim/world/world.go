package world

import (
	"fmt"
	"math"
	"sync/atomic"

	"skyduel.io/internal/persistence/snapshot"
	"skyduel.io/internal/sim/catalogs"
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/combat/collision"
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
	"skyduel.io/internal/sim/world/terrain/gen"
	"skyduel.io/internal/sim/world/terrain/noise"
	"skyduel.io/internal/sim/world/terrain/store"
	"skyduel.io/internal/telemetry"
)

// explosionSeedSalt separates the fragment RNG stream from the terrain seed.
const explosionSeedSalt = 0x9e3779b9

type loadout struct {
	gun     projectile.WeaponSpec
	missile projectile.WeaponSpec
}

// World is the single-threaded authoritative combat simulation.
// All state must be accessed only from the world loop goroutine, or before
// Run starts.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick  atomic.Uint64
	clock float64

	sampler *gen.Sampler
	tiles   *store.TileStore

	bullets    *projectile.Pool
	missiles   *projectile.Pool
	armory     *projectile.Armory
	explosions *explosion.Pool
	rng        *noise.RNG
	resolver   *collision.Resolver
	enforcer   *bounds.Enforcer

	player   model.Player
	enemies  []model.Enemy
	loadouts map[int]loadout

	driver Driver

	inputs        chan model.Input
	observerJoin  chan ObserverJoinRequest
	observerLeave chan string
	stop          chan struct{}
	observers     map[string]*observerClient

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	tickLogger   TickLogger
	eventLogger  EventLogger
	snapshotSink chan<- snapshot.SnapshotV1
	metrics      *telemetry.Combat

	// scratch event buffer reused across ticks
	events []model.Event
}

// Driver supplies enemy intents each tick when no external AI does.
type Driver interface {
	Plan(dt float64, player *model.Player, enemies []model.Enemy) []model.EnemyIntent
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type EventLogger interface {
	WriteEvent(e model.Event) error
}

// TickLogEntry is everything needed to replay one tick.
type TickLogEntry struct {
	Tick   uint64      `json:"tick"`
	Dt     float64     `json:"dt"`
	Input  model.Input `json:"input"`
	Digest string      `json:"digest"`
}

func New(cfg WorldConfig, cats *catalogs.Catalogs) (*World, error) {
	cfg.applyDefaults()
	seed, err := gen.CoerceSeed(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("world seed: %w", err)
	}
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if cats == nil {
		cats = catalogs.Empty()
	}

	sampler := gen.NewSampler(seed)
	rng := noise.NewRNG(seed ^ explosionSeedSalt)
	expCfg := cfg.Explosions

	w := &World{
		cfg:           cfg,
		catalogs:      cats,
		sampler:       sampler,
		tiles:         store.NewTileStore(sampler, float64(cfg.TileStep), cfg.MaxTiles),
		bullets:       projectile.NewPool(projectile.KindBullet, cfg.BulletCap, cfg.BulletMaxAge),
		missiles:      projectile.NewPool(projectile.KindMissile, cfg.MissileCap, cfg.MissileMaxAge),
		explosions:    explosion.NewPool(expCfg, rng),
		rng:           rng,
		resolver:      collision.NewResolver(cfg.Collision),
		enforcer:      bounds.NewEnforcer(cfg.Bounds, cfg.OOBMaxTime),
		loadouts:      map[int]loadout{},
		inputs:        make(chan model.Input, 256),
		observerJoin:  make(chan ObserverJoinRequest, 64),
		observerLeave: make(chan string, 64),
		stop:          make(chan struct{}),
		observers:     map[string]*observerClient{},
	}

	air, _ := cats.Aircraft.Aircraft(cfg.Player.Aircraft)
	w.player = model.Player{Combatant: model.Combatant{
		ID:              model.PlayerOwner,
		Aircraft:        air.ID,
		Health:          air.MaxHealth,
		MaxHealth:       air.MaxHealth,
		Pos:             cfg.Player.Spawn,
		Forward:         mathx.NormalizeOrZero(cfg.Player.Forward),
		CollisionRadius: air.CollisionRadius,
	}}
	w.armory = projectile.NewArmory(air.Gun, air.Pylons, cfg.LauncherGap, cats.Weapons.Lookup)

	seen := map[int]bool{}
	for _, ec := range cfg.Enemies {
		if ec.ID == model.PlayerOwner || seen[ec.ID] {
			return nil, fmt.Errorf("invalid or duplicate enemy id %d", ec.ID)
		}
		seen[ec.ID] = true
		ea, _ := cats.Aircraft.Aircraft(ec.Aircraft)
		w.enemies = append(w.enemies, model.Enemy{Combatant: model.Combatant{
			ID:              ec.ID,
			Aircraft:        ea.ID,
			Health:          ea.MaxHealth,
			MaxHealth:       ea.MaxHealth,
			Pos:             ec.Spawn,
			Forward:         mathx.NormalizeOrZero(ec.Forward),
			CollisionRadius: ea.CollisionRadius,
		}})
		w.loadouts[ec.ID] = w.loadoutFor(ea)
	}
	return w, nil
}

func (w *World) loadoutFor(a catalogs.AircraftDef) loadout {
	l := loadout{gun: projectile.DefaultGun, missile: projectile.DefaultMissile}
	if g, ok := w.catalogs.Weapons.Lookup(a.Gun); ok && g.Type == projectile.WeaponGun {
		l.gun = g.Sanitize(projectile.DefaultGun)
	}
	for _, id := range a.Pylons {
		if m, ok := w.catalogs.Weapons.Lookup(id); ok && m.Type == projectile.WeaponMissile {
			l.missile = m.Sanitize(projectile.DefaultMissile)
			break
		}
	}
	return l
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetEventLogger(l EventLogger)                  { w.eventLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }
func (w *World) SetMetrics(m *telemetry.Combat)                { w.metrics = m }
func (w *World) SetDriver(d Driver)                            { w.driver = d }

func (w *World) Inputs() chan<- model.Input               { return w.inputs }
func (w *World) ObserverJoin() chan<- ObserverJoinRequest { return w.observerJoin }
func (w *World) ObserverLeave() chan<- string             { return w.observerLeave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) MissionID() string {
	if w == nil {
		return ""
	}
	return w.cfg.MissionID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) Config() WorldConfig { return w.cfg }

// Terrain is safe to query from any goroutine.
func (w *World) Terrain() *gen.Sampler { return w.sampler }

// Tiles is the heightmap tile cache over Terrain. Safe for concurrent use.
func (w *World) Tiles() *store.TileStore { return w.tiles }

func (w *World) HeightAt(x, z float64) float64        { return w.sampler.HeightAt(x, z) }
func (w *World) IsWaterAt(x, z float64) bool          { return w.sampler.IsWaterAt(x, z) }
func (w *World) ForestDensityAt(x, z float64) float64 { return w.sampler.ForestDensityAt(x, z) }
func (w *World) FieldVarietyAt(x, z float64) float64  { return w.sampler.FieldVarietyAt(x, z) }
func (w *World) MicroDetailAt(x, z float64) float64   { return w.sampler.MicroDetailAt(x, z) }

// Reseed swaps the terrain seed. It must not run concurrently with a step.
func (w *World) Reseed(seed int64) error {
	s, err := gen.CoerceSeed(seed)
	if err != nil {
		return err
	}
	w.cfg.Seed = seed
	w.sampler.SetSeed(s)
	return nil
}

// Player returns a copy of the player state.
func (w *World) Player() model.Player { return w.player }

// Enemies returns a copy of the enemy states in collision order.
func (w *World) Enemies() []model.Enemy { return append([]model.Enemy(nil), w.enemies...) }

func (w *World) OOB() bounds.State { return w.enforcer.State() }

func headingForward(deg float64) model.Vec3 {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	return model.Vec3{sin, 0, -cos}
}

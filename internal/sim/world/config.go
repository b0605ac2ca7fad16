package world

import (
	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/tuning"
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/combat/collision"
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/kernel/model"
)

type WorldConfig struct {
	MissionID  string
	Seed       int64
	TickRateHz int

	// MaxDt bounds every step's delta.
	MaxDt float64

	SnapshotEveryTicks int

	BulletCap     int
	MissileCap    int
	BulletMaxAge  float64
	MissileMaxAge float64
	LauncherGap   float64

	Collision  collision.Config
	Explosions explosion.Config

	Bounds     bounds.Bounds
	OOBMaxTime float64

	// TerrainCrash kills the player on contact with the ground.
	TerrainCrash bool
	TileStep     int
	MaxTiles     int

	Player  PlayerConfig
	Enemies []EnemyConfig
}

type PlayerConfig struct {
	Aircraft string
	Spawn    model.Vec3
	Forward  model.Vec3
}

type EnemyConfig struct {
	ID       int
	Aircraft string
	Spawn    model.Vec3
	Forward  model.Vec3
}

func (c *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if !(c.MaxDt > 0) {
		c.MaxDt = d.MaxDt
	}
	if c.SnapshotEveryTicks <= 0 {
		c.SnapshotEveryTicks = d.SnapshotEveryTicks
	}
	if c.BulletCap <= 0 {
		c.BulletCap = d.Pools.Bullets
	}
	if c.MissileCap <= 0 {
		c.MissileCap = d.Pools.Missiles
	}
	if c.BulletMaxAge <= 0 {
		c.BulletMaxAge = d.Weapons.BulletMaxAge
	}
	if c.MissileMaxAge <= 0 {
		c.MissileMaxAge = d.Weapons.MissileMaxAge
	}
	if c.LauncherGap <= 0 {
		c.LauncherGap = d.Weapons.LauncherGap
	}
	if c.OOBMaxTime <= 0 {
		c.OOBMaxTime = bounds.DefaultOOBMaxTime
	}
	if c.TileStep <= 0 {
		c.TileStep = d.Terrain.TileStep
	}
	if c.MaxTiles <= 0 {
		c.MaxTiles = d.Terrain.MaxTiles
	}
	if c.Player.Forward == (model.Vec3{}) {
		c.Player.Forward = model.Vec3{0, 0, -1}
	}
	for i := range c.Enemies {
		if c.Enemies[i].Forward == (model.Vec3{}) {
			c.Enemies[i].Forward = model.Vec3{0, 0, 1}
		}
	}
}

// ConfigFor combines tuning and a mission into a world config.
func ConfigFor(t tuning.Tuning, m missions.MissionSpec) WorldConfig {
	t.Normalize()
	cfg := WorldConfig{
		MissionID:          m.ID,
		Seed:               m.Seed,
		TickRateHz:         t.TickRateHz,
		MaxDt:              t.MaxDt,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		BulletCap:          t.Pools.Bullets,
		MissileCap:         t.Pools.Missiles,
		BulletMaxAge:       t.Weapons.BulletMaxAge,
		MissileMaxAge:      t.Weapons.MissileMaxAge,
		LauncherGap:        t.Weapons.LauncherGap,
		Collision: collision.Config{
			BulletRadius:       t.Collision.BulletRadius,
			MissileRadius:      t.Collision.MissileRadius,
			BulletHitFlash:     t.Collision.BulletHitFlash,
			MissileHitFlash:    t.Collision.MissileHitFlash,
			MissileDamageFlash: t.Collision.MissileDamageFlash,
			BulletDamageFlash:  t.Collision.BulletDamageFlash,
		},
		Explosions: explosion.Config{
			Capacity:  t.Pools.Explosions,
			Fragments: t.Explosions.Fragments,
			MaxAge:    t.Explosions.MaxAge,
			Gravity:   t.Explosions.Gravity,
			MinSpeed:  t.Explosions.MinSpeed,
			MaxSpeed:  t.Explosions.MaxSpeed,
		},
		Bounds:       m.Bounds,
		OOBMaxTime:   m.OOBMaxTime,
		TerrainCrash: true,
		TileStep:     t.Terrain.TileStep,
		MaxTiles:     t.Terrain.MaxTiles,
		Player: PlayerConfig{
			Aircraft: m.Player.Aircraft,
			Spawn:    model.Vec3{m.Player.Spawn[0], m.Player.Spawn[1], m.Player.Spawn[2]},
			Forward:  headingForward(m.Player.Heading),
		},
	}
	if m.OOBMaxTime <= 0 {
		cfg.OOBMaxTime = t.Bounds.OOBMaxTime
	}
	for _, e := range m.Enemies {
		cfg.Enemies = append(cfg.Enemies, EnemyConfig{
			ID:       e.ID,
			Aircraft: e.Aircraft,
			Spawn:    model.Vec3{e.Center[0], e.Center[1], e.Center[2]},
		})
	}
	return cfg
}

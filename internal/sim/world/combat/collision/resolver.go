// Package collision resolves projectile impacts against the player and the
// enemy wing once per tick.
package collision

import (
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

type Config struct {
	BulletRadius  float64 `yaml:"bullet_radius"`
	MissileRadius float64 `yaml:"missile_radius"`

	BulletHitFlash     float64 `yaml:"bullet_hit_flash"`
	MissileHitFlash    float64 `yaml:"missile_hit_flash"`
	MissileDamageFlash float64 `yaml:"missile_damage_flash"`
	BulletDamageFlash  float64 `yaml:"bullet_damage_flash"`
}

func DefaultConfig() Config {
	return Config{
		BulletRadius:       1.5,
		MissileRadius:      6,
		BulletHitFlash:     0.12,
		MissileHitFlash:    0.3,
		MissileDamageFlash: 0.6,
		BulletDamageFlash:  0.25,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.BulletRadius <= 0 {
		c.BulletRadius = d.BulletRadius
	}
	if c.MissileRadius <= 0 {
		c.MissileRadius = d.MissileRadius
	}
	if c.BulletHitFlash <= 0 {
		c.BulletHitFlash = d.BulletHitFlash
	}
	if c.MissileHitFlash <= 0 {
		c.MissileHitFlash = d.MissileHitFlash
	}
	if c.MissileDamageFlash <= 0 {
		c.MissileDamageFlash = d.MissileDamageFlash
	}
	if c.BulletDamageFlash <= 0 {
		c.BulletDamageFlash = d.BulletDamageFlash
	}
}

// Arena is the mutable combat state a Resolver works on. The resolver never
// reorders Enemies; slice order is the hit tie-break.
type Arena struct {
	Bullets    *projectile.Pool
	Missiles   *projectile.Pool
	Explosions *explosion.Pool
	Player     *model.Player
	Enemies    []model.Enemy
}

type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	cfg.applyDefaults()
	return &Resolver{cfg: cfg}
}

func (r *Resolver) Config() Config { return r.cfg }

// Update runs the four impact scans in order, then advances explosions and
// decays the flash and wreck timers. Events are appended to dst.
func (r *Resolver) Update(tick uint64, dt float64, a Arena, dst []model.Event) []model.Event {
	dst = r.scanEnemies(tick, a, a.Bullets, r.cfg.BulletRadius, r.cfg.BulletHitFlash, false, dst)
	dst = r.scanEnemies(tick, a, a.Missiles, r.cfg.MissileRadius, r.cfg.MissileHitFlash, true, dst)
	dst = r.scanPlayer(tick, a, a.Missiles, r.cfg.MissileDamageFlash, true, dst)
	dst = r.scanPlayer(tick, a, a.Bullets, r.cfg.BulletDamageFlash, false, dst)

	if a.Explosions != nil {
		a.Explosions.Advance(dt)
	}
	if a.Player != nil {
		a.Player.DamageFlash = mathx.Decay(a.Player.DamageFlash, dt)
	}
	for i := range a.Enemies {
		e := &a.Enemies[i]
		e.HitFlash = mathx.Decay(e.HitFlash, dt)
		if e.Destroyed() {
			e.DestroyedTimer += dt
		}
	}
	return dst
}

// scanEnemies tests player-owned projectiles against live enemies. Each
// projectile hits at most the first enemy it overlaps.
func (r *Resolver) scanEnemies(tick uint64, a Arena, pool *projectile.Pool, radius, flash float64, alwaysExplode bool, dst []model.Event) []model.Event {
	if pool == nil {
		return dst
	}
	weapon := pool.Kind().String()
	for i := 0; i < pool.Cap(); i++ {
		p := pool.At(i)
		if !p.Active || !p.PlayerOwned() {
			continue
		}
		for j := range a.Enemies {
			e := &a.Enemies[j]
			if e.Destroyed() {
				continue
			}
			reach := radius + e.CollisionRadius
			if mathx.DistSq(p.Pos, e.Pos) > reach*reach {
				continue
			}
			pool.Deactivate(i)
			e.ApplyDamage(p.Damage)
			e.HitFlash = flash
			dst = append(dst, model.Event{
				Tick: tick, Type: model.EventEnemyHit, EntityID: e.ID, SourceID: p.OwnerID,
				Weapon: weapon, Pos: p.Pos, Damage: p.Damage,
			})
			killed := e.Health <= 0 && e.Destroy()
			if killed {
				dst = append(dst, model.Event{
					Tick: tick, Type: model.EventEnemyDestroyed, EntityID: e.ID, SourceID: p.OwnerID,
					Weapon: weapon, Pos: e.Pos,
				})
			}
			if a.Explosions != nil {
				switch {
				case killed:
					a.Explosions.Spawn(e.Pos)
				case alwaysExplode:
					a.Explosions.Spawn(p.Pos)
				}
			}
			break
		}
	}
	return dst
}

// scanPlayer tests enemy-owned projectiles against the player.
func (r *Resolver) scanPlayer(tick uint64, a Arena, pool *projectile.Pool, flash float64, explode bool, dst []model.Event) []model.Event {
	pl := a.Player
	if pool == nil || pl == nil || pl.IsDead {
		return dst
	}
	weapon := pool.Kind().String()
	reach := pl.CollisionRadius
	for i := 0; i < pool.Cap(); i++ {
		p := pool.At(i)
		if !p.Active || p.PlayerOwned() {
			continue
		}
		if mathx.DistSq(p.Pos, pl.Pos) > reach*reach {
			continue
		}
		pool.Deactivate(i)
		pl.ApplyDamage(p.Damage)
		pl.DamageFlash = flash
		if explode && a.Explosions != nil {
			a.Explosions.Spawn(p.Pos)
		}
		dst = append(dst, model.Event{
			Tick: tick, Type: model.EventPlayerHit, EntityID: model.PlayerOwner, SourceID: p.OwnerID,
			Weapon: weapon, Pos: p.Pos, Damage: p.Damage,
		})
		if pl.Health <= 0 && pl.Kill() {
			dst = append(dst, model.Event{
				Tick: tick, Type: model.EventPlayerKilled, EntityID: model.PlayerOwner, SourceID: p.OwnerID,
				Weapon: weapon, Pos: pl.Pos,
			})
			return dst
		}
	}
	return dst
}

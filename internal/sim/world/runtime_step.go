package world

import (
	"context"

	"skyduel.io/internal/sim/world/combat/collision"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

// WeaponTerrain tags the event for a player killed by ground contact.
const WeaponTerrain = "TERRAIN"

// TickResult is the outcome of one step. Events is only valid until the
// next step.
type TickResult struct {
	Tick   uint64
	Dt     float64
	Events []model.Event
}

// Step advances the simulation by dt using in. dt is clamped to
// [0, MaxDt]. The pipeline order is fixed: poses, weapons and projectile
// motion, collisions and explosions, ground contact, bounds.
func (w *World) Step(dt float64, in model.Input) TickResult {
	dt = mathx.ClampDt(dt, w.cfg.MaxDt)
	nowTick := w.tick.Load()
	w.events = w.events[:0]
	spawnedBefore := w.explosions.Spawned()

	w.applyPoses(dt, in)
	w.updateWeapons(nowTick, dt, in)

	w.events = w.resolver.Update(nowTick, dt, collision.Arena{
		Bullets:    w.bullets,
		Missiles:   w.missiles,
		Explosions: w.explosions,
		Player:     &w.player,
		Enemies:    w.enemies,
	}, w.events)

	w.checkGround(nowTick)
	w.updateBounds(nowTick, dt)

	w.clock += dt
	w.tick.Add(1)

	if w.metrics != nil {
		ctx := context.Background()
		w.metrics.ExplosionSpawned(ctx, int(w.explosions.Spawned()-spawnedBefore))
		w.metrics.Record(ctx, w.events)
		w.metrics.Tick(ctx, w.bullets.ActiveCount(), w.missiles.ActiveCount(), w.explosions.ActiveCount())
	}
	return TickResult{Tick: nowTick, Dt: dt, Events: w.events}
}

// StepOnce advances the world by a single tick and returns the digest of the
// resulting state. It is intended for deterministic replays and tests.
func (w *World) StepOnce(dt float64, in model.Input) (tick uint64, digest string) {
	res := w.Step(dt, in)
	return res.Tick, w.StateDigest()
}

func (w *World) applyPoses(dt float64, in model.Input) {
	if w.player.IsDead {
		w.player.CrashTimer += dt
	} else if in.Player != nil {
		w.player.Pos = in.Player.Pos
		if f := mathx.NormalizeOrZero(in.Player.Forward); f != (model.Vec3{}) {
			w.player.Forward = f
		}
	}
	for _, it := range in.Enemies {
		e := w.enemyByID(it.ID)
		if e == nil || e.Destroyed() {
			continue
		}
		e.Pos = it.Pose.Pos
		if f := mathx.NormalizeOrZero(it.Pose.Forward); f != (model.Vec3{}) {
			e.Forward = f
		}
	}
}

func (w *World) updateWeapons(tick uint64, dt float64, in model.Input) {
	w.armory.Tick(dt)

	if !w.player.IsDead {
		if in.FireGun {
			w.recordFire(tick, w.bullets, model.PlayerOwner, w.player.Pos,
				w.armory.FireGun(w.bullets, w.player.Pos, w.player.Forward, model.PlayerOwner))
		}
		if in.FireMissile {
			w.recordFire(tick, w.missiles, model.PlayerOwner, w.player.Pos,
				w.armory.FireMissile(w.missiles, w.player.Pos, w.player.Forward, model.PlayerOwner))
		}
	}

	for _, it := range in.Enemies {
		e := w.enemyByID(it.ID)
		if e == nil || e.Destroyed() {
			continue
		}
		l := w.loadouts[e.ID]
		if it.FireGun {
			ok := projectile.FireEnemy(w.bullets, l.gun, e.Pos, e.Forward, e.ID)
			w.recordFire(tick, w.bullets, e.ID, e.Pos, fireResult(ok))
		}
		if it.FireMissile {
			ok := projectile.FireEnemy(w.missiles, l.missile, e.Pos, e.Forward, e.ID)
			w.recordFire(tick, w.missiles, e.ID, e.Pos, fireResult(ok))
		}
	}

	w.bullets.Advance(dt)
	w.missiles.Advance(dt)
}

func fireResult(ok bool) projectile.FireResult {
	if ok {
		return projectile.Fired
	}
	return projectile.PoolFull
}

func (w *World) recordFire(tick uint64, pool *projectile.Pool, owner int, pos model.Vec3, r projectile.FireResult) {
	switch r {
	case projectile.Fired:
		if w.metrics != nil {
			w.metrics.ShotFired(context.Background(), pool.Kind().String(), owner)
		}
	case projectile.PoolFull:
		w.events = append(w.events, model.Event{
			Tick: tick, Type: model.EventShotDropped, EntityID: owner, SourceID: owner,
			Weapon: pool.Kind().String(), Pos: pos,
		})
	}
}

func (w *World) checkGround(tick uint64) {
	if !w.cfg.TerrainCrash || w.player.IsDead {
		return
	}
	pos := w.player.Pos
	if pos[1] > w.sampler.GroundAt(pos[0], pos[2]) {
		return
	}
	if w.player.Kill() {
		w.explosions.Spawn(pos)
		w.events = append(w.events, model.Event{
			Tick: tick, Type: model.EventPlayerKilled, EntityID: model.PlayerOwner,
			Weapon: WeaponTerrain, Pos: pos,
		})
	}
}

func (w *World) updateBounds(tick uint64, dt float64) {
	u := w.enforcer.Update(dt, &w.player)
	st := w.enforcer.State()
	if u.Changed {
		w.events = append(w.events, model.Event{
			Tick: tick, Type: model.EventOOBStateChanged, EntityID: model.PlayerOwner,
			Pos: w.player.Pos, OOB: st.IsOOB,
		})
	}
	if u.Killed {
		w.events = append(w.events, model.Event{
			Tick: tick, Type: model.EventForcedOOBDeath, EntityID: model.PlayerOwner,
			Pos: w.player.Pos,
		})
	}
}

func (w *World) enemyByID(id int) *model.Enemy {
	for i := range w.enemies {
		if w.enemies[i].ID == id {
			return &w.enemies[i]
		}
	}
	return nil
}

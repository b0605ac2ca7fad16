package world

import (
	"fmt"

	"skyduel.io/internal/persistence/snapshot"
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/terrain/gen"
)

// ExportSnapshot captures the full state at the current tick boundary.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	nowTick := w.tick.Load()
	b := w.enforcer.Bounds()
	st := w.enforcer.State()

	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:   snapshot.Version,
			MissionID: w.cfg.MissionID,
			Tick:      nowTick,
		},
		Seed:       w.cfg.Seed,
		TickRateHz: w.cfg.TickRateHz,
		MaxDt:      w.cfg.MaxDt,
		Clock:      w.clock,
		RNGState:   w.rng.State(),
		Bounds: snapshot.BoundsV1{
			MinX:          b.MinX,
			MaxX:          b.MaxX,
			MinZ:          b.MinZ,
			MaxZ:          b.MaxZ,
			Ceiling:       b.Ceiling,
			WarningMargin: b.WarningMargin,
		},
		OOBMaxTime: st.MaxTime,
		OOB: snapshot.OOBV1{
			IsOOB:       st.IsOOB,
			Hard:        st.Hard,
			Timer:       st.Timer,
			ForcedDeath: st.ForcedDeath,
		},
		Player: snapshot.PlayerV1{
			ID:              w.player.ID,
			Aircraft:        w.player.Aircraft,
			Health:          w.player.Health,
			MaxHealth:       w.player.MaxHealth,
			Pos:             w.player.Pos,
			Forward:         w.player.Forward,
			CollisionRadius: w.player.CollisionRadius,
			DamageFlash:     w.player.DamageFlash,
			IsDead:          w.player.IsDead,
			CrashTimer:      w.player.CrashTimer,
		},
		Armory: snapshot.ArmoryV1{FireCooldown: w.armory.FireCooldown()},
	}
	for _, e := range w.enemies {
		s.Enemies = append(s.Enemies, snapshot.EnemyV1{
			ID:              e.ID,
			Aircraft:        e.Aircraft,
			Health:          e.Health,
			MaxHealth:       e.MaxHealth,
			Pos:             e.Pos,
			Forward:         e.Forward,
			CollisionRadius: e.CollisionRadius,
			Destroyed:       e.Destroyed(),
			HitFlash:        e.HitFlash,
			DestroyedTimer:  e.DestroyedTimer,
		})
	}
	for _, sl := range w.armory.Slots() {
		s.Armory.Slots = append(s.Armory.Slots, snapshot.SlotV1{Slot: sl.Index, WeaponID: sl.WeaponID, Cooldown: sl.Cooldown})
	}
	s.Bullets = exportPool(w.bullets)
	s.Missiles = exportPool(w.missiles)
	for i := 0; i < w.explosions.Cap(); i++ {
		e := w.explosions.At(i)
		if !e.Active {
			continue
		}
		ev := snapshot.ExplosionV1{Slot: i, Pos: e.Pos, Age: e.Age, MaxAge: e.MaxAge}
		for _, f := range e.Fragments {
			ev.Fragments = append(ev.Fragments, snapshot.FragmentV1{Pos: f.Pos, Vel: f.Vel})
		}
		s.Explosions = append(s.Explosions, ev)
	}
	s.Digest = w.stateDigest(nowTick)
	return s
}

func exportPool(p *projectile.Pool) []snapshot.ProjectileV1 {
	var out []snapshot.ProjectileV1
	for i := 0; i < p.Cap(); i++ {
		pr := p.At(i)
		if !pr.Active {
			continue
		}
		out = append(out, snapshot.ProjectileV1{
			Slot:    i,
			Pos:     pr.Pos,
			Vel:     pr.Vel,
			Age:     pr.Age,
			MaxAge:  pr.MaxAge,
			Damage:  pr.Damage,
			OwnerID: pr.OwnerID,
		})
	}
	return out
}

// ImportSnapshot replaces the combat state with s. The world must have been
// built from the same mission so that entity ids and pool capacities line
// up. The restored state is checked against s.Digest when one is present.
// On any error the world keeps its previous state.
func (w *World) ImportSnapshot(s snapshot.SnapshotV1) error {
	if err := w.checkSnapshot(s); err != nil {
		return err
	}
	var prev snapshot.SnapshotV1
	if s.Digest != "" {
		prev = w.ExportSnapshot()
	}
	w.restoreSnapshot(s)
	if s.Digest != "" {
		if got := w.stateDigest(s.Header.Tick); got != s.Digest {
			w.restoreSnapshot(prev)
			return fmt.Errorf("snapshot digest mismatch: got %s want %s", got, s.Digest)
		}
	}
	return nil
}

// checkSnapshot rejects s before anything in w is touched.
func (w *World) checkSnapshot(s snapshot.SnapshotV1) error {
	if s.Header.Version != snapshot.Version {
		return fmt.Errorf("unsupported snapshot version %d", s.Header.Version)
	}
	if s.Header.MissionID != w.cfg.MissionID {
		return fmt.Errorf("snapshot mission %q does not match world mission %q", s.Header.MissionID, w.cfg.MissionID)
	}
	if _, err := gen.CoerceSeed(s.Seed); err != nil {
		return fmt.Errorf("snapshot seed: %w", err)
	}
	if len(s.Enemies) != len(w.enemies) {
		return fmt.Errorf("snapshot has %d enemies, world has %d", len(s.Enemies), len(w.enemies))
	}
	for i, e := range s.Enemies {
		if w.enemies[i].ID != e.ID {
			return fmt.Errorf("snapshot enemy %d at index %d, world has %d", e.ID, i, w.enemies[i].ID)
		}
	}
	if err := checkSlots(s.Bullets, w.bullets.Cap()); err != nil {
		return fmt.Errorf("bullets: %w", err)
	}
	if err := checkSlots(s.Missiles, w.missiles.Cap()); err != nil {
		return fmt.Errorf("missiles: %w", err)
	}
	for _, e := range s.Explosions {
		if e.Slot < 0 || e.Slot >= w.explosions.Cap() {
			return fmt.Errorf("explosion slot %d out of range", e.Slot)
		}
	}
	return nil
}

func checkSlots(in []snapshot.ProjectileV1, capacity int) error {
	for _, pr := range in {
		if pr.Slot < 0 || pr.Slot >= capacity {
			return fmt.Errorf("slot %d out of range", pr.Slot)
		}
	}
	return nil
}

// restoreSnapshot writes a checked snapshot into w.
func (w *World) restoreSnapshot(s snapshot.SnapshotV1) {
	if s.Seed != w.cfg.Seed {
		// Seed range was checked by checkSnapshot.
		_ = w.Reseed(s.Seed)
	}
	w.enforcer = bounds.NewEnforcer(bounds.Bounds{
		MinX:          s.Bounds.MinX,
		MaxX:          s.Bounds.MaxX,
		MinZ:          s.Bounds.MinZ,
		MaxZ:          s.Bounds.MaxZ,
		Ceiling:       s.Bounds.Ceiling,
		WarningMargin: s.Bounds.WarningMargin,
	}, s.OOBMaxTime)
	w.enforcer.Restore(bounds.State{
		IsOOB:       s.OOB.IsOOB,
		Hard:        s.OOB.Hard,
		Timer:       s.OOB.Timer,
		ForcedDeath: s.OOB.ForcedDeath,
	})

	p := s.Player
	w.player = model.Player{
		Combatant: model.Combatant{
			ID:              p.ID,
			Aircraft:        p.Aircraft,
			Health:          p.Health,
			MaxHealth:       p.MaxHealth,
			Pos:             p.Pos,
			Forward:         p.Forward,
			CollisionRadius: p.CollisionRadius,
		},
		DamageFlash: p.DamageFlash,
		IsDead:      p.IsDead,
		CrashTimer:  p.CrashTimer,
	}
	for i, e := range s.Enemies {
		mode := model.AIActive
		if e.Destroyed {
			mode = model.AIDestroyed
		}
		w.enemies[i] = model.Enemy{
			Combatant: model.Combatant{
				ID:              e.ID,
				Aircraft:        e.Aircraft,
				Health:          e.Health,
				MaxHealth:       e.MaxHealth,
				Pos:             e.Pos,
				Forward:         e.Forward,
				CollisionRadius: e.CollisionRadius,
			},
			AIMode:         mode,
			HitFlash:       e.HitFlash,
			DestroyedTimer: e.DestroyedTimer,
		}
	}

	slots := make([]projectile.Slot, 0, len(s.Armory.Slots))
	for _, sl := range s.Armory.Slots {
		slots = append(slots, projectile.Slot{Index: sl.Slot, WeaponID: sl.WeaponID, Cooldown: sl.Cooldown})
	}
	w.armory.Restore(slots, s.Armory.FireCooldown)

	importPool(w.bullets, s.Bullets)
	importPool(w.missiles, s.Missiles)
	exps := make([]explosion.Explosion, w.explosions.Cap())
	for _, e := range s.Explosions {
		frags := make([]explosion.Fragment, 0, len(e.Fragments))
		for _, f := range e.Fragments {
			frags = append(frags, explosion.Fragment{Pos: f.Pos, Vel: f.Vel})
		}
		exps[e.Slot] = explosion.Explosion{Active: true, Pos: e.Pos, Age: e.Age, MaxAge: e.MaxAge, Fragments: frags}
	}
	w.explosions.Restore(exps)

	w.rng.Reseed(s.RNGState)
	w.clock = s.Clock
	w.tick.Store(s.Header.Tick)
}

func importPool(p *projectile.Pool, in []snapshot.ProjectileV1) {
	slots := make([]projectile.Projectile, p.Cap())
	for _, pr := range in {
		slots[pr.Slot] = projectile.Projectile{
			Active:  true,
			Pos:     pr.Pos,
			Vel:     pr.Vel,
			Age:     pr.Age,
			MaxAge:  pr.MaxAge,
			Damage:  pr.Damage,
			OwnerID: pr.OwnerID,
		}
	}
	p.Restore(slots)
}

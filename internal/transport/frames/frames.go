// Package frames converts world snapshots into STATE wire frames shared by
// the pilot and observer transports.
package frames

import (
	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
)

// FromSnapshot builds the STATE frame for s. ackSeq is the last INPUT seq
// the server accepted from the receiving pilot.
func FromSnapshot(s world.Snapshot, ackSeq uint64) protocol.StateMsg {
	m := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Tick:            s.Tick,
		Clock:           s.Clock,
		AckSeq:          ackSeq,
		Player: protocol.PlaneState{
			ID:        s.Player.ID,
			Pos:       s.Player.Pos,
			Forward:   s.Player.Forward,
			Health:    s.Player.Health,
			MaxHealth: s.Player.MaxHealth,
			Flash:     s.Player.DamageFlash,
			Down:      s.Player.IsDead,
		},
		Enemies:    make([]protocol.PlaneState, 0, len(s.Enemies)),
		Bullets:    projectiles(s.Bullets),
		Missiles:   projectiles(s.Missiles),
		Explosions: make([]protocol.ExplosionState, 0, len(s.Explosions)),
		OOB: protocol.OOBState{
			IsOOB:      s.OOB.IsOOB,
			Timer:      s.OOB.Timer,
			MaxTime:    s.OOB.MaxTime,
			WarningDir: s.OOB.WarningDir,
		},
	}
	for _, e := range s.Enemies {
		m.Enemies = append(m.Enemies, protocol.PlaneState{
			ID:        e.ID,
			Pos:       e.Pos,
			Forward:   e.Forward,
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
			Flash:     e.HitFlash,
			Down:      e.Destroyed(),
		})
	}
	for _, ex := range s.Explosions {
		es := protocol.ExplosionState{
			Pos:       ex.Pos,
			Age:       ex.Age,
			MaxAge:    ex.MaxAge,
			Fragments: make([][3]float64, 0, len(ex.Fragments)),
		}
		for _, f := range ex.Fragments {
			es.Fragments = append(es.Fragments, f.Pos)
		}
		m.Explosions = append(m.Explosions, es)
	}
	m.Events = Events(s.Events)
	return m
}

func projectiles(in []projectile.Projectile) []protocol.ProjectileState {
	out := make([]protocol.ProjectileState, 0, len(in))
	for _, p := range in {
		out = append(out, protocol.ProjectileState{Pos: p.Pos, Vel: p.Vel, Owner: p.OwnerID})
	}
	return out
}

func Events(in []model.Event) []protocol.EventState {
	if len(in) == 0 {
		return nil
	}
	out := make([]protocol.EventState, 0, len(in))
	for _, e := range in {
		out = append(out, protocol.EventState{
			Type:     e.Type.String(),
			EntityID: e.EntityID,
			SourceID: e.SourceID,
			Weapon:   e.Weapon,
			Pos:      e.Pos,
			Damage:   e.Damage,
		})
	}
	return out
}

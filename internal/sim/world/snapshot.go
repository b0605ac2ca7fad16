package world

import (
	"skyduel.io/internal/sim/world/bounds"
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
)

// Snapshot is an immutable copy of the combat state after a tick. Nothing
// in it aliases world storage.
type Snapshot struct {
	MissionID  string                  `json:"mission_id" msgpack:"mission_id"`
	Tick       uint64                  `json:"tick" msgpack:"tick"`
	Clock      float64                 `json:"clock" msgpack:"clock"`
	Player     model.Player            `json:"player" msgpack:"player"`
	Enemies    []model.Enemy           `json:"enemies" msgpack:"enemies"`
	Bullets    []projectile.Projectile `json:"bullets" msgpack:"bullets"`
	Missiles   []projectile.Projectile `json:"missiles" msgpack:"missiles"`
	Explosions []explosion.Explosion   `json:"explosions" msgpack:"explosions"`
	Armory     []projectile.Slot       `json:"armory" msgpack:"armory"`
	OOB        bounds.State            `json:"oob" msgpack:"oob"`
	Events     []model.Event           `json:"events,omitempty" msgpack:"events,omitempty"`
}

// Snapshot copies the current state. Call it from the loop goroutine or
// while the loop is not running.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		MissionID:  w.cfg.MissionID,
		Tick:       w.tick.Load(),
		Clock:      w.clock,
		Player:     w.player,
		Enemies:    append([]model.Enemy(nil), w.enemies...),
		Bullets:    w.bullets.Active(nil),
		Missiles:   w.missiles.Active(nil),
		Explosions: w.explosions.Active(nil),
		Armory:     append([]projectile.Slot(nil), w.armory.Slots()...),
		OOB:        w.enforcer.State(),
	}
}

func (w *World) snapshotWithEvents(evs []model.Event) Snapshot {
	s := w.Snapshot()
	s.Events = append([]model.Event(nil), evs...)
	return s
}

// DestroyedThisTick filters the enemy destroyed events for reward hooks.
func DestroyedThisTick(evs []model.Event) []int {
	var ids []int
	for _, e := range evs {
		if e.Type == model.EventEnemyDestroyed {
			ids = append(ids, e.EntityID)
		}
	}
	return ids
}

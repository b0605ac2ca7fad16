package frames

import (
	"testing"

	"skyduel.io/internal/protocol"
	"skyduel.io/internal/sim/world"
	"skyduel.io/internal/sim/world/combat/explosion"
	"skyduel.io/internal/sim/world/combat/projectile"
	"skyduel.io/internal/sim/world/kernel/model"
)

func TestFromSnapshot(t *testing.T) {
	s := world.Snapshot{
		MissionID: "m",
		Tick:      12,
		Clock:     0.6,
		Player: model.Player{
			Combatant:   model.Combatant{ID: 0, Health: 80, MaxHealth: 100, Pos: model.Vec3{1, 2, 3}},
			DamageFlash: 0.2,
		},
		Enemies: []model.Enemy{
			{Combatant: model.Combatant{ID: 4, Health: 0, MaxHealth: 60}, AIMode: model.AIDestroyed},
		},
		Bullets: []projectile.Projectile{{Active: true, Pos: model.Vec3{5, 5, 5}, OwnerID: 4}},
		Explosions: []explosion.Explosion{{
			Active: true, Age: 0.3, MaxAge: 1.8,
			Fragments: []explosion.Fragment{{Pos: model.Vec3{1, 1, 1}}, {Pos: model.Vec3{2, 2, 2}}},
		}},
		Events: []model.Event{{Type: model.EventEnemyDestroyed, EntityID: 4, Weapon: "MISSILE"}},
	}
	m := FromSnapshot(s, 77)

	if m.Type != protocol.TypeState || m.Tick != 12 || m.AckSeq != 77 {
		t.Fatalf("header=%+v", m)
	}
	if m.Player.Pos != [3]float64{1, 2, 3} || m.Player.Flash != 0.2 || m.Player.Down {
		t.Fatalf("player=%+v", m.Player)
	}
	if len(m.Enemies) != 1 || !m.Enemies[0].Down || m.Enemies[0].ID != 4 {
		t.Fatalf("enemies=%+v", m.Enemies)
	}
	if len(m.Bullets) != 1 || m.Bullets[0].Owner != 4 || len(m.Missiles) != 0 {
		t.Fatalf("projectiles bullets=%+v missiles=%+v", m.Bullets, m.Missiles)
	}
	if len(m.Explosions) != 1 || len(m.Explosions[0].Fragments) != 2 {
		t.Fatalf("explosions=%+v", m.Explosions)
	}
	if len(m.Events) != 1 || m.Events[0].Type != "ENEMY_DESTROYED" {
		t.Fatalf("events=%+v", m.Events)
	}
}

func TestEvents_EmptyIsNil(t *testing.T) {
	if Events(nil) != nil {
		t.Fatalf("expected nil for no events")
	}
}

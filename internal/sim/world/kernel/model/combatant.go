package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec3 = mgl64.Vec3

// PlayerOwner is the owner id carried by player-fired projectiles. Any other
// owner id is the id of the enemy that fired.
const PlayerOwner = 0

type AIMode uint8

const (
	AIActive AIMode = iota
	AIDestroyed
)

func (m AIMode) String() string {
	switch m {
	case AIActive:
		return "ACTIVE"
	case AIDestroyed:
		return "DESTROYED"
	default:
		return fmt.Sprintf("AIMode(%d)", uint8(m))
	}
}

func (m AIMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *AIMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ACTIVE":
		*m = AIActive
	case "DESTROYED":
		*m = AIDestroyed
	default:
		return fmt.Errorf("unknown ai mode %q", b)
	}
	return nil
}

// Combatant is the state shared by every entity that can be hit.
type Combatant struct {
	ID              int     `json:"id"`
	Aircraft        string  `json:"aircraft"`
	Health          float64 `json:"health"`
	MaxHealth       float64 `json:"max_health"`
	Pos             Vec3    `json:"pos"`
	Forward         Vec3    `json:"forward"`
	CollisionRadius float64 `json:"collision_radius"`
}

// ApplyDamage subtracts dmg and floors health at 0. It returns the new health.
func (c *Combatant) ApplyDamage(dmg float64) float64 {
	c.Health -= dmg
	if c.Health < 0 {
		c.Health = 0
	}
	return c.Health
}

type Enemy struct {
	Combatant
	AIMode         AIMode  `json:"ai_mode"`
	HitFlash       float64 `json:"hit_flash"`
	DestroyedTimer float64 `json:"destroyed_timer"`
}

func (e *Enemy) Destroyed() bool { return e.AIMode == AIDestroyed }

// Destroy moves an active enemy to destroyed. It reports false when the enemy
// was already destroyed; the transition happens once.
func (e *Enemy) Destroy() bool {
	if e.AIMode == AIDestroyed {
		return false
	}
	e.AIMode = AIDestroyed
	e.DestroyedTimer = 0
	return true
}

type Player struct {
	Combatant
	DamageFlash float64 `json:"damage_flash"`
	IsDead      bool    `json:"is_dead"`
	CrashTimer  float64 `json:"crash_timer"`
}

// Kill marks the player dead with zero health. It reports false if the player
// was already dead.
func (p *Player) Kill() bool {
	if p.IsDead {
		return false
	}
	p.IsDead = true
	p.Health = 0
	p.CrashTimer = 0
	return true
}

// Package script flies the enemy wing on fixed orbits so the simulation can
// run without an external AI. It only produces poses and fire intents.
package script

import (
	"math"

	"skyduel.io/internal/sim/missions"
	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

type pilot struct {
	spec         missions.EnemySpec
	gunTimer     float64
	missileTimer float64
}

type Wing struct {
	pilots []pilot
	clock  float64
}

func NewWing(specs []missions.EnemySpec) *Wing {
	w := &Wing{pilots: make([]pilot, len(specs))}
	for i, s := range specs {
		w.pilots[i] = pilot{spec: s}
	}
	return w
}

func (w *Wing) Clock() float64 { return w.clock }

// SetClock moves every orbit to time t, used when resuming from a
// snapshot. Fire timers restart from zero.
func (w *Wing) SetClock(t float64) {
	w.clock = t
	for i := range w.pilots {
		w.pilots[i].gunTimer = 0
		w.pilots[i].missileTimer = 0
	}
}

// PoseAt is the orbit pose of spec at time t.
func PoseAt(s missions.EnemySpec, t float64) model.Pose {
	center := model.Vec3{s.Center[0], s.Center[1], s.Center[2]}
	if s.Radius <= 0 {
		return model.Pose{Pos: center, Forward: model.Vec3{0, 0, -1}}
	}
	dir := 1.0
	if s.Clockwise {
		dir = -1
	}
	a := s.Phase*math.Pi/180 + dir*(s.Speed/s.Radius)*t
	sin, cos := math.Sincos(a)
	pos := center.Add(model.Vec3{cos * s.Radius, 0, sin * s.Radius})
	fwd := model.Vec3{-sin * dir, 0, cos * dir}
	return model.Pose{Pos: pos, Forward: fwd}
}

// InCone reports whether target lies within rng of pos and within coneDeg of
// the forward direction.
func InCone(pose model.Pose, target model.Vec3, rng, coneDeg float64) bool {
	to := target.Sub(pose.Pos)
	d := to.Len()
	if d < mathx.Epsilon || d > rng {
		return false
	}
	f := mathx.NormalizeOrZero(pose.Forward)
	cos := f.Dot(to.Mul(1 / d))
	return cos >= math.Cos(coneDeg*math.Pi/180)
}

// Plan advances the wing clock by dt and returns the intents for every
// enemy still alive. Enemies missing from alive are skipped.
func (w *Wing) Plan(dt float64, player *model.Player, enemies []model.Enemy) []model.EnemyIntent {
	w.clock += dt
	alive := make(map[int]bool, len(enemies))
	for i := range enemies {
		if !enemies[i].Destroyed() {
			alive[enemies[i].ID] = true
		}
	}
	out := make([]model.EnemyIntent, 0, len(w.pilots))
	for i := range w.pilots {
		p := &w.pilots[i]
		if !alive[p.spec.ID] {
			continue
		}
		pose := PoseAt(p.spec, w.clock)
		in := model.EnemyIntent{ID: p.spec.ID, Pose: pose}

		p.gunTimer += dt
		p.missileTimer += dt
		canSee := player != nil && !player.IsDead && InCone(pose, player.Pos, p.spec.FireRange, p.spec.FireCone)
		if canSee && p.spec.FireInterval > 0 && p.gunTimer >= p.spec.FireInterval {
			in.FireGun = true
			p.gunTimer = 0
		}
		if canSee && p.spec.MissileInterval > 0 && p.missileTimer >= p.spec.MissileInterval {
			in.FireMissile = true
			p.missileTimer = 0
		}
		out = append(out, in)
	}
	return out
}

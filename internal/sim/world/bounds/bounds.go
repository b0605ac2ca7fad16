// Package bounds tracks the player against the mission volume and forces a
// kill after a sustained hard violation.
package bounds

import (
	"errors"
	"fmt"
	"math"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/logic/mathx"
)

const DefaultOOBMaxTime = 10.0

// Bounds is the mission's playable volume. It is fixed for the whole mission.
type Bounds struct {
	MinX          float64 `yaml:"min_x" json:"min_x"`
	MaxX          float64 `yaml:"max_x" json:"max_x"`
	MinZ          float64 `yaml:"min_z" json:"min_z"`
	MaxZ          float64 `yaml:"max_z" json:"max_z"`
	Ceiling       float64 `yaml:"ceiling" json:"ceiling"`
	WarningMargin float64 `yaml:"warning_margin" json:"warning_margin"`
}

var ErrBadBounds = errors.New("invalid mission bounds")

func (b Bounds) Validate() error {
	for _, v := range []float64{b.MinX, b.MaxX, b.MinZ, b.MaxZ, b.Ceiling, b.WarningMargin} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrBadBounds)
		}
	}
	if b.MinX >= b.MaxX || b.MinZ >= b.MaxZ {
		return fmt.Errorf("%w: empty area x=[%v,%v] z=[%v,%v]", ErrBadBounds, b.MinX, b.MaxX, b.MinZ, b.MaxZ)
	}
	if b.Ceiling <= 0 {
		return fmt.Errorf("%w: ceiling %v", ErrBadBounds, b.Ceiling)
	}
	if b.WarningMargin < 0 {
		return fmt.Errorf("%w: warning margin %v", ErrBadBounds, b.WarningMargin)
	}
	return nil
}

func (b Bounds) Center() (x, z float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinZ + b.MaxZ) / 2
}

// Hard reports a position strictly beyond an edge or above the ceiling.
func (b Bounds) Hard(p model.Vec3) bool {
	return p[0] < b.MinX || p[0] > b.MaxX || p[2] < b.MinZ || p[2] > b.MaxZ || p[1] > b.Ceiling
}

// Soft reports a position within the warning margin of an edge or the ceiling.
func (b Bounds) Soft(p model.Vec3) bool {
	m := b.WarningMargin
	return p[0] < b.MinX+m || p[0] > b.MaxX-m || p[2] < b.MinZ+m || p[2] > b.MaxZ-m || p[1] > b.Ceiling-m
}

// WarningDir is the unit vector from p toward the horizontal center at the
// lower of half the ceiling and p's own altitude.
func (b Bounds) WarningDir(p model.Vec3) model.Vec3 {
	cx, cz := b.Center()
	target := model.Vec3{cx, math.Min(b.Ceiling/2, p[1]), cz}
	return mathx.NormalizeOrZero(target.Sub(p))
}

type State struct {
	IsOOB       bool       `json:"is_oob"`
	Hard        bool       `json:"hard"`
	Timer       float64    `json:"oob_timer"`
	MaxTime     float64    `json:"oob_max_time"`
	WarningDir  model.Vec3 `json:"warning_dir"`
	ForcedDeath bool       `json:"forced_death"`
}

type Update struct {
	// Changed is set when IsOOB flipped this tick.
	Changed bool
	// Killed is set on the single tick the timeout kills the player.
	Killed bool
}

type Enforcer struct {
	bounds Bounds
	state  State
}

func NewEnforcer(b Bounds, maxTime float64) *Enforcer {
	if maxTime <= 0 {
		maxTime = DefaultOOBMaxTime
	}
	return &Enforcer{bounds: b, state: State{MaxTime: maxTime}}
}

func (e *Enforcer) Bounds() Bounds { return e.bounds }
func (e *Enforcer) State() State   { return e.state }

// Restore replaces the runtime state from a snapshot. MaxTime stays as
// configured.
func (e *Enforcer) Restore(s State) {
	s.MaxTime = e.state.MaxTime
	s.Timer = math.Max(0, s.Timer)
	e.state = s
}

// Update advances the OOB state machine by dt from the player's position.
// The timer grows by dt while hard-out and recovers at twice that rate
// otherwise. Reaching MaxTime kills a live player once.
func (e *Enforcer) Update(dt float64, pl *model.Player) Update {
	var u Update
	st := &e.state
	pos := pl.Pos

	hard := e.bounds.Hard(pos)
	oob := hard || e.bounds.Soft(pos)
	u.Changed = oob != st.IsOOB
	st.IsOOB = oob
	st.Hard = hard

	if hard {
		st.Timer += dt
	} else {
		st.Timer = mathx.Decay(st.Timer, 2*dt)
	}
	st.WarningDir = e.bounds.WarningDir(pos)

	if st.Timer >= st.MaxTime && !pl.IsDead {
		pl.Kill()
		st.ForcedDeath = true
		u.Killed = true
	}
	return u
}

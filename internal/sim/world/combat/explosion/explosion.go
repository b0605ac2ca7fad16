// Package explosion holds the fixed pool of visual explosions spawned by
// projectile impacts and kills.
package explosion

import (
	"math"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/terrain/noise"
)

const (
	DefaultFragments = 12
	DefaultMaxAge    = 1.8
	DefaultGravity   = 9.8
	DefaultCapacity  = 32
)

type Fragment struct {
	Pos model.Vec3 `json:"pos"`
	Vel model.Vec3 `json:"vel"`
}

type Explosion struct {
	Active    bool       `json:"active"`
	Pos       model.Vec3 `json:"pos"`
	Age       float64    `json:"age"`
	MaxAge    float64    `json:"max_age"`
	Fragments []Fragment `json:"fragments"`
}

type Config struct {
	Capacity  int
	Fragments int
	MaxAge    float64
	Gravity   float64
	// Fragment launch speed range.
	MinSpeed float64
	MaxSpeed float64
}

func (c *Config) applyDefaults() {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.Fragments <= 0 {
		c.Fragments = DefaultFragments
	}
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.Gravity <= 0 {
		c.Gravity = DefaultGravity
	}
	if c.MinSpeed <= 0 {
		c.MinSpeed = 12
	}
	if c.MaxSpeed < c.MinSpeed {
		c.MaxSpeed = c.MinSpeed * 3
	}
}

// Pool owns every explosion slot and its fragment storage. Slots and
// fragment slices are allocated once.
type Pool struct {
	cfg     Config
	rng     *noise.RNG
	slots   []Explosion
	spawned uint64
}

func NewPool(cfg Config, rng *noise.RNG) *Pool {
	cfg.applyDefaults()
	if rng == nil {
		rng = noise.NewRNG(0)
	}
	p := &Pool{cfg: cfg, rng: rng, slots: make([]Explosion, cfg.Capacity)}
	for i := range p.slots {
		p.slots[i].Fragments = make([]Fragment, cfg.Fragments)
	}
	return p
}

func (p *Pool) Config() Config  { return p.cfg }
func (p *Pool) Cap() int        { return len(p.slots) }
func (p *Pool) RNG() *noise.RNG { return p.rng }

// At returns slot i. Callers must not keep the fragment slice.
func (p *Pool) At(i int) *Explosion { return &p.slots[i] }

// Spawned is the running count of successful spawns.
func (p *Pool) Spawned() uint64 { return p.spawned }

// Spawn activates the first free slot at pos. Fragments leave on a ring of
// evenly spaced headings with jittered pitch and speed. A full pool drops the
// explosion and returns false.
func (p *Pool) Spawn(pos model.Vec3) bool {
	for i := range p.slots {
		e := &p.slots[i]
		if e.Active {
			continue
		}
		e.Active = true
		e.Pos = pos
		e.Age = 0
		e.MaxAge = p.cfg.MaxAge
		n := len(e.Fragments)
		for j := range e.Fragments {
			yaw := 2 * math.Pi * float64(j) / float64(n)
			pitch := p.rng.Range(-0.35, 1.1)
			speed := p.rng.Range(p.cfg.MinSpeed, p.cfg.MaxSpeed)
			cp := math.Cos(pitch)
			dir := model.Vec3{cp * math.Cos(yaw), math.Sin(pitch), cp * math.Sin(yaw)}
			e.Fragments[j] = Fragment{Pos: pos, Vel: dir.Mul(speed)}
		}
		p.spawned++
		return true
	}
	return false
}

// Advance ages every active explosion and integrates its fragments under
// constant downward acceleration. It returns the number that finished.
func (p *Pool) Advance(dt float64) int {
	done := 0
	g := model.Vec3{0, -p.cfg.Gravity * dt, 0}
	for i := range p.slots {
		e := &p.slots[i]
		if !e.Active {
			continue
		}
		e.Age += dt
		if e.Age > e.MaxAge {
			e.Active = false
			done++
			continue
		}
		for j := range e.Fragments {
			f := &e.Fragments[j]
			f.Vel = f.Vel.Add(g)
			f.Pos = f.Pos.Add(f.Vel.Mul(dt))
		}
	}
	return done
}

func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}

// Active appends deep copies of the active explosions to dst.
func (p *Pool) Active(dst []Explosion) []Explosion {
	for i := range p.slots {
		e := p.slots[i]
		if !e.Active {
			continue
		}
		e.Fragments = append([]Fragment(nil), e.Fragments...)
		dst = append(dst, e)
	}
	return dst
}

func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i].Active = false
	}
}

// Restore loads active explosions from a snapshot into the leading slots.
// Fragment lists are copied into the preallocated storage.
func (p *Pool) Restore(in []Explosion) {
	p.Reset()
	for i := 0; i < len(in) && i < len(p.slots); i++ {
		e := &p.slots[i]
		e.Active = in[i].Active
		e.Pos = in[i].Pos
		e.Age = in[i].Age
		e.MaxAge = in[i].MaxAge
		for j := range e.Fragments {
			if j < len(in[i].Fragments) {
				e.Fragments[j] = in[i].Fragments[j]
			} else {
				e.Fragments[j] = Fragment{Pos: e.Pos}
			}
		}
	}
}

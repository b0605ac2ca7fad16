package projectile

import (
	"fmt"

	"skyduel.io/internal/sim/world/kernel/model"
)

type Kind uint8

const (
	KindBullet Kind = iota
	KindMissile
)

func (k Kind) String() string {
	switch k {
	case KindBullet:
		return "BULLET"
	case KindMissile:
		return "MISSILE"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Projectile is one pool slot. When Active is false every other field is
// stale and is overwritten in full by the next Fire.
type Projectile struct {
	Active  bool       `json:"active"`
	Pos     model.Vec3 `json:"pos"`
	Vel     model.Vec3 `json:"vel"`
	Age     float64    `json:"age"`
	MaxAge  float64    `json:"max_age"`
	Damage  float64    `json:"damage"`
	OwnerID int        `json:"owner_id"`
}

func (p *Projectile) PlayerOwned() bool { return p.OwnerID == model.PlayerOwner }

// Shot is a fire request. Velocity is Forward*Speed, so Forward is expected
// to be a unit heading; the world normalizes poses when it applies them.
type Shot struct {
	Pos     model.Vec3
	Forward model.Vec3
	OwnerID int
	Speed   float64
	Damage  float64
	// MaxAge overrides the pool's max age when > 0.
	MaxAge float64
}

// Pool is a fixed-capacity projectile pool. It never grows after NewPool.
type Pool struct {
	kind   Kind
	maxAge float64
	slots  []Projectile
}

func NewPool(kind Kind, capacity int, maxAge float64) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool{
		kind:   kind,
		maxAge: maxAge,
		slots:  make([]Projectile, capacity),
	}
}

func (p *Pool) Kind() Kind      { return p.kind }
func (p *Pool) Cap() int        { return len(p.slots) }
func (p *Pool) MaxAge() float64 { return p.maxAge }

// At returns slot i for in-place mutation by the tick pipeline.
func (p *Pool) At(i int) *Projectile { return &p.slots[i] }

// Fire activates the first inactive slot. A full pool drops the shot and
// returns false without touching any active slot.
func (p *Pool) Fire(s Shot) bool {
	for i := range p.slots {
		if p.slots[i].Active {
			continue
		}
		maxAge := s.MaxAge
		if maxAge <= 0 {
			maxAge = p.maxAge
		}
		p.slots[i] = Projectile{
			Active:  true,
			Pos:     s.Pos,
			Vel:     s.Forward.Mul(s.Speed),
			Age:     0,
			MaxAge:  maxAge,
			Damage:  s.Damage,
			OwnerID: s.OwnerID,
		}
		return true
	}
	return false
}

// Advance integrates every active projectile by dt and retires those whose
// age passed their max age. It returns the number retired.
func (p *Pool) Advance(dt float64) int {
	expired := 0
	for i := range p.slots {
		pr := &p.slots[i]
		if !pr.Active {
			continue
		}
		pr.Pos = pr.Pos.Add(pr.Vel.Mul(dt))
		pr.Age += dt
		if pr.Age > pr.MaxAge {
			pr.Active = false
			expired++
		}
	}
	return expired
}

func (p *Pool) Deactivate(i int) { p.slots[i].Active = false }

func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].Active {
			n++
		}
	}
	return n
}

// Active appends copies of the active projectiles to dst.
func (p *Pool) Active(dst []Projectile) []Projectile {
	for i := range p.slots {
		if p.slots[i].Active {
			dst = append(dst, p.slots[i])
		}
	}
	return dst
}

// Reset deactivates every slot.
func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i].Active = false
	}
}

// Restore overwrites the pool contents from a snapshot. Entries beyond the
// pool capacity are ignored.
func (p *Pool) Restore(in []Projectile) {
	p.Reset()
	copy(p.slots, in)
}

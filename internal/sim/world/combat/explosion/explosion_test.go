package explosion

import (
	"math"
	"testing"

	"skyduel.io/internal/sim/world/kernel/model"
	"skyduel.io/internal/sim/world/terrain/noise"
)

func TestSpawn_TwelveFragmentsAtOrigin(t *testing.T) {
	p := NewPool(Config{Capacity: 2}, noise.NewRNG(1))
	pos := model.Vec3{10, 50, -20}
	if !p.Spawn(pos) {
		t.Fatalf("spawn failed")
	}
	got := p.Active(nil)
	if len(got) != 1 {
		t.Fatalf("active: %d", len(got))
	}
	e := got[0]
	if len(e.Fragments) != 12 || e.MaxAge != 1.8 || e.Age != 0 {
		t.Fatalf("explosion: frags=%d maxAge=%v age=%v", len(e.Fragments), e.MaxAge, e.Age)
	}
	for i, f := range e.Fragments {
		if f.Pos != pos {
			t.Fatalf("fragment %d not at origin: %v", i, f.Pos)
		}
		if f.Vel.Len() < 12-1e-9 || f.Vel.Len() > 36+1e-9 {
			t.Fatalf("fragment %d speed out of range: %v", i, f.Vel.Len())
		}
	}
}

func TestSpawn_FullPoolDrops(t *testing.T) {
	p := NewPool(Config{Capacity: 1}, noise.NewRNG(1))
	p.Spawn(model.Vec3{})
	if p.Spawn(model.Vec3{1, 1, 1}) {
		t.Fatalf("expected full pool to drop")
	}
	if p.ActiveCount() != 1 {
		t.Fatalf("active: %d", p.ActiveCount())
	}
}

func TestAdvance_GravityAndExpiry(t *testing.T) {
	p := NewPool(Config{Capacity: 1, Fragments: 4, Gravity: 10}, noise.NewRNG(3))
	p.Spawn(model.Vec3{})
	v0 := p.Active(nil)[0].Fragments[0].Vel

	p.Advance(0.1)
	v1 := p.Active(nil)[0].Fragments[0].Vel
	if math.Abs((v0[1]-v1[1])-1.0) > 1e-9 {
		t.Fatalf("vertical velocity change: got %v want 1.0", v0[1]-v1[1])
	}
	if v0[0] != v1[0] || v0[2] != v1[2] {
		t.Fatalf("horizontal velocity changed")
	}

	for i := 0; i < 16; i++ {
		p.Advance(0.1)
	}
	if p.ActiveCount() != 1 {
		t.Fatalf("expired before max age")
	}
	if n := p.Advance(0.2); n != 1 || p.ActiveCount() != 0 {
		t.Fatalf("expected expiry at 1.8s, done=%d active=%d", n, p.ActiveCount())
	}
}

func TestSpawn_DeterministicForSeed(t *testing.T) {
	a := NewPool(Config{}, noise.NewRNG(99))
	b := NewPool(Config{}, noise.NewRNG(99))
	a.Spawn(model.Vec3{})
	b.Spawn(model.Vec3{})
	fa, fb := a.Active(nil)[0].Fragments, b.Active(nil)[0].Fragments
	for i := range fa {
		if fa[i] != fb[i] {
			t.Fatalf("fragment %d differs: %v vs %v", i, fa[i], fb[i])
		}
	}
}

func TestActive_ReturnsCopies(t *testing.T) {
	p := NewPool(Config{Capacity: 1}, noise.NewRNG(1))
	p.Spawn(model.Vec3{})
	snap := p.Active(nil)
	snap[0].Fragments[0].Pos = model.Vec3{9, 9, 9}
	if p.Active(nil)[0].Fragments[0].Pos == (model.Vec3{9, 9, 9}) {
		t.Fatalf("snapshot aliases pool storage")
	}
}

func TestRestore(t *testing.T) {
	p := NewPool(Config{Capacity: 2}, noise.NewRNG(1))
	p.Spawn(model.Vec3{1, 2, 3})
	p.Advance(0.4)
	saved := p.Active(nil)

	q := NewPool(Config{Capacity: 2}, noise.NewRNG(1))
	q.Restore(saved)
	got := q.Active(nil)
	if len(got) != 1 || got[0].Age != saved[0].Age || got[0].Fragments[5] != saved[0].Fragments[5] {
		t.Fatalf("restore mismatch")
	}
}

func TestSpawnedCounter(t *testing.T) {
	p := NewPool(Config{Capacity: 1}, noise.NewRNG(1))
	p.Spawn(model.Vec3{})
	p.Spawn(model.Vec3{})
	if p.Spawned() != 1 {
		t.Fatalf("spawned: %d", p.Spawned())
	}
}

func TestAdvance_RetiresOnlyPastMaxAge(t *testing.T) {
	p := NewPool(Config{MaxAge: 1}, noise.NewRNG(3))
	p.Spawn(model.Vec3{})
	p.Advance(0.5)
	if n := p.Advance(0.5); n != 0 || p.ActiveCount() != 1 {
		t.Fatalf("retired at age == maxAge: done=%d active=%d", n, p.ActiveCount())
	}
	if n := p.Advance(0.01); n != 1 || p.ActiveCount() != 0 {
		t.Fatalf("expected retirement past maxAge: done=%d active=%d", n, p.ActiveCount())
	}
}

package noise

import (
	"math"
	"testing"
)

func TestRNG_KnownSequence(t *testing.T) {
	r := NewRNG(0)
	want := []uint32{1013904223, 1196435762, 3519870697}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("step %d: got %d want %d", i, got, w)
		}
	}
	r.Reseed(0)
	if got := r.Next(); got != want[0] {
		t.Fatalf("after reseed: got %d want %d", got, want[0])
	}
}

func TestRNG_FloatRange(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 10000; i++ {
		v := r.Range(2, 5)
		if v < 2 || v >= 5 {
			t.Fatalf("Range out of bounds: %v", v)
		}
	}
}

func TestField_SameSeedSameTable(t *testing.T) {
	a := NewField(7742)
	b := NewField(7742)
	if a.perm != b.perm || a.permMod12 != b.permMod12 {
		t.Fatalf("tables differ for the same seed")
	}
	c := NewField(7743)
	if a.perm == c.perm {
		t.Fatalf("tables identical for different seeds")
	}
}

func TestField_TableIsDuplicatedPermutation(t *testing.T) {
	f := NewField(12345)
	var seen [256]bool
	for i := 0; i < 256; i++ {
		v := f.perm[i]
		if seen[v] {
			t.Fatalf("value %d repeated", v)
		}
		seen[v] = true
		if f.perm[i+256] != v {
			t.Fatalf("entry %d not duplicated", i)
		}
		if f.permMod12[i] != v%12 {
			t.Fatalf("mod12 mismatch at %d", i)
		}
	}
}

func TestField_NoiseRangeAndDeterminism(t *testing.T) {
	f := NewField(42)
	g := NewField(42)
	for i := 0; i < 2000; i++ {
		x := float64(i)*0.173 - 91.5
		y := float64(i)*-0.311 + 12.25
		z := float64(i) * 0.057
		n2 := f.Noise2D(x, y)
		n3 := f.Noise3D(x, y, z)
		if math.Abs(n2) > 1.01 || math.Abs(n3) > 1.01 {
			t.Fatalf("noise out of range at %d: %v %v", i, n2, n3)
		}
		if math.Float64bits(n2) != math.Float64bits(g.Noise2D(x, y)) {
			t.Fatalf("Noise2D not deterministic at %d", i)
		}
		if math.Float64bits(n3) != math.Float64bits(g.Noise3D(x, y, z)) {
			t.Fatalf("Noise3D not deterministic at %d", i)
		}
	}
}

func TestField_NoiseIsZeroOnLatticeOrigin(t *testing.T) {
	// Every corner contribution at the origin is either zero-distance (dot = 0)
	// or attenuated to zero.
	f := NewField(1)
	if v := f.Noise2D(0, 0); v != 0 {
		t.Fatalf("Noise2D(0,0) = %v, want 0", v)
	}
	if v := f.Noise3D(0, 0, 0); v != 0 {
		t.Fatalf("Noise3D(0,0,0) = %v, want 0", v)
	}
}

func TestFBM_Normalization(t *testing.T) {
	f := NewField(8)
	if v := f.FBM(1.3, 2.7, 0, 2, 0.5); v != 0 {
		t.Fatalf("zero octaves: got %v", v)
	}
	if a, b := f.FBM(1.3, 2.7, 1, 2, 0.5), f.Noise2D(1.3, 2.7); a != b {
		t.Fatalf("single octave should equal Noise2D: %v vs %v", a, b)
	}
	for i := 0; i < 500; i++ {
		v := f.FBMDefault(float64(i)*0.37, float64(i)*-0.21)
		if math.Abs(v) > 1.01 {
			t.Fatalf("fbm out of range: %v", v)
		}
	}
}

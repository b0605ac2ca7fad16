package noise

import "math"

// TableSize is the length of the duplicated permutation table.
const TableSize = 512

var grad3 = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

var (
	f2 = 0.5 * (math.Sqrt(3) - 1)
	g2 = (3 - math.Sqrt(3)) / 6
)

const (
	f3 = 1.0 / 3.0
	g3 = 1.0 / 6.0
)

// Field is a seeded simplex noise source. It is immutable after construction
// and safe for concurrent reads.
type Field struct {
	seed      uint32
	perm      [TableSize]uint8
	permMod12 [TableSize]uint8
}

// NewField builds the permutation table for seed. The identity table 0..255 is
// shuffled (Fisher-Yates, high index first) with the LCG from rng.go, then
// duplicated to 512 entries so lattice lookups never wrap.
func NewField(seed uint32) *Field {
	f := &Field{seed: seed}
	var p [256]uint8
	for i := range p {
		p[i] = uint8(i)
	}
	rng := NewRNG(seed)
	for i := 255; i > 0; i-- {
		j := rng.Next() % uint32(i+1)
		p[i], p[j] = p[j], p[i]
	}
	for i := 0; i < TableSize; i++ {
		f.perm[i] = p[i&255]
		f.permMod12[i] = f.perm[i] % 12
	}
	return f
}

func (f *Field) Seed() uint32 { return f.seed }

// Perm returns the permutation entry at i (mod 512).
func (f *Field) Perm(i int) uint8 { return f.perm[i&(TableSize-1)] }

func fastFloor(x float64) int {
	return int(math.Floor(x))
}

func dot2(g [3]float64, x, y float64) float64 { return g[0]*x + g[1]*y }

func dot3(g [3]float64, x, y, z float64) float64 { return g[0]*x + g[1]*y + g[2]*z }

// Noise2D samples 2D simplex noise. The result is roughly in [-1, 1].
func (f *Field) Noise2D(xin, yin float64) float64 {
	s := (xin + yin) * f2
	i := fastFloor(xin + s)
	j := fastFloor(yin + s)
	t := float64(i+j) * g2
	x0 := xin - (float64(i) - t)
	y0 := yin - (float64(j) - t)

	var i1, j1 int
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1 + 2*g2
	y2 := y0 - 1 + 2*g2

	ii := i & 255
	jj := j & 255
	gi0 := f.permMod12[ii+int(f.perm[jj])]
	gi1 := f.permMod12[ii+i1+int(f.perm[jj+j1])]
	gi2 := f.permMod12[ii+1+int(f.perm[jj+1])]

	var n0, n1, n2 float64
	if t0 := 0.5 - x0*x0 - y0*y0; t0 >= 0 {
		t0 *= t0
		n0 = t0 * t0 * dot2(grad3[gi0], x0, y0)
	}
	if t1 := 0.5 - x1*x1 - y1*y1; t1 >= 0 {
		t1 *= t1
		n1 = t1 * t1 * dot2(grad3[gi1], x1, y1)
	}
	if t2 := 0.5 - x2*x2 - y2*y2; t2 >= 0 {
		t2 *= t2
		n2 = t2 * t2 * dot2(grad3[gi2], x2, y2)
	}
	return 70 * (n0 + n1 + n2)
}

// Noise3D samples 3D simplex noise. The result is roughly in [-1, 1].
func (f *Field) Noise3D(xin, yin, zin float64) float64 {
	s := (xin + yin + zin) * f3
	i := fastFloor(xin + s)
	j := fastFloor(yin + s)
	k := fastFloor(zin + s)
	t := float64(i+j+k) * g3
	x0 := xin - (float64(i) - t)
	y0 := yin - (float64(j) - t)
	z0 := zin - (float64(k) - t)

	var i1, j1, k1, i2, j2, k2 int
	if x0 >= y0 {
		switch {
		case y0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 1, 0
		case x0 >= z0:
			i1, j1, k1, i2, j2, k2 = 1, 0, 0, 1, 0, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 1, 0, 1
		}
	} else {
		switch {
		case y0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 0, 1, 0, 1, 1
		case x0 < z0:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 0, 1, 1
		default:
			i1, j1, k1, i2, j2, k2 = 0, 1, 0, 1, 1, 0
		}
	}

	x1 := x0 - float64(i1) + g3
	y1 := y0 - float64(j1) + g3
	z1 := z0 - float64(k1) + g3
	x2 := x0 - float64(i2) + 2*g3
	y2 := y0 - float64(j2) + 2*g3
	z2 := z0 - float64(k2) + 2*g3
	x3 := x0 - 1 + 3*g3
	y3 := y0 - 1 + 3*g3
	z3 := z0 - 1 + 3*g3

	ii := i & 255
	jj := j & 255
	kk := k & 255
	p := &f.perm
	gi0 := f.permMod12[ii+int(p[jj+int(p[kk])])]
	gi1 := f.permMod12[ii+i1+int(p[jj+j1+int(p[kk+k1])])]
	gi2 := f.permMod12[ii+i2+int(p[jj+j2+int(p[kk+k2])])]
	gi3 := f.permMod12[ii+1+int(p[jj+1+int(p[kk+1])])]

	var n0, n1, n2, n3 float64
	if t0 := 0.6 - x0*x0 - y0*y0 - z0*z0; t0 >= 0 {
		t0 *= t0
		n0 = t0 * t0 * dot3(grad3[gi0], x0, y0, z0)
	}
	if t1 := 0.6 - x1*x1 - y1*y1 - z1*z1; t1 >= 0 {
		t1 *= t1
		n1 = t1 * t1 * dot3(grad3[gi1], x1, y1, z1)
	}
	if t2 := 0.6 - x2*x2 - y2*y2 - z2*z2; t2 >= 0 {
		t2 *= t2
		n2 = t2 * t2 * dot3(grad3[gi2], x2, y2, z2)
	}
	if t3 := 0.6 - x3*x3 - y3*y3 - z3*z3; t3 >= 0 {
		t3 *= t3
		n3 = t3 * t3 * dot3(grad3[gi3], x3, y3, z3)
	}
	return 32 * (n0 + n1 + n2 + n3)
}

// FBM defaults.
const (
	DefaultOctaves    = 4
	DefaultLacunarity = 2.0
	DefaultGain       = 0.5
)

// FBM sums octaves of Noise2D with frequency scaled by lacunarity and amplitude
// by gain per octave, divided by the total amplitude used. Non-positive octave
// counts return 0.
func (f *Field) FBM(x, y float64, octaves int, lacunarity, gain float64) float64 {
	var sum, ampSum float64
	amp, freq := 1.0, 1.0
	for o := 0; o < octaves; o++ {
		sum += f.Noise2D(x*freq, y*freq) * amp
		ampSum += amp
		freq *= lacunarity
		amp *= gain
	}
	if ampSum == 0 {
		return 0
	}
	return sum / ampSum
}

// FBMDefault is FBM with 4 octaves, lacunarity 2 and gain 0.5.
func (f *Field) FBMDefault(x, y float64) float64 {
	return f.FBM(x, y, DefaultOctaves, DefaultLacunarity, DefaultGain)
}

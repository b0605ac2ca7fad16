package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon guards divisions by vector lengths and amplitude sums.
const Epsilon = 1e-9

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Smoothstep is the cubic Hermite ramp 3t^2-2t^3 of x between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge1 == edge0 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// ClampDt bounds a frame delta to [0, max]. NaN and negative deltas become 0.
func ClampDt(dt, max float64) float64 {
	if math.IsNaN(dt) || dt <= 0 {
		return 0
	}
	if max > 0 && dt > max {
		return max
	}
	return dt
}

// Decay moves a timer toward zero by dt, never below zero.
func Decay(v, dt float64) float64 {
	v -= dt
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeOrZero returns v/|v|, or the zero vector when |v| is too small to divide by.
func NormalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

func DistSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

package gen

import (
	"errors"
	"math"
)

// PlanePoint is a position in the sampler's native noise plane. Plane Y runs
// opposite to world Z, so the only way to build one from world coordinates is
// ToPlane.
type PlanePoint struct {
	X, Y float64
}

// ToPlane converts world (x, z) into plane space: X = x, Y = -z.
func ToPlane(x, z float64) PlanePoint {
	return PlanePoint{X: x, Y: -z}
}

// World converts back into world (x, z).
func (p PlanePoint) World() (x, z float64) {
	return p.X, -p.Y
}

var (
	ErrNegativeSeed = errors.New("terrain seed must not be negative")
	ErrSeedRange    = errors.New("terrain seed exceeds 32 bits")
)

// CoerceSeed validates an externally supplied seed before it reaches the
// sampler. Any value in [0, 2^32) is accepted verbatim.
func CoerceSeed(seed int64) (uint32, error) {
	if seed < 0 {
		return 0, ErrNegativeSeed
	}
	if seed > math.MaxUint32 {
		return 0, ErrSeedRange
	}
	return uint32(seed), nil
}

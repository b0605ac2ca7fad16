package noise

// RNG is the linear congruential generator that drives permutation shuffles and
// explosion fragment jitter. Its whole state is one uint32, so copies are
// independent streams.
type RNG struct {
	state uint32
}

const (
	lcgMul = 1664525
	lcgInc = 1013904223
)

func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

func (r *RNG) Reseed(seed uint32) { r.state = seed }

// State returns the current generator state (for snapshots and digests).
func (r *RNG) State() uint32 { return r.state }

// Next advances the generator: s = s*1664525 + 1013904223 mod 2^32.
func (r *RNG) Next() uint32 {
	r.state = r.state*lcgMul + lcgInc
	return r.state
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Next()) / 4294967296.0
}

// Range returns a value in [lo, hi).
func (r *RNG) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

package gen

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestSampleHeight_Seed7742Baseline(t *testing.T) {
	s := NewSampler(7742)
	got := s.SampleHeight(PlanePoint{X: 0, Y: 0})
	const want = 14.893011643620111
	if !approx(got, want) {
		t.Fatalf("height(0,0) = %.15f, want %.15f", got, want)
	}
	for i := 0; i < 5; i++ {
		if again := s.SampleHeight(PlanePoint{}); math.Float64bits(again) != math.Float64bits(got) {
			t.Fatalf("repeat %d differs: %v vs %v", i, again, got)
		}
	}
	other := NewSampler(7742)
	if v := other.SampleHeight(PlanePoint{}); math.Float64bits(v) != math.Float64bits(got) {
		t.Fatalf("fresh sampler differs: %v vs %v", v, got)
	}
}

func TestHeightAt_UsesNegatedZ(t *testing.T) {
	s := NewSampler(7742)
	const want = 46.30556785193036
	if got := s.HeightAt(1000, 2500); !approx(got, want) {
		t.Fatalf("HeightAt(1000,2500) = %v, want %v", got, want)
	}
	if got := s.SampleHeight(PlanePoint{X: 1000, Y: -2500}); !approx(got, want) {
		t.Fatalf("plane height = %v, want %v", got, want)
	}
	p := ToPlane(12, 34)
	if x, z := p.World(); x != 12 || z != 34 {
		t.Fatalf("round trip = (%v,%v)", x, z)
	}
}

func TestSetSeed_ReplacesAllFields(t *testing.T) {
	s := NewSampler(1)
	before := s.HeightAt(420, -77)
	s.SetSeed(7742)
	if s.Seed() != 7742 {
		t.Fatalf("seed = %d", s.Seed())
	}
	ref := NewSampler(7742)
	for _, pt := range [][2]float64{{420, -77}, {0, 0}, {-3100, 950}} {
		if a, b := s.HeightAt(pt[0], pt[1]), ref.HeightAt(pt[0], pt[1]); a != b {
			t.Fatalf("reseeded sampler differs at %v: %v vs %v", pt, a, b)
		}
		if a, b := s.ForestDensityAt(pt[0], pt[1]), ref.ForestDensityAt(pt[0], pt[1]); a != b {
			t.Fatalf("forest differs at %v", pt)
		}
	}
	s.SetSeed(1)
	if after := s.HeightAt(420, -77); after != before {
		t.Fatalf("seed 1 not reproduced: %v vs %v", after, before)
	}
}

func TestBiomeQueries_InUnitRange(t *testing.T) {
	s := NewSampler(99)
	for i := 0; i < 400; i++ {
		x := float64(i*37 - 7000)
		z := float64(i*-53 + 4000)
		for name, v := range map[string]float64{
			"forest": s.ForestDensityAt(x, z),
			"field":  s.FieldVarietyAt(x, z),
			"micro":  s.MicroDetailAt(x, z),
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%s out of range at (%v,%v): %v", name, x, z, v)
			}
		}
	}
}

func TestHeightRange_Bounded(t *testing.T) {
	s := NewSampler(5)
	var water, land int
	for i := -60; i < 60; i++ {
		for j := -60; j < 60; j++ {
			x, z := float64(i)*250, float64(j)*250
			h := s.HeightAt(x, z)
			if math.IsNaN(h) || math.Abs(h) > 1.5*HeightScale {
				t.Fatalf("height out of range at (%v,%v): %v", x, z, h)
			}
			if s.IsWaterAt(x, z) {
				water++
			} else {
				land++
			}
		}
	}
	if water == 0 || land == 0 {
		t.Fatalf("expected a mix of land and water, got water=%d land=%d", water, land)
	}
}

func TestIsRiver_BandContainsCarvedChannel(t *testing.T) {
	s := NewSampler(3)
	for i := 0; i < 20000; i++ {
		p := PlanePoint{X: float64(i%200) * 97, Y: float64(i/200) * 89}
		if s.riverValue(p) < riverHalfWidth && !s.IsRiver(p) {
			t.Fatalf("carved point %v not reported as river", p)
		}
	}
}

func TestSampler_ConcurrentReads(t *testing.T) {
	s := NewSampler(7742)
	want := s.HeightAt(250, 250)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if v := s.HeightAt(250, 250); v != want {
					t.Errorf("concurrent read differs: %v", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCoerceSeed(t *testing.T) {
	if v, err := CoerceSeed(7742); err != nil || v != 7742 {
		t.Fatalf("CoerceSeed(7742) = %d, %v", v, err)
	}
	if _, err := CoerceSeed(-1); !errors.Is(err, ErrNegativeSeed) {
		t.Fatalf("negative seed: %v", err)
	}
	if _, err := CoerceSeed(1 << 33); !errors.Is(err, ErrSeedRange) {
		t.Fatalf("large seed: %v", err)
	}
}

func TestBiomeAt_OceanBelowSeaLevel(t *testing.T) {
	s := NewSampler(11)
	for i := 0; i < 3000; i++ {
		x, z := float64(i%60)*400-12000, float64(i/60)*400-10000
		b := s.BiomeAt(x, z)
		if s.HeightAt(x, z) < SeaLevel && b != BiomeOcean {
			t.Fatalf("submerged point classified as %s", b)
		}
	}
}

func TestIslandBlend_ContinuousAndCapped(t *testing.T) {
	const h = -0.3
	if got := islandBlend(h, islandThreshold); got != h {
		t.Fatalf("at threshold: %v want %v", got, h)
	}
	if got := islandBlend(h, islandThreshold+1e-9); math.Abs(got-h) > 1e-12 {
		t.Fatalf("just above threshold: %v jumps from %v", got, h)
	}
	if got := islandBlend(h, 1); !approx(got, islandPeak) {
		t.Fatalf("at n=1: %v want %v", got, islandPeak)
	}
	prev := h
	for n := islandThreshold; n <= 1; n += 0.01 {
		got := islandBlend(h, n)
		if got < prev-1e-12 || got > islandPeak {
			t.Fatalf("n=%v: %v (prev %v)", n, got, prev)
		}
		prev = got
	}
}

func TestSampleHeight_IslandOverlayRaisesDeepOcean(t *testing.T) {
	found := 0
	for seed := uint32(1); seed <= 40 && found < 5; seed++ {
		s := NewSampler(seed)
		fs := s.fields.Load()
		for i := -60; i < 60 && found < 5; i++ {
			for j := -60; j < 60 && found < 5; j++ {
				p := PlanePoint{X: float64(i) * 400, Y: float64(j) * 400}
				base := fs.baseHeight(p)
				n := fs.island.Noise2D(p.X*islandFreq, p.Y*islandFreq)
				if base >= deepOcean || n <= islandThreshold+0.05 {
					continue
				}
				found++
				raised := fs.islandOverlay(p, base)
				if raised <= base {
					t.Fatalf("seed %d %v: overlay %v did not raise base %v", seed, p, raised, base)
				}
				h := s.SampleHeight(p)
				if h > islandPeak*HeightScale {
					t.Fatalf("seed %d %v: height %v above island peak %v", seed, p, h, islandPeak*HeightScale)
				}
				if !approx(h, riverCarve(raised, fs.riverValue(p))*HeightScale) {
					t.Fatalf("seed %d %v: height %v does not include island overlay", seed, p, h)
				}
			}
		}
	}
	if found == 0 {
		t.Fatalf("no deep-ocean island point found")
	}
}

func TestSampleHeight_RiverCarvesChannel(t *testing.T) {
	s := NewSampler(7742)
	fs := s.fields.Load()
	found := 0
	for i := -200; i < 200 && found < 5; i++ {
		for j := -200; j < 200 && found < 5; j++ {
			p := PlanePoint{X: float64(i) * 97, Y: float64(j) * 97}
			r := fs.riverValue(p)
			uncarved := fs.islandOverlay(p, fs.baseHeight(p)) * HeightScale
			h := s.SampleHeight(p)
			if r >= riverHalfWidth {
				if h != uncarved {
					t.Fatalf("%v outside channel carved: %v vs %v", p, h, uncarved)
				}
				continue
			}
			if h > uncarved {
				t.Fatalf("%v (r=%v) raised by carving: %v > %v", p, r, h, uncarved)
			}
			if r > riverHalfWidth*0.9 {
				continue
			}
			found++
			if h >= uncarved {
				t.Fatalf("%v (r=%v) not carved: %v >= %v", p, r, h, uncarved)
			}
			if uncarved-h > riverDepth*HeightScale+1e-9 {
				t.Fatalf("%v carved deeper than riverDepth: %v", p, uncarved-h)
			}
		}
	}
	if found == 0 {
		t.Fatalf("no river channel point found")
	}
	if got := riverCarve(0.2, riverHalfWidth); got != 0.2 {
		t.Fatalf("carve at half width edge: %v", got)
	}
	if got := riverCarve(0.2, 0); !approx(got, 0.2-riverDepth) {
		t.Fatalf("carve at channel center: %v", got)
	}
}

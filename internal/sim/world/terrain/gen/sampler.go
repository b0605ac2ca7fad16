package gen

import (
	"math"
	"sync/atomic"

	"skyduel.io/internal/sim/world/logic/mathx"
	"skyduel.io/internal/sim/world/terrain/noise"
)

// HeightScale converts normalized terrain height into meters.
const HeightScale = 180.0

// SeaLevel is the world height of the water surface, in meters.
const SeaLevel = 0.0

// Layer frequencies and weights. The five base layers are tuned so the
// summed slope stays gentle: rolling terrain with no cliffs.
const (
	continentFreq = 0.00045
	continentAmp  = 0.60

	mountainFreq = 0.0018
	mountainAmp  = 0.25

	peakFreq = 0.0065
	peakAmp  = 0.10

	hillFreq = 0.015
	hillAmp  = 0.06

	microFreq = 0.06
	microAmp  = 0.015

	baseGain   = 0.55
	baseOffset = 0.08
)

const (
	deepOcean       = -0.15
	islandFreq      = 0.0012
	islandThreshold = 0.45
	islandPeak      = 0.30

	riverFreq      = 0.0008
	riverHalfWidth = 0.035
	riverBand      = 0.045
	riverDepth     = 0.05

	forestFreq  = 0.004
	fieldFreq   = 0.011
	detailFreq  = 0.05
	biomeOffset = 311.7
)

// Per-layer seed offsets, so the six fields are independent.
const (
	seedContinent uint32 = 0
	seedDetail    uint32 = 101
	seedBiome     uint32 = 202
	seedRiver     uint32 = 303
	seedIsland    uint32 = 404
	seedMicro     uint32 = 505
)

type fieldSet struct {
	seed      uint32
	continent *noise.Field
	detail    *noise.Field
	biome     *noise.Field
	river     *noise.Field
	island    *noise.Field
	micro     *noise.Field
}

func newFieldSet(seed uint32) *fieldSet {
	return &fieldSet{
		seed:      seed,
		continent: noise.NewField(seed + seedContinent),
		detail:    noise.NewField(seed + seedDetail),
		biome:     noise.NewField(seed + seedBiome),
		river:     noise.NewField(seed + seedRiver),
		island:    noise.NewField(seed + seedIsland),
		micro:     noise.NewField(seed + seedMicro),
	}
}

// Sampler answers height, water and biome queries for one seed. Queries are
// pure and reentrant. SetSeed swaps all six fields at once; it must finish
// before the next query in program order.
type Sampler struct {
	fields atomic.Pointer[fieldSet]
}

func NewSampler(seed uint32) *Sampler {
	s := &Sampler{}
	s.SetSeed(seed)
	return s
}

func (s *Sampler) SetSeed(seed uint32) {
	s.fields.Store(newFieldSet(seed))
}

func (s *Sampler) Seed() uint32 {
	return s.fields.Load().seed
}

// SampleHeight returns terrain height in meters at a plane-space point.
func (s *Sampler) SampleHeight(p PlanePoint) float64 {
	fs := s.fields.Load()
	h := fs.islandOverlay(p, fs.baseHeight(p))
	h = riverCarve(h, fs.riverValue(p))
	return h * HeightScale
}

// baseHeight is the normalized sum of the five layers before overlays.
func (fs *fieldSet) baseHeight(p PlanePoint) float64 {
	x, y := p.X, p.Y
	h := fs.continent.Noise2D(x*continentFreq, y*continentFreq) * continentAmp
	h += fs.detail.Noise2D(x*mountainFreq, y*mountainFreq) * mountainAmp
	ridge := 1 - 2*math.Abs(fs.detail.Noise2D(x*peakFreq+17.3, y*peakFreq-4.1))
	h += ridge * peakAmp
	h += fs.continent.Noise2D(x*hillFreq+53.9, y*hillFreq+11.2) * hillAmp
	h += fs.detail.Noise2D(x*microFreq-23.5, y*microFreq+88.8) * microAmp
	return h*baseGain + baseOffset
}

// islandOverlay raises deep ocean toward islandPeak where the island field
// clears its threshold.
func (fs *fieldSet) islandOverlay(p PlanePoint, h float64) float64 {
	if h >= deepOcean {
		return h
	}
	return islandBlend(h, fs.island.Noise2D(p.X*islandFreq, p.Y*islandFreq))
}

// islandBlend is continuous in n: at the threshold it returns h unchanged and
// at n=1 it returns islandPeak.
func islandBlend(h, n float64) float64 {
	if n <= islandThreshold {
		return h
	}
	t := mathx.Clamp01((n - islandThreshold) / (1 - islandThreshold))
	w := mathx.Smoothstep(0, 1, mathx.Smoothstep(0, 1, t))
	return mathx.Lerp(h, islandPeak, w)
}

// riverCarve subtracts channel depth where r, the river field magnitude, is
// inside the carving half width.
func riverCarve(h, r float64) float64 {
	if r >= riverHalfWidth {
		return h
	}
	return h - mathx.Smoothstep(0, 1, 1-r/riverHalfWidth)*riverDepth
}

func (fs *fieldSet) riverValue(p PlanePoint) float64 {
	return math.Abs(fs.river.Noise2D(p.X*riverFreq, p.Y*riverFreq))
}

func (s *Sampler) riverValue(p PlanePoint) float64 {
	return s.fields.Load().riverValue(p)
}

// IsRiver reports whether p lies in the river band. The band is wider than
// the carved channel so banks count as river.
func (s *Sampler) IsRiver(p PlanePoint) bool {
	return s.riverValue(p) < riverBand
}

func remap01(v float64) float64 { return mathx.Clamp01(v*0.5 + 0.5) }

func (s *Sampler) ForestDensity(p PlanePoint) float64 {
	return remap01(s.fields.Load().biome.Noise2D(p.X*forestFreq, p.Y*forestFreq))
}

func (s *Sampler) FieldVariety(p PlanePoint) float64 {
	return remap01(s.fields.Load().biome.Noise2D(p.X*fieldFreq+biomeOffset, p.Y*fieldFreq-biomeOffset))
}

func (s *Sampler) MicroDetail(p PlanePoint) float64 {
	return remap01(s.fields.Load().micro.Noise2D(p.X*detailFreq, p.Y*detailFreq))
}

// World-space entry points. These are what gameplay code should call.

func (s *Sampler) HeightAt(x, z float64) float64 { return s.SampleHeight(ToPlane(x, z)) }

// IsWaterAt is true below sea level or inside a carved river channel.
func (s *Sampler) IsWaterAt(x, z float64) bool {
	p := ToPlane(x, z)
	if s.SampleHeight(p) < SeaLevel {
		return true
	}
	return s.riverValue(p) < riverHalfWidth
}

func (s *Sampler) IsRiverAt(x, z float64) bool { return s.IsRiver(ToPlane(x, z)) }

func (s *Sampler) ForestDensityAt(x, z float64) float64 { return s.ForestDensity(ToPlane(x, z)) }

func (s *Sampler) FieldVarietyAt(x, z float64) float64 { return s.FieldVariety(ToPlane(x, z)) }

func (s *Sampler) MicroDetailAt(x, z float64) float64 { return s.MicroDetail(ToPlane(x, z)) }

// GroundAt returns the height an aircraft can collide with: terrain, or the
// water surface where terrain is submerged.
func (s *Sampler) GroundAt(x, z float64) float64 {
	return math.Max(s.HeightAt(x, z), SeaLevel)
}

package gen

// Biome is a coarse surface class used for prop placement and map tinting.
type Biome string

const (
	BiomeOcean    Biome = "OCEAN"
	BiomeRiver    Biome = "RIVER"
	BiomeBeach    Biome = "BEACH"
	BiomeForest   Biome = "FOREST"
	BiomeField    Biome = "FIELD"
	BiomeMountain Biome = "MOUNTAIN"
)

const (
	beachBand     = 4.0
	mountainLine  = 0.45 * HeightScale
	forestCutover = 0.58
)

// BiomeAt classifies a world position from height, river and biome noise.
func (s *Sampler) BiomeAt(x, z float64) Biome {
	p := ToPlane(x, z)
	h := s.SampleHeight(p)
	switch {
	case h < SeaLevel:
		return BiomeOcean
	case s.riverValue(p) < riverHalfWidth:
		return BiomeRiver
	case h < SeaLevel+beachBand:
		return BiomeBeach
	case h > mountainLine:
		return BiomeMountain
	case s.ForestDensity(p) > forestCutover:
		return BiomeForest
	default:
		return BiomeField
	}
}

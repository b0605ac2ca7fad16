package store

import (
	"math"
	"sort"
	"sync"

	genpkg "skyduel.io/internal/sim/world/terrain/gen"
)

// HeightSource is the part of the sampler the store needs.
type HeightSource interface {
	HeightAt(x, z float64) float64
	IsWaterAt(x, z float64) bool
	Seed() uint32
}

var _ HeightSource = (*genpkg.Sampler)(nil)

// TileStore lazily samples and caches height tiles, evicting the least
// recently used one past maxTiles. It is safe for concurrent use; tiles are
// immutable once built.
type TileStore struct {
	src      HeightSource
	step     float64
	maxTiles int

	mu    sync.Mutex
	seed  uint32
	tiles map[TileKey]*Tile
	order []TileKey
}

func NewTileStore(src HeightSource, step float64, maxTiles int) *TileStore {
	if step <= 0 {
		step = 16
	}
	if maxTiles <= 0 {
		maxTiles = 256
	}
	return &TileStore{
		src:      src,
		step:     step,
		maxTiles: maxTiles,
		seed:     src.Seed(),
		tiles:    map[TileKey]*Tile{},
	}
}

func (s *TileStore) Step() float64 { return s.step }

// TileAt returns the tile covering the world position. Tile k spans
// [k*span, (k+1)*span) on each axis, the same span Origin uses.
func (s *TileStore) TileAt(x, z float64) *Tile {
	span := float64(TileSize) * s.step
	return s.Tile(TileKey{
		TX: int(math.Floor(x / span)),
		TZ: int(math.Floor(z / span)),
	})
}

func (s *TileStore) Tile(k TileKey) *Tile {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A reseed invalidates every cached tile.
	if seed := s.src.Seed(); seed != s.seed {
		s.seed = seed
		s.tiles = map[TileKey]*Tile{}
		s.order = s.order[:0]
	}
	if t := s.tiles[k]; t != nil {
		s.touch(k)
		return t
	}
	t := s.generate(k)
	s.tiles[k] = t
	s.order = append(s.order, k)
	for len(s.order) > s.maxTiles {
		delete(s.tiles, s.order[0])
		s.order = s.order[1:]
	}
	return t
}

// touch moves k to the most recently used end of order.
func (s *TileStore) touch(k TileKey) {
	for i, o := range s.order {
		if o == k {
			copy(s.order[i:], s.order[i+1:])
			s.order[len(s.order)-1] = k
			return
		}
	}
}

func (s *TileStore) generate(k TileKey) *Tile {
	t := &Tile{
		TX:      k.TX,
		TZ:      k.TZ,
		Step:    s.step,
		Heights: make([]float32, TileSize*TileSize),
		Water:   make([]bool, TileSize*TileSize),
	}
	ox, oz := t.Origin()
	for z := 0; z < TileSize; z++ {
		for x := 0; x < TileSize; x++ {
			wx := ox + float64(x)*s.step
			wz := oz + float64(z)*s.step
			i := t.index(x, z)
			t.Heights[i] = float32(s.src.HeightAt(wx, wz))
			t.Water[i] = s.src.IsWaterAt(wx, wz)
		}
	}
	t.hash = t.computeDigest()
	return t
}

func (s *TileStore) LoadedTileKeys() []TileKey {
	s.mu.Lock()
	keys := make([]TileKey, 0, len(s.tiles))
	for k := range s.tiles {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TX != keys[j].TX {
			return keys[i].TX < keys[j].TX
		}
		return keys[i].TZ < keys[j].TZ
	})
	return keys
}

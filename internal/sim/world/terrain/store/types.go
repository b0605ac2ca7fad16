package store

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// TileSize is the number of height samples along each tile edge.
const TileSize = 32

type TileKey struct {
	TX int
	TZ int
}

// Tile is a TileSize x TileSize grid of world heights starting at
// (TX*TileSize*Step, TZ*TileSize*Step), row-major in z.
type Tile struct {
	TX, TZ  int
	Step    float64
	Heights []float32
	Water   []bool

	hash [32]byte
}

func (t *Tile) index(x, z int) int {
	return x + z*TileSize
}

func (t *Tile) Height(x, z int) float32 {
	return t.Heights[t.index(x, z)]
}

func (t *Tile) IsWater(x, z int) bool {
	return t.Water[t.index(x, z)]
}

// Origin returns the world position of sample (0, 0).
func (t *Tile) Origin() (x, z float64) {
	span := float64(TileSize) * t.Step
	return float64(t.TX) * span, float64(t.TZ) * span
}

// Digest is the sha256 of the height samples, fixed when the tile is built.
func (t *Tile) Digest() [32]byte { return t.hash }

func (t *Tile) computeDigest() [32]byte {
	h := sha256.New()
	var tmp [4]byte
	for _, v := range t.Heights {
		binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
		h.Write(tmp[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

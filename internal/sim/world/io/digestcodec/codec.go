// Package digestcodec writes the canonical little-endian encoding hashed into
// state digests.
package digestcodec

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// Writer encodes primitives into h. Floats are written by their IEEE bits,
// so -0 and 0 digest differently.
type Writer struct {
	h   hashWriter
	tmp [8]byte
}

func NewWriter(h hashWriter) *Writer { return &Writer{h: h} }

func (w *Writer) U64(v uint64) {
	binary.LittleEndian.PutUint64(w.tmp[:], v)
	w.h.Write(w.tmp[:])
}

func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.tmp[:4], v)
	w.h.Write(w.tmp[:4])
}

func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

func (w *Writer) Int(v int) { w.U64(uint64(int64(v))) }

func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

func (w *Writer) Bool(v bool) {
	w.tmp[0] = BoolByte(v)
	w.h.Write(w.tmp[:1])
}

// String writes a length prefix and the bytes.
func (w *Writer) String(s string) {
	w.U64(uint64(len(s)))
	w.h.Write([]byte(s))
}

func (w *Writer) Vec3(v mgl64.Vec3) {
	w.F64(v[0])
	w.F64(v[1])
	w.F64(v[2])
}

func BoolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

package digestcodec

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWriter_Layout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.U64(1)
	w.U32(2)
	w.Bool(true)
	w.String("ab")
	w.Vec3(mgl64.Vec3{0, 1, 2})
	want := 8 + 4 + 1 + (8 + 2) + 24
	if buf.Len() != want {
		t.Fatalf("len: got %d want %d", buf.Len(), want)
	}
	if buf.Bytes()[0] != 1 || buf.Bytes()[8] != 2 || buf.Bytes()[12] != 1 {
		t.Fatalf("little-endian layout wrong: %v", buf.Bytes()[:13])
	}
}

func TestWriter_NegativeZeroDiffers(t *testing.T) {
	var a, b bytes.Buffer
	NewWriter(&a).F64(0)
	negZero := 0.0
	negZero = -negZero
	NewWriter(&b).F64(negZero)
	if bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("0 and -0 encode the same")
	}
}

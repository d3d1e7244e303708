package audioio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestStreamRead(t *testing.T) {
	t.Parallel()

	calls := 0
	s := &stream{channels: 2, fill: func(buf []float32, frames int) {
		calls++

		for i := range frames {
			buf[2*i] = float32(i)
			buf[2*i+1] = -float32(i)
		}
	}}

	p := make([]byte, 8*3+5)

	n, err := s.Read(p)
	if err != nil || n != 24 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	for i := range 3 {
		l := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i+4:]))

		if l != float32(i) || r != -float32(i) {
			t.Fatalf("frame %d: %v %v", i, l, r)
		}
	}

	if n, _ := s.Read(p[:7]); n != 0 || calls != 1 {
		t.Fatalf("partial frame rendered: n=%d calls=%d", n, calls)
	}
}

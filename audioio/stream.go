package audioio

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrNoDevice is returned when no audio output is available.
var ErrNoDevice = errors.New("audioio: no audio device")

// Callback fills buf with frames interleaved frames. It runs on the audio
// thread.
type Callback func(buf []float32, frames int)

// stream adapts a Callback to the byte reader an audio backend pulls from.
type stream struct {
	channels int
	fill     Callback
	samples  []float32
}

// Read renders whole frames of little-endian float32 into p.
func (s *stream) Read(p []byte) (int, error) {
	frameBytes := 4 * s.channels
	frames := len(p) / frameBytes

	if frames == 0 {
		return 0, nil
	}

	n := frames * s.channels
	if cap(s.samples) < n {
		s.samples = make([]float32, n)
	}

	buf := s.samples[:n]
	clear(buf)
	s.fill(buf, frames)

	putFloat32LE(p, buf)

	return n * 4, nil
}

func putFloat32LE(dst []byte, src []float32) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(v))
	}
}

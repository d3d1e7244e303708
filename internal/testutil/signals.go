package testutil

import (
	"math"
	"math/rand"
)

// Sample is the element type of test signals.
type Sample interface {
	~float32 | ~float64
}

// DeterministicSine generates a sine wave starting at phase 0.
func DeterministicSine[T Sample](freqHz, sampleRate, amplitude float64, length int) []T {
	out := make([]T, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = T(amplitude * math.Sin(step*float64(i)))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise[T Sample](seed int64, amplitude float64, length int) []T {
	out := make([]T, length)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = T((rng.Float64()*2 - 1) * amplitude)
	}

	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse[T Sample](length, pos int) []T {
	out := make([]T, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// PlanarNoise returns channels independent noise signals, seeded from seed.
func PlanarNoise(seed int64, amplitude float64, channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = DeterministicNoise[float32](seed+int64(ch), amplitude, frames)
	}

	return out
}

// ClonePlanar deep-copies planar buffers.
func ClonePlanar(in [][]float32) [][]float32 {
	out := make([][]float32, len(in))
	for ch := range in {
		out[ch] = append([]float32(nil), in[ch]...)
	}

	return out
}

// Interleave packs planar channels of equal length into one slice.
func Interleave(planar [][]float32) []float32 {
	if len(planar) == 0 {
		return nil
	}

	frames := len(planar[0])
	out := make([]float32, frames*len(planar))

	for ch, data := range planar {
		for i, v := range data {
			out[i*len(planar)+ch] = v
		}
	}

	return out
}

// Deinterleave splits an interleaved slice into channels.
func Deinterleave(data []float32, channels int) [][]float32 {
	frames := len(data) / channels
	out := make([][]float32, channels)

	for ch := range out {
		out[ch] = make([]float32, frames)
		for i := range frames {
			out[ch][i] = data[i*channels+ch]
		}
	}

	return out
}

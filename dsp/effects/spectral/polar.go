package spectral

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// polar is the per channel scratch for magnitude and phase analysis.
type polar struct {
	re, im []float64
	mag    []float64
}

func newPolar(bins int) polar {
	return polar{
		re:  make([]float64, bins),
		im:  make([]float64, bins),
		mag: make([]float64, bins),
	}
}

// load splits spec into its parts and computes the magnitudes.
func (p *polar) load(spec []complex128) {
	for k, v := range spec {
		p.re[k] = real(v)
		p.im[k] = imag(v)
	}

	vecmath.Magnitude(p.mag, p.re, p.im)
}

func (p *polar) phase(k int) float64 {
	return math.Atan2(p.im[k], p.re[k])
}

// omegas returns the centre frequency of every bin in radians per sample.
func omegas(fftSize, bins int) []float64 {
	w := make([]float64, bins)
	for k := range w {
		w[k] = 2 * math.Pi * float64(k) / float64(fftSize)
	}

	return w
}

func wrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}

	return x - math.Pi
}

// realEdges zeroes the imaginary parts of the DC and Nyquist bins, which a
// real signal cannot carry.
func realEdges(spec []complex128) {
	if len(spec) == 0 {
		return
	}

	spec[0] = complex(real(spec[0]), 0)
	last := len(spec) - 1
	spec[last] = complex(real(spec[last]), 0)
}

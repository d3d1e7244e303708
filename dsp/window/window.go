package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-vecmath"
)

// Function identifies a WOLA window function.
type Function int

const (
	Rectangle Function = iota
	Hann
	Hamming
	Blackman
	BlackmanHarris
	Gaussian
	FlatTop
	Welch
	Triangle
)

// All lists every supported window function in declaration order.
var All = []Function{
	Rectangle, Hann, Hamming, Blackman, BlackmanHarris,
	Gaussian, FlatTop, Welch, Triangle,
}

var names = [...]string{
	Rectangle:      "Rectangle",
	Hann:           "Hann",
	Hamming:        "Hamming",
	Blackman:       "Blackman",
	BlackmanHarris: "Blackman Harris",
	Gaussian:       "Gaussian",
	FlatTop:        "Flat top",
	Welch:          "Welch",
	Triangle:       "Triangle",
}

var (
	hannCoeffs           = []float64{0.5, -0.5}
	hammingCoeffs        = []float64{0.54, -0.46}
	blackmanCoeffs       = []float64{0.42, -0.5, 0.08}
	blackmanHarrisCoeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
	flatTopCoeffs        = []float64{0.21557895, -0.41663158, 0.277263158, -0.083578947, 0.006947368}
)

// defaultGaussAlpha puts the window edges at about -37 dB.
const defaultGaussAlpha = 2.5

// String returns the display name.
func (f Function) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Function(%d)", int(f))
	}

	return names[f]
}

// Valid reports whether f is a known window function.
func (f Function) Valid() bool {
	return f >= Rectangle && int(f) < len(names)
}

// Parse looks up a window function by name. Case, spaces, dashes and
// underscores are ignored, so "Blackman Harris", "blackman-harris" and
// "blackmanharris" all match. "rectangular" and "triangular" are accepted
// as aliases.
func Parse(name string) (Function, error) {
	key := canonical(name)
	for _, f := range All {
		if canonical(names[f]) == key {
			return f, nil
		}
	}

	switch key {
	case "rectangular", "none":
		return Rectangle, nil
	case "triangular", "bartlett":
		return Triangle, nil
	case "gauss":
		return Gaussian, nil
	}

	return 0, fmt.Errorf("%w: %q", errUnknownFunction, name)
}

func canonical(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Option configures window generation.
type Option func(*config)

type config struct {
	alpha    float64
	periodic bool
}

// WithAlpha sets the Gaussian width parameter. Larger values give a narrower
// window. Non-positive values are ignored.
func WithAlpha(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.alpha = v
		}
	}
}

// WithPeriodic selects the periodic form used for FFT framing instead of the
// symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length, or nil when
// length is not positive.
func Generate(f Function, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	cfg := config{alpha: defaultGaussAlpha}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = eval(f, samplePosition(i, length, cfg.periodic), cfg.alpha)
	}

	return out
}

// Apply multiplies buf in place by the selected window.
func Apply(f Function, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	vecmath.MulBlockInPlace(buf, Generate(f, len(buf), opts...))
}

func eval(f Function, x, alpha float64) float64 {
	x = min(max(x, 0), 1)

	switch f {
	case Hann:
		return cosineSum(x, hannCoeffs)
	case Hamming:
		return cosineSum(x, hammingCoeffs)
	case Blackman:
		return cosineSum(x, blackmanCoeffs)
	case BlackmanHarris:
		return cosineSum(x, blackmanHarrisCoeffs)
	case FlatTop:
		return cosineSum(x, flatTopCoeffs)
	case Gaussian:
		v := (2*x - 1) * alpha
		return math.Exp(-math.Ln2 * v * v)
	case Welch:
		d := x - 0.5
		return 1 - 4*d*d
	case Triangle:
		return 1 - math.Abs(2*x-1)
	default:
		return 1
	}
}

func cosineSum(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0.5
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}

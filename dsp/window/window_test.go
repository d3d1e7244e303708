package window

import (
	"errors"
	"math"
	"testing"
)

func TestGenerateAll(t *testing.T) {
	t.Parallel()

	for _, f := range All {
		t.Run(f.String(), func(t *testing.T) {
			t.Parallel()

			w := Generate(f, 64, WithPeriodic())
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
			}
		})
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	t.Parallel()

	a := Generate(Hann, 16)
	b := Generate(Hann, 16, WithPeriodic())

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}

	if b[0] != 0 || !almostEqual(b[8], 1, 1e-12) {
		t.Fatalf("periodic hann: w[0]=%v w[N/2]=%v", b[0], b[8])
	}
}

func TestGoldenVectors(t *testing.T) {
	t.Parallel()

	hannExpected := []float64{
		0.0, 0.1882550990706332, 0.6112604669781572, 0.9504844339512095,
		0.9504844339512095, 0.6112604669781573, 0.1882550990706333, 0.0,
	}
	hammingExpected := []float64{
		0.08, 0.25319469114498255, 0.6423596296199047, 0.9544456792351128,
		0.9544456792351128, 0.6423596296199048, 0.25319469114498266, 0.08,
	}

	checkGolden(t, Generate(Hann, 8), hannExpected, 1e-10)
	checkGolden(t, Generate(Hamming, 8), hammingExpected, 1e-10)
	checkGolden(t, Generate(Rectangle, 3), []float64{1, 1, 1}, 0)
	checkGolden(t, Generate(Triangle, 5), []float64{0, 0.5, 1, 0.5, 0}, 1e-12)
	checkGolden(t, Generate(Welch, 5), []float64{0, 0.75, 1, 0.75, 0}, 1e-12)
}

func TestGaussianAlpha(t *testing.T) {
	t.Parallel()

	wide := Generate(Gaussian, 33, WithAlpha(1))
	narrow := Generate(Gaussian, 33)

	if !almostEqual(wide[0], 0.5, 1e-12) {
		t.Fatalf("alpha 1 edge=%v want 0.5", wide[0])
	}

	if narrow[0] >= wide[0] {
		t.Fatalf("default alpha should be narrower: %v >= %v", narrow[0], wide[0])
	}

	if !almostEqual(narrow[16], 1, 1e-12) {
		t.Fatalf("centre=%v want 1", narrow[16])
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]Function{
		"hann":            Hann,
		"Hann":            Hann,
		"Blackman Harris": BlackmanHarris,
		"blackman_harris": BlackmanHarris,
		"flat-top":        FlatTop,
		"FlatTop":         FlatTop,
		"rectangular":     Rectangle,
		"triangle":        Triangle,
		"gauss":           Gaussian,
	}

	for in, want := range tests {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Fatalf("Parse(%q)=%v,%v want %v", in, got, err, want)
		}
	}

	if _, err := Parse("kaiser"); !errors.Is(err, errUnknownFunction) {
		t.Fatalf("Parse(kaiser) err=%v", err)
	}
}

func TestFunctionString(t *testing.T) {
	t.Parallel()

	for _, f := range All {
		back, err := Parse(f.String())
		if err != nil || back != f {
			t.Fatalf("round trip %v: %v %v", f, back, err)
		}
	}

	if Function(99).Valid() || Function(99).String() != "Function(99)" {
		t.Fatalf("invalid function: %q", Function(99).String())
	}
}

func TestOverlapRipple(t *testing.T) {
	t.Parallel()

	tests := []struct {
		f       Function
		n, hop  int
		flat    bool
		maxFlat float64
	}{
		{Hann, 2048, 512, true, 1e-9},
		{Hamming, 1024, 256, true, 1e-9},
		{Blackman, 1024, 128, true, 1e-9},
		{Rectangle, 256, 256, true, 0},
		{Hann, 1024, 512, false, 0},
		{Triangle, 256, 256, false, 0},
	}

	for _, tt := range tests {
		r, err := OverlapRipple(Generate(tt.f, tt.n, WithPeriodic()), tt.hop)
		if err != nil {
			t.Fatalf("%v: %v", tt.f, err)
		}

		if tt.flat && r > tt.maxFlat {
			t.Fatalf("%v N=%d hop=%d ripple=%v want ~0", tt.f, tt.n, tt.hop, r)
		}

		if !tt.flat && r < 1 {
			t.Fatalf("%v N=%d hop=%d ripple=%v want > 1%%", tt.f, tt.n, tt.hop, r)
		}
	}
}

func TestOverlapProfileSum(t *testing.T) {
	t.Parallel()

	w := Generate(Hann, 1024, WithPeriodic())

	p, err := OverlapProfile(w, 256)
	if err != nil {
		t.Fatal(err)
	}

	// Σw² = 3N/8 spread evenly over the hop.
	for i, v := range p {
		if !almostEqual(v, 1.5, 1e-9) {
			t.Fatalf("profile[%d]=%v want 1.5", i, v)
		}
	}

	if !almostEqual(SumOfSquares(w), 384, 1e-9) {
		t.Fatalf("SumOfSquares=%v want 384", SumOfSquares(w))
	}
}

func TestAnalyzeHann(t *testing.T) {
	t.Parallel()

	a := Analyze(Generate(Hann, 256, WithPeriodic()))

	if !almostEqual(a.ENBW, 1.5, 0.01) {
		t.Fatalf("ENBW=%v want 1.5", a.ENBW)
	}

	if !almostEqual(a.CoherentGain, 0.5, 1e-9) {
		t.Fatalf("coherent gain=%v want 0.5", a.CoherentGain)
	}

	if a.HighestSidelobedB > -30 || a.HighestSidelobedB < -33 {
		t.Fatalf("sidelobe=%v dB want about -31.5", a.HighestSidelobedB)
	}

	if a.Bandwidth3dB < 1.3 || a.Bandwidth3dB > 1.6 {
		t.Fatalf("3 dB bandwidth=%v want about 1.44", a.Bandwidth3dB)
	}
}

func TestValidationAndEdgeCases(t *testing.T) {
	t.Parallel()

	if got := Generate(Hann, 0); got != nil {
		t.Fatalf("expected nil for zero length, got %v", got)
	}

	if _, err := EquivalentNoiseBandwidth(nil); !errors.Is(err, errEmptyCoeffs) {
		t.Fatalf("err=%v", err)
	}

	if _, err := EquivalentNoiseBandwidth([]float64{0, 0, 0}); !errors.Is(err, errZeroCoherentGain) {
		t.Fatalf("err=%v", err)
	}

	if _, err := OverlapRipple([]float64{1, 1}, 3); !errors.Is(err, errInvalidHop) {
		t.Fatalf("err=%v", err)
	}

	if _, err := OverlapRipple([]float64{0, 0}, 1); !errors.Is(err, errZeroCoherentGain) {
		t.Fatalf("err=%v", err)
	}

	if a := Analyze(nil); a != (Analysis{}) {
		t.Fatalf("Analyze(nil)=%+v", a)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	buf := []float64{1, 2, 3, 4}
	Apply(Rectangle, buf)

	for i, v := range buf {
		if v != float64(i+1) {
			t.Fatalf("rectangle should pass through at %d: %v", i, v)
		}
	}

	Apply(Hann, buf)

	if buf[0] != 0 {
		t.Fatalf("hann first sample should be 0, got %v", buf[0])
	}
}

func BenchmarkGenerate(b *testing.B) {
	for _, f := range []Function{Hann, BlackmanHarris, Gaussian} {
		b.Run(f.String(), func(b *testing.B) {
			b.ReportAllocs()

			for range b.N {
				_ = Generate(f, 2048, WithPeriodic())
			}
		})
	}
}

func checkGolden(t *testing.T, got, want []float64, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("len mismatch got=%d want=%d", len(got), len(want))
	}

	for i := range got {
		if !almostEqual(got[i], want[i], tol) {
			t.Fatalf("index %d: got=%.16f want=%.16f", i, got[i], want[i])
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Analysis holds numerically computed spectral properties of a window.
type Analysis struct {
	// CoherentGain is sum(w[n]) / N, the DC response of the window.
	CoherentGain float64
	// ENBW is the equivalent noise bandwidth in bins.
	ENBW float64
	// Bandwidth3dB is the two-sided half-power main lobe width in bins.
	Bandwidth3dB float64
	// HighestSidelobedB is the highest sidelobe level relative to DC in dB.
	HighestSidelobedB float64
}

// Analyze computes spectral properties of the given coefficients by direct
// DFT evaluation. It returns the zero Analysis for empty or zero-sum input.
func Analyze(coeffs []float64) Analysis {
	n := len(coeffs)
	if n == 0 {
		return Analysis{}
	}

	dc := dftMagSq(coeffs, 0)
	if dc == 0 {
		return Analysis{}
	}

	enbw, _ := EquivalentNoiseBandwidth(coeffs)

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	return Analysis{
		CoherentGain:      sum / float64(n),
		ENBW:              enbw,
		Bandwidth3dB:      halfPowerWidth(coeffs, dc),
		HighestSidelobedB: highestSidelobe(coeffs, dc),
	}
}

// EquivalentNoiseBandwidth returns the ENBW in bins.
func EquivalentNoiseBandwidth(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	if sum == 0 {
		return 0, errZeroCoherentGain
	}

	return float64(len(coeffs)) * SumOfSquares(coeffs) / (sum * sum), nil
}

// SumOfSquares returns Σ w[n]².
func SumOfSquares(coeffs []float64) float64 {
	sq := make([]float64, len(coeffs))
	vecmath.MulBlock(sq, coeffs, coeffs)

	sum := 0.0
	for _, v := range sq {
		sum += v
	}

	return sum
}

// OverlapProfile returns the hop-periodic sum of squared coefficients,
// p[n] = Σ_k w[n + k·hop]² for n in [0, hop). It is the gain a squared
// (analysis times synthesis) window applies in steady-state overlap-add.
func OverlapProfile(coeffs []float64, hop int) ([]float64, error) {
	if len(coeffs) == 0 {
		return nil, errEmptyCoeffs
	}

	if hop < 1 || hop > len(coeffs) {
		return nil, errInvalidHop
	}

	profile := make([]float64, hop)
	for i, c := range coeffs {
		profile[i%hop] += c * c
	}

	return profile, nil
}

// OverlapRipple returns the peak deviation of the overlap profile from its
// mean, in percent of the mean. A window that overlap-adds perfectly at this
// hop yields 0.
func OverlapRipple(coeffs []float64, hop int) (float64, error) {
	profile, err := OverlapProfile(coeffs, hop)
	if err != nil {
		return 0, err
	}

	mean := 0.0
	for _, v := range profile {
		mean += v
	}

	mean /= float64(len(profile))
	if mean == 0 {
		return 0, errZeroCoherentGain
	}

	peak := 0.0
	for _, v := range profile {
		peak = max(peak, math.Abs(v-mean))
	}

	return 100 * peak / mean, nil
}

func dftMagSq(coeffs []float64, freq float64) float64 {
	re, im := 0.0, 0.0
	w := 2 * math.Pi * freq

	for k, c := range coeffs {
		phase := w * float64(k)
		re += c * math.Cos(phase)
		im -= c * math.Sin(phase)
	}

	return re*re + im*im
}

// halfPowerWidth bisects for |H(f)|² = |H(0)|²/2 on [0, 1/2].
func halfPowerWidth(coeffs []float64, dc float64) float64 {
	lo, hi := 0.0, 0.5
	for range 60 {
		mid := (lo + hi) / 2
		if dftMagSq(coeffs, mid)/dc > 0.5 {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 2 * lo * float64(len(coeffs))
}

// highestSidelobe scans past the first local minimum of the response in
// eighth-bin steps.
func highestSidelobe(coeffs []float64, dc float64) float64 {
	n := float64(len(coeffs))
	step := 1 / (n * 8)

	prev := dc
	start := -1.0

	for f := step; f < 0.5; f += step {
		v := dftMagSq(coeffs, f)
		if prev < dc*0.1 && v > prev {
			start = f - step
			break
		}

		prev = v
	}

	if start < 0 {
		return math.Inf(-1)
	}

	peak := 0.0
	for f := start; f < 0.5; f += step {
		peak = max(peak, dftMagSq(coeffs, f))
	}

	if peak <= 0 {
		return math.Inf(-1)
	}

	return 10 * math.Log10(peak/dc)
}

package engine

import (
	"math"

	"github.com/cwbudde/algo-spectral/dsp/param"
)

// EffectInfo is the identity an effect reports to hosts.
type EffectInfo struct {
	Title           string
	Description     string
	UsesSideChannel bool
}

// Format describes the spectral frames a processor delivers.
type Format struct {
	Channels   int
	SampleRate float64
	FFTSize    int
	StepSize   int
	// Bins is FFTSize/2 + 1.
	Bins int
}

// BinFrequency returns the centre frequency of bin k in Hz.
func (f Format) BinFrequency(k int) float64 {
	return float64(k) * f.SampleRate / float64(f.FFTSize)
}

// Bin returns the bin closest to hz, clamped to [0, Bins).
func (f Format) Bin(hz float64) int {
	k := int(math.Round(hz * float64(f.FFTSize) / f.SampleRate))
	return min(max(k, 0), f.Bins-1)
}

// StepPhase returns the phase a sinusoid centred on bin k advances over one
// step, in radians.
func (f Format) StepPhase(k int) float64 {
	return 2 * math.Pi * float64(k) * float64(f.StepSize) / float64(f.FFTSize)
}

// Frame is one analysis step handed to an effect.
type Frame struct {
	// Main holds one spectrum per channel. Effects modify it in place.
	Main [][]complex128
	// Side holds the side-chain spectra, or nil when no side input is
	// available for this step.
	Side   [][]complex128
	Format Format
	// Position is the timebase position, in samples, just past the newest
	// analysed input sample.
	Position int64
}

// Effect is a spectral processing algorithm driven by a Module.
//
// Setup is called at configuration time and whenever the format changes; it
// may allocate. Reset and ProcessFrame run on the processing goroutine and
// must not block or allocate.
type Effect interface {
	Info() EffectInfo
	// Parameters returns the effect specific parameters. The set must stay
	// the same for the lifetime of the effect; it may be nil or empty.
	Parameters() *param.Set
	Setup(Format) error
	Reset()
	ProcessFrame(*Frame)
}

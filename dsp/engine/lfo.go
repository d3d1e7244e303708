package engine

import (
	"fmt"
	"math"
	"strings"
)

// Waveform is the shape of a parameter LFO.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

var waveformNames = [...]string{
	WaveSine:     "sine",
	WaveTriangle: "triangle",
	WaveSaw:      "saw",
	WaveSquare:   "square",
}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}

	return waveformNames[w]
}

// ParseWaveform looks up a waveform by name. The empty string is a sine.
func ParseWaveform(name string) (Waveform, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return WaveSine, nil
	}

	for i, n := range waveformNames {
		if n == key {
			return Waveform(i), nil
		}
	}

	return 0, fmt.Errorf("%w: waveform %q", ErrInvalidParameter, name)
}

// LFOSettings configures the low-frequency oscillator of one parameter.
//
// While enabled, the oscillator overwrites the parameter at every step
// boundary with min + (max-min)*(Lower + (Upper-Lower)*shape), where shape
// runs through [0, 1] once per period. The phase derives from the processor
// position, so oscillators of all parameters stay in sync and restart with
// the timebase.
type LFOSettings struct {
	Enabled  bool
	Waveform Waveform
	// PeriodMs is the free-running period in milliseconds.
	PeriodMs float64
	// Beats, when positive, syncs the period to the tempo: one cycle lasts
	// Beats beats of the processor's meter. It overrides PeriodMs.
	Beats float64
	// Lower and Upper bound the sweep as fractions of the parameter range.
	Lower float64
	Upper float64
	// Phase offsets the oscillator in cycles.
	Phase float64
}

func (s LFOSettings) validate() error {
	switch {
	case s.Waveform < WaveSine || s.Waveform > WaveSquare:
		return fmt.Errorf("%w: lfo waveform %d", ErrInvalidParameter, s.Waveform)
	case s.Beats < 0 || math.IsNaN(s.Beats):
		return fmt.Errorf("%w: lfo beats %g", ErrInvalidParameter, s.Beats)
	case s.Beats == 0 && !(s.PeriodMs > 0):
		return fmt.Errorf("%w: lfo period %g ms", ErrInvalidParameter, s.PeriodMs)
	case !inUnit(s.Lower) || !inUnit(s.Upper):
		return fmt.Errorf("%w: lfo bounds [%g, %g] outside [0, 1]", ErrInvalidParameter, s.Lower, s.Upper)
	}

	return nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

// periodSamples returns the oscillator period in samples.
func (s LFOSettings) periodSamples(t timebase) float64 {
	if s.Beats > 0 {
		return s.Beats * t.samplesPerBeat()
	}

	return s.PeriodMs * t.sampleRate / 1000
}

// fraction returns the position of the sweep in [0, 1] of the parameter range.
func (s LFOSettings) fraction(t timebase) float64 {
	period := s.periodSamples(t)
	if !(period > 0) {
		return s.Lower
	}

	cycles := float64(t.position)/period + s.Phase
	phase := cycles - math.Floor(cycles)

	return s.Lower + (s.Upper-s.Lower)*s.Waveform.shape(phase)
}

// shape maps phase in [0, 1) to [0, 1].
func (w Waveform) shape(phase float64) float64 {
	switch w {
	case WaveTriangle:
		return 1 - math.Abs(2*phase-1)
	case WaveSaw:
		return phase
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}

		return 0
	default:
		return 0.5 - 0.5*math.Cos(2*math.Pi*phase)
	}
}

// timebase is the tempo state an LFO is evaluated against.
type timebase struct {
	position   int64
	sampleRate float64
	bpm        float64
	// denominator is the note value of one beat (4 = quarter note).
	denominator int
}

// samplesPerBeat returns the length of one meter beat; a quarter note lasts
// 60/bpm seconds.
func (t timebase) samplesPerBeat() float64 {
	if t.bpm <= 0 || t.denominator <= 0 {
		return 0
	}

	return t.sampleRate * 60 / t.bpm * 4 / float64(t.denominator)
}

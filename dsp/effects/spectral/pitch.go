package spectral

import (
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

const (
	pitchSemitones = iota
	pitchCents
)

// pitchChannel is the phase vocoder state of one channel.
type pitchChannel struct {
	polar

	prevPhase []float64
	sumPhase  []float64
	instFreq  []float64
	shiftMag  []float64
	shiftFreq []float64
	peaks     []int
}

// PitchShifter transposes the spectrum with a phase vocoder. Magnitudes and
// instantaneous frequencies are resampled along the bin axis by the pitch
// ratio. The synthesis phase integrates the shifted frequencies at spectral
// peaks; the bins around a peak keep their analysed phase offset to it
// (identity phase locking).
type PitchShifter struct {
	params *param.Set

	hop   float64
	omega []float64
	chans []pitchChannel
}

// NewPitchShifter creates a pitch shifter without transposition.
func NewPitchShifter() *PitchShifter {
	return &PitchShifter{params: param.MustNewSet(
		param.Symmetric("Semitones", "st", 24),
		param.Symmetric("Cents", "ct", 100),
	)}
}

func (s *PitchShifter) Info() engine.EffectInfo {
	return engine.EffectInfo{Title: "Pitch Shifter", Description: "Transposes the spectrum."}
}

func (s *PitchShifter) Parameters() *param.Set { return s.params }

// Ratio returns the frequency ratio of the current transposition.
func (s *PitchShifter) Ratio() float64 {
	st := s.params.Get(pitchSemitones) + s.params.Get(pitchCents)/100
	return math.Exp2(st / 12)
}

// SetSemitones sets the coarse transposition and returns the clamped value.
func (s *PitchShifter) SetSemitones(st float64) float64 {
	return s.params.Set(pitchSemitones, s.params.Info(pitchSemitones).Clamp(st))
}

// SetCents sets the fine transposition and returns the clamped value.
func (s *PitchShifter) SetCents(ct float64) float64 {
	return s.params.Set(pitchCents, s.params.Info(pitchCents).Clamp(ct))
}

func (s *PitchShifter) Setup(f engine.Format) error {
	s.hop = float64(f.StepSize)
	s.omega = omegas(f.FFTSize, f.Bins)
	s.chans = make([]pitchChannel, f.Channels)

	for ch := range s.chans {
		s.chans[ch] = pitchChannel{
			polar:     newPolar(f.Bins),
			prevPhase: make([]float64, f.Bins),
			sumPhase:  make([]float64, f.Bins),
			instFreq:  make([]float64, f.Bins),
			shiftMag:  make([]float64, f.Bins),
			shiftFreq: make([]float64, f.Bins),
			peaks:     make([]int, 0, f.Bins),
		}
	}

	return nil
}

// Reset clears the phase tracking.
func (s *PitchShifter) Reset() {
	for ch := range s.chans {
		c := &s.chans[ch]
		clear(c.prevPhase)
		clear(c.sumPhase)
	}
}

func (s *PitchShifter) ProcessFrame(f *engine.Frame) {
	ratio := s.Ratio()

	for ch, spec := range f.Main {
		c := &s.chans[ch]
		c.load(spec)
		s.track(c)

		if ratio == 1 {
			// Pass through but keep the synthesis phase aligned for
			// later transpositions.
			for k := range spec {
				c.sumPhase[k] = c.prevPhase[k]
			}

			continue
		}

		s.shift(c, ratio)
		s.synthesize(c, spec, ratio)
		realEdges(spec)
	}
}

// track estimates the instantaneous frequency of every bin from the phase
// advance since the previous step.
func (s *PitchShifter) track(c *pitchChannel) {
	for k := range c.mag {
		phase := c.phase(k)
		delta := wrapPhase(phase - c.prevPhase[k] - s.omega[k]*s.hop)
		c.instFreq[k] = s.omega[k] + delta/s.hop
		c.prevPhase[k] = phase
	}
}

// shift resamples magnitudes and frequencies along the bin axis.
func (s *PitchShifter) shift(c *pitchChannel, ratio float64) {
	last := len(c.mag) - 1

	for k := range c.mag {
		src := float64(k) / ratio
		if src >= float64(last) {
			c.shiftMag[k] = 0
			c.shiftFreq[k] = s.omega[k]

			continue
		}

		lo := int(src)
		frac := src - float64(lo)
		hi := min(lo+1, last)

		c.shiftMag[k] = c.mag[lo]*(1-frac) + c.mag[hi]*frac
		c.shiftFreq[k] = (c.instFreq[lo]*(1-frac) + c.instFreq[hi]*frac) * ratio
	}
}

// peakFloor is the level relative to the loudest bin below which local
// maxima are not treated as peaks.
const peakFloor = 1e-6

// synthesize writes the shifted spectrum with phase locked synthesis.
func (s *PitchShifter) synthesize(c *pitchChannel, spec []complex128, ratio float64) {
	last := len(spec) - 1
	loudest := 0.0

	for _, m := range c.shiftMag {
		loudest = max(loudest, m)
	}

	c.peaks = c.peaks[:0]

	for k := 1; k < last; k++ {
		m := c.shiftMag[k]
		if m > peakFloor*loudest && m >= c.shiftMag[k-1] && m > c.shiftMag[k+1] {
			c.peaks = append(c.peaks, k)
		}
	}

	if len(c.peaks) == 0 {
		for k := range spec {
			c.sumPhase[k] = wrapPhase(c.sumPhase[k] + c.shiftFreq[k]*s.hop)
			spec[k] = cmplx.Rect(c.shiftMag[k], c.sumPhase[k])
		}

		return
	}

	for _, p := range c.peaks {
		c.sumPhase[p] = wrapPhase(c.sumPhase[p] + c.shiftFreq[p]*s.hop)
	}

	at := 0

	for k := range spec {
		for at+1 < len(c.peaks) && absInt(c.peaks[at+1]-k) < absInt(c.peaks[at]-k) {
			at++
		}

		p := c.peaks[at]
		if k != p {
			c.sumPhase[k] = c.sumPhase[p] + c.sourcePhase(k, ratio) - c.sourcePhase(p, ratio)
		}

		spec[k] = cmplx.Rect(c.shiftMag[k], c.sumPhase[k])
	}
}

// sourcePhase returns the analysed phase of the bin k was shifted from.
func (c *pitchChannel) sourcePhase(k int, ratio float64) float64 {
	j := min(int(math.Round(float64(k)/ratio)), len(c.prevPhase)-1)
	return c.prevPhase[j]
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}

	return x
}

package spectral

import (
	"math/cmplx"

	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

const (
	freezeFrozen = iota
	freezeMode
)

// FreezeMode controls how held phases evolve.
type FreezeMode int

const (
	// FreezeAdvance advances every bin by its centre frequency each step.
	FreezeAdvance FreezeMode = iota
	// FreezeHold keeps every bin at its captured phase.
	FreezeHold
)

// Freeze captures one magnitude frame when Frozen is switched on and
// sustains it until it is switched off.
type Freeze struct {
	params *param.Set

	hop   float64
	omega []float64

	held    [][]float64
	phase   [][]float64
	scratch []polar
	holding bool
}

// NewFreeze creates an unfrozen freeze in advance mode.
func NewFreeze() *Freeze {
	return &Freeze{params: param.MustNewSet(
		param.Bool("Frozen", false),
		param.Enumerated("Mode", "advance", "hold"),
	)}
}

func (z *Freeze) Info() engine.EffectInfo {
	return engine.EffectInfo{Title: "Freeze", Description: "Sustains a captured spectrum."}
}

func (z *Freeze) Parameters() *param.Set { return z.params }

func (z *Freeze) Setup(f engine.Format) error {
	z.hop = float64(f.StepSize)
	z.omega = omegas(f.FFTSize, f.Bins)
	z.held = make([][]float64, f.Channels)
	z.phase = make([][]float64, f.Channels)
	z.scratch = make([]polar, f.Channels)

	for ch := range f.Channels {
		z.held[ch] = make([]float64, f.Bins)
		z.phase[ch] = make([]float64, f.Bins)
		z.scratch[ch] = newPolar(f.Bins)
	}

	z.holding = false

	return nil
}

// Reset drops the captured frame.
func (z *Freeze) Reset() { z.holding = false }

// SetFrozen switches freezing on or off.
func (z *Freeze) SetFrozen(on bool) { z.params.SetBool(freezeFrozen, on) }

// Frozen reports whether freezing is on.
func (z *Freeze) Frozen() bool { return z.params.Bool(freezeFrozen) }

// SetMode sets the phase mode.
func (z *Freeze) SetMode(m FreezeMode) { z.params.Set(freezeMode, float64(m)) }

// Mode returns the phase mode.
func (z *Freeze) Mode() FreezeMode { return FreezeMode(z.params.Int(freezeMode)) }

func (z *Freeze) ProcessFrame(f *engine.Frame) {
	if !z.Frozen() {
		z.holding = false
		return
	}

	if !z.holding {
		z.capture(f.Main)
		return
	}

	advance := z.Mode() == FreezeAdvance

	for ch, spec := range f.Main {
		held, phase := z.held[ch], z.phase[ch]

		for k := range spec {
			if advance {
				phase[k] = wrapPhase(phase[k] + z.omega[k]*z.hop)
			}

			spec[k] = cmplx.Rect(held[k], phase[k])
		}

		realEdges(spec)
	}
}

// capture stores the current frame and passes it through.
func (z *Freeze) capture(main [][]complex128) {
	for ch, spec := range main {
		p := &z.scratch[ch]
		p.load(spec)

		copy(z.held[ch], p.mag)

		for k := range spec {
			z.phase[ch][k] = p.phase(k)
		}
	}

	z.holding = true
}

package spectral

import (
	"math"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

const (
	gateThreshold = iota
	gateFloor
)

// Gate is a spectral noise gate. Bins whose level falls below the threshold
// are attenuated by the floor.
//
// Bin levels are in dB relative to a full-scale sinusoid centred on the bin,
// analysed without window, so a level of 0 dB corresponds to a magnitude of
// FFTSize/2.
type Gate struct {
	params  *param.Set
	scratch []polar
	ref     float64
}

// NewGate creates a gate with a threshold of -60 dB and a floor of -96 dB.
func NewGate() *Gate {
	return &Gate{params: param.MustNewSet(
		param.Linear("Threshold", "dB", -120, 0, -60),
		param.Linear("Floor", "dB", -120, 0, -96),
	)}
}

func (g *Gate) Info() engine.EffectInfo {
	return engine.EffectInfo{Title: "Gate", Description: "Attenuates bins below a threshold."}
}

func (g *Gate) Parameters() *param.Set { return g.params }

func (g *Gate) Setup(f engine.Format) error {
	g.ref = float64(f.FFTSize) / 2
	g.scratch = make([]polar, f.Channels)

	for ch := range g.scratch {
		g.scratch[ch] = newPolar(f.Bins)
	}

	return nil
}

func (g *Gate) Reset() {}

func (g *Gate) ProcessFrame(f *engine.Frame) {
	threshold := g.ref * dbToGain(g.params.Get(gateThreshold))
	floor := complex(dbToGain(g.params.Get(gateFloor)), 0)

	for ch, spec := range f.Main {
		p := &g.scratch[ch]
		p.load(spec)

		for k, m := range p.mag {
			if m < threshold {
				spec[k] *= floor
			}
		}
	}
}

// dbToGain converts dB to a linear factor.
func dbToGain(db float64) float64 {
	if db == 0 {
		return 1
	}

	return float64(approx.FastExp(float32(db * math.Ln10 / 20)))
}

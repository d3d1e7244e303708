package spectral

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

const amplifierLevel = 0

// Amplifier scales every bin by a level in dB.
type Amplifier struct {
	params *param.Set
}

// NewAmplifier creates an amplifier at unity level.
func NewAmplifier() *Amplifier {
	return &Amplifier{params: param.MustNewSet(param.Linear("Level", "dB", -96, 24, 0))}
}

func (a *Amplifier) Info() engine.EffectInfo {
	return engine.EffectInfo{Title: "Amplifier", Description: "Scales the spectrum by a level in dB."}
}

func (a *Amplifier) Parameters() *param.Set   { return a.params }
func (a *Amplifier) Setup(engine.Format) error { return nil }
func (a *Amplifier) Reset()                    {}

// SetLevelDB sets the level and returns the clamped value.
func (a *Amplifier) SetLevelDB(db float64) float64 {
	return a.params.Set(amplifierLevel, a.params.Info(amplifierLevel).Clamp(db))
}

func (a *Amplifier) ProcessFrame(f *engine.Frame) {
	db := a.params.Get(amplifierLevel)
	if db == 0 {
		return
	}

	g := complex(dspcore.DBToLinear(db), 0)

	for _, spec := range f.Main {
		for k := range spec {
			spec[k] *= g
		}
	}
}

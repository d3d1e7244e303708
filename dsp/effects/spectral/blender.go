package spectral

import (
	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

const blenderAmount = 0

// Blender crossfades the main spectrum towards the side-chain spectrum.
// Without side input the main spectrum passes unchanged.
type Blender struct {
	params *param.Set
}

// NewBlender creates a blender at 50 %.
func NewBlender() *Blender {
	return &Blender{params: param.MustNewSet(param.Linear("Amount", "%", 0, 100, 50))}
}

func (b *Blender) Info() engine.EffectInfo {
	return engine.EffectInfo{
		Title:           "Blender",
		Description:     "Blends the side-chain spectrum into the signal.",
		UsesSideChannel: true,
	}
}

func (b *Blender) Parameters() *param.Set   { return b.params }
func (b *Blender) Setup(engine.Format) error { return nil }
func (b *Blender) Reset()                    {}

func (b *Blender) ProcessFrame(f *engine.Frame) {
	if f.Side == nil {
		return
	}

	amount := b.params.Get(blenderAmount) / 100
	keep := complex(1-amount, 0)
	take := complex(amount, 0)

	for ch, spec := range f.Main {
		side := f.Side[ch]
		for k := range spec {
			spec[k] = keep*spec[k] + take*side[k]
		}
	}
}

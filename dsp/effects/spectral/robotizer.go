package spectral

import (
	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/param"
)

// Robotizer discards all phase information each step, which imposes a
// pitch at the step rate on the signal.
type Robotizer struct {
	scratch []polar
}

// NewRobotizer creates a robotizer.
func NewRobotizer() *Robotizer { return &Robotizer{} }

func (r *Robotizer) Info() engine.EffectInfo {
	return engine.EffectInfo{Title: "Robotizer", Description: "Zeroes the phase of every bin."}
}

func (r *Robotizer) Parameters() *param.Set { return nil }

func (r *Robotizer) Setup(f engine.Format) error {
	r.scratch = make([]polar, f.Channels)
	for ch := range r.scratch {
		r.scratch[ch] = newPolar(f.Bins)
	}

	return nil
}

func (r *Robotizer) Reset() {}

func (r *Robotizer) ProcessFrame(f *engine.Frame) {
	for ch, spec := range f.Main {
		p := &r.scratch[ch]
		p.load(spec)

		for k, m := range p.mag {
			spec[k] = complex(m, 0)
		}
	}
}

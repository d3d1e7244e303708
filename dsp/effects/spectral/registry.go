package spectral

import "github.com/cwbudde/algo-spectral/dsp/engine"

// Effect type names in DefaultRegistry.
const (
	TypeAmplifier    = "amplifier"
	TypeBlender      = "blender"
	TypePitchShifter = "pitch-shifter"
	TypeFreeze       = "freeze"
	TypeGate         = "gate"
	TypeRobotizer    = "robotizer"
)

// DefaultRegistry returns a Registry pre-populated with all built-in effects.
func DefaultRegistry() *engine.Registry {
	r := engine.NewRegistry()

	r.MustRegister(TypeAmplifier, func() (engine.Effect, error) { return NewAmplifier(), nil })
	r.MustRegister(TypeBlender, func() (engine.Effect, error) { return NewBlender(), nil })
	r.MustRegister(TypePitchShifter, func() (engine.Effect, error) { return NewPitchShifter(), nil })
	r.MustRegister(TypeFreeze, func() (engine.Effect, error) { return NewFreeze(), nil })
	r.MustRegister(TypeGate, func() (engine.Effect, error) { return NewGate(), nil })
	r.MustRegister(TypeRobotizer, func() (engine.Effect, error) { return NewRobotizer(), nil })

	return r
}

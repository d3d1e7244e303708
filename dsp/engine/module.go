package engine

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-spectral/dsp/param"
	"github.com/cwbudde/algo-spectral/internal/assert"
)

// Base parameter indices shared by every module. Effect specific parameters
// start at NumBaseParameters.
const (
	ParamBypass = iota
	ParamGain
	ParamWet
	ParamStartFrequency
	ParamStopFrequency
	NumBaseParameters
)

const maxModuleGainDB = 24

func baseParameters() *param.Set {
	return param.MustNewSet(
		param.Bool("Bypass", false),
		param.Symmetric("Gain", "dB", maxModuleGainDB),
		param.UnsignedInt("Wet", "%", 0, 100, 100),
		param.Linear("Start Frequency", "", 0, 1, 0),
		param.Linear("Stop Frequency", "", 0, 1, 1),
	)
}

// Module is one effect instance in a chain.
//
// A module has an explicit owner count. NewModule hands one ownership to the
// caller; every chain node holding the module owns another. When the count
// drops to zero the module is destroyed: it stops processing and its effect
// is closed if it implements io.Closer.
type Module struct {
	effect   Effect
	info     EffectInfo
	typeName string

	base   *param.Set
	params *param.Set
	lfos   []atomic.Pointer[LFOSettings]

	refs      atomic.Int32
	destroyed atomic.Bool

	chain atomic.Pointer[Chain]
	// nodes lists the chain nodes holding this module, oldest first. Guarded
	// by the owning chain's mutex.
	nodes []*node

	// Set up for this format. Touched only by configuration calls.
	format Format
	dry    [][]complex128
}

// NewModule wraps e in a module owned by the caller.
func NewModule(e Effect) (*Module, error) {
	return newModule(e, "")
}

func newModule(e Effect, typeName string) (*Module, error) {
	if e == nil {
		return nil, fmt.Errorf("engine: new module: %w: nil effect", ErrInvalidParameter)
	}

	params := e.Parameters()
	if params == nil {
		params = param.MustNewSet()
	}

	m := &Module{
		effect:   e,
		info:     e.Info(),
		typeName: typeName,
		base:     baseParameters(),
		params:   params,
	}
	m.lfos = make([]atomic.Pointer[LFOSettings], m.NumParameters())
	m.refs.Store(1)

	return m, nil
}

// Title returns the effect title.
func (m *Module) Title() string { return m.info.Title }

// Description returns the effect description.
func (m *Module) Description() string { return m.info.Description }

// UsesSideChannel reports whether the effect reads side-chain spectra.
func (m *Module) UsesSideChannel() bool { return m.info.UsesSideChannel }

// TypeName returns the registry name the module was created from, or "".
func (m *Module) TypeName() string { return m.typeName }

// Effect returns the wrapped effect.
func (m *Module) Effect() Effect { return m.effect }

// NumParameters returns the number of base and effect parameters.
func (m *Module) NumParameters() int { return NumBaseParameters + m.params.Len() }

func (m *Module) set(i int) (*param.Set, int) {
	if i < NumBaseParameters {
		return m.base, i
	}

	return m.params, i - NumBaseParameters
}

// ParameterInfo describes parameter i.
func (m *Module) ParameterInfo(i int) param.Info {
	s, j := m.set(i)
	return s.Info(j)
}

// Parameter returns the current value of parameter i.
func (m *Module) Parameter(i int) float64 {
	s, j := m.set(i)
	return s.Get(j)
}

// SetParameter stores v into parameter i and returns the clamped value.
func (m *Module) SetParameter(i int, v float64) float64 {
	s, j := m.set(i)
	return s.Set(j, v)
}

// ParameterPercentage returns parameter i as a percentage of its range.
func (m *Module) ParameterPercentage(i int) float64 {
	s, j := m.set(i)
	return s.Percentage(j)
}

// SetParameterPercentage sets parameter i to p percent of its range.
func (m *Module) SetParameterPercentage(i int, p float64) float64 {
	s, j := m.set(i)
	return s.SetPercentage(j, p)
}

// ParameterIndex returns the index of the named parameter, or -1.
func (m *Module) ParameterIndex(name string) int {
	if i := m.base.Index(name); i >= 0 {
		return i
	}

	if i := m.params.Index(name); i >= 0 {
		return NumBaseParameters + i
	}

	return -1
}

// ResetParameters restores all defaults and disables every LFO.
func (m *Module) ResetParameters() {
	m.base.Reset()
	m.params.Reset()

	for i := range m.lfos {
		m.lfos[i].Store(nil)
	}
}

// Bypassed reports whether the module is bypassed.
func (m *Module) Bypassed() bool { return m.base.Bool(ParamBypass) }

// SetBypass switches the bypass parameter.
func (m *Module) SetBypass(on bool) { m.base.SetBool(ParamBypass, on) }

// SetStartFrequencyHz sets the lower edge of the processed band.
func (m *Module) SetStartFrequencyHz(hz, sampleRate float64) {
	m.base.Set(ParamStartFrequency, m.base.Info(ParamStartFrequency).Clamp(2*hz/sampleRate))
}

// SetStopFrequencyHz sets the upper edge of the processed band.
func (m *Module) SetStopFrequencyHz(hz, sampleRate float64) {
	m.base.Set(ParamStopFrequency, m.base.Info(ParamStopFrequency).Clamp(2*hz/sampleRate))
}

// StartFrequencyHz returns the lower edge of the processed band.
func (m *Module) StartFrequencyHz(sampleRate float64) float64 {
	return m.base.Get(ParamStartFrequency) * sampleRate / 2
}

// StopFrequencyHz returns the upper edge of the processed band.
func (m *Module) StopFrequencyHz(sampleRate float64) float64 {
	return m.base.Get(ParamStopFrequency) * sampleRate / 2
}

// LFO returns the oscillator settings of parameter i. A parameter without
// oscillator reports the zero value.
func (m *Module) LFO(i int) LFOSettings {
	if s := m.lfos[i].Load(); s != nil {
		return *s
	}

	return LFOSettings{}
}

// SetLFO installs the oscillator of parameter i. Disabled settings remove it.
func (m *Module) SetLFO(i int, s LFOSettings) error {
	if i < 0 || i >= len(m.lfos) {
		return fmt.Errorf("engine: lfo: %w: parameter index %d", ErrInvalidParameter, i)
	}

	if !s.Enabled {
		m.lfos[i].Store(nil)
		return nil
	}

	err := s.validate()
	if err != nil {
		return fmt.Errorf("engine: lfo %q: %w", m.ParameterInfo(i).Name, err)
	}

	m.lfos[i].Store(&s)

	return nil
}

// Retain adds an owner.
func (m *Module) Retain() {
	assert.That(!m.destroyed.Load(), "retain of destroyed module %q", m.info.Title)

	if !m.destroyed.Load() {
		m.refs.Add(1)
	}
}

// Release drops an owner and destroys the module when none is left.
func (m *Module) Release() {
	n := m.refs.Add(-1)
	assert.That(n >= 0, "release of module %q without owner", m.info.Title)

	if n == 0 && m.destroyed.CompareAndSwap(false, true) {
		if c, ok := m.effect.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// Owners returns the current owner count.
func (m *Module) Owners() int { return int(m.refs.Load()) }

// Destroyed reports whether the last owner released the module.
func (m *Module) Destroyed() bool { return m.destroyed.Load() }

func (m *Module) setup(f Format) error {
	if m.dry != nil && m.format == f {
		return nil
	}

	err := m.effect.Setup(f)
	if err != nil {
		return fmt.Errorf("engine: setup %q: %w", m.info.Title, err)
	}

	m.dry = make([][]complex128, f.Channels)
	for ch := range m.dry {
		m.dry[ch] = make([]complex128, f.Bins)
	}

	m.format = f

	return nil
}

func (m *Module) applyLFOs(t timebase) {
	for i := range m.lfos {
		s := m.lfos[i].Load()
		if s == nil {
			continue
		}

		in := m.ParameterInfo(i)
		m.SetParameter(i, in.Clamp(in.Min+(in.Max-in.Min)*s.fraction(t)))
	}
}

// process runs the effect on frame inside the base parameter shell: bins
// outside the start/stop range and the dry share of the wet mix keep the
// incoming spectrum, and the module gain scales the processed band.
func (m *Module) process(frame *Frame) {
	if m.destroyed.Load() || m.base.Bool(ParamBypass) {
		return
	}

	bins := frame.Format.Bins
	if len(m.dry) < len(frame.Main) || len(m.dry[0]) != bins {
		assert.That(false, "module %q not set up for %d bins", m.info.Title, bins)
		return
	}

	lo := int(math.Round(m.base.Get(ParamStartFrequency) * float64(bins-1)))
	hi := int(math.Round(m.base.Get(ParamStopFrequency) * float64(bins-1)))
	wet := m.base.Get(ParamWet) / 100

	g := 1.0
	if db := m.base.Get(ParamGain); db != 0 {
		g = float64(approx.FastExp(float32(db * math.Ln10 / 20)))
	}

	if lo == 0 && hi == bins-1 && wet == 1 && g == 1 {
		m.effect.ProcessFrame(frame)
		return
	}

	for ch, spec := range frame.Main {
		copy(m.dry[ch], spec)
	}

	m.effect.ProcessFrame(frame)

	for ch, spec := range frame.Main {
		dry := m.dry[ch]

		if lo > hi {
			copy(spec, dry)
			continue
		}

		copy(spec[:lo], dry[:lo])
		copy(spec[hi+1:], dry[hi+1:])

		cw := complex(g*wet, 0)
		cd := complex(g*(1-wet), 0)

		for k := lo; k <= hi; k++ {
			spec[k] = cw*spec[k] + cd*dry[k]
		}
	}
}

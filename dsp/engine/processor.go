package engine

import (
	"fmt"
	"math"
	"sync/atomic"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-spectral/dsp/window"
)

// Engine parameter limits.
const (
	MinFFTSize  = 128
	MaxFFTSize  = 8192
	MaxChannels = 64

	DefaultBPM = 120
	maxGain    = 64
)

// EngineParameters is the complete audio format and WOLA configuration.
type EngineParameters struct {
	Channels      int
	SampleRate    float64
	FFTSize       int
	OverlapFactor int
	Window        window.Function
}

// DefaultEngineParameters is a mono 44.1 kHz setup with 2048-point frames,
// fourfold overlap and a Hann window.
var DefaultEngineParameters = EngineParameters{
	Channels:      1,
	SampleRate:    44100,
	FFTSize:       2048,
	OverlapFactor: 4,
	Window:        window.Hann,
}

// Validate checks every field.
func (p EngineParameters) Validate() error {
	err := validateFormat(p.Channels, p.SampleRate)
	if err != nil {
		return err
	}

	return validateWOLA(p.FFTSize, p.OverlapFactor, p.Window)
}

// StepSize returns FFTSize / OverlapFactor.
func (p EngineParameters) StepSize() int {
	if p.OverlapFactor <= 0 {
		return 0
	}

	return p.FFTSize / p.OverlapFactor
}

func (p EngineParameters) complete() bool {
	return p.Channels > 0 && p.SampleRate > 0 && p.FFTSize > 0 && p.OverlapFactor > 0
}

func (p EngineParameters) format() Format {
	return Format{
		Channels:   p.Channels,
		SampleRate: p.SampleRate,
		FFTSize:    p.FFTSize,
		StepSize:   p.StepSize(),
		Bins:       p.FFTSize/2 + 1,
	}
}

func validateChannels(n int) error {
	if n < 1 || n > MaxChannels {
		return fmt.Errorf("%w: channels must be in [1, %d]: %d", ErrInvalidParameter, MaxChannels, n)
	}

	return nil
}

func validateSampleRate(sr float64) error {
	if !(sr > 0) || math.IsInf(sr, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %g", ErrInvalidParameter, sr)
	}

	return nil
}

func validateFormat(channels int, sr float64) error {
	err := validateChannels(channels)
	if err != nil {
		return err
	}

	return validateSampleRate(sr)
}

func validateFFTSize(n int) error {
	if n < MinFFTSize || n > MaxFFTSize || n&(n-1) != 0 {
		return fmt.Errorf("%w: fft size must be a power of two in [%d, %d]: %d",
			ErrInvalidParameter, MinFFTSize, MaxFFTSize, n)
	}

	return nil
}

func validateOverlap(n int) error {
	switch n {
	case 1, 2, 4, 8:
		return nil
	default:
		return fmt.Errorf("%w: overlap factor must be 1, 2, 4 or 8: %d", ErrInvalidParameter, n)
	}
}

func validateWindow(w window.Function) error {
	if !w.Valid() {
		return fmt.Errorf("%w: window %v", ErrInvalidParameter, w)
	}

	return nil
}

func validateWOLA(fftSize, overlap int, w window.Function) error {
	err := validateFFTSize(fftSize)
	if err != nil {
		return err
	}

	err = validateOverlap(overlap)
	if err != nil {
		return err
	}

	return validateWindow(w)
}

// Option configures a Processor.
type Option func(*options)

type options struct {
	registry *Registry
	params   *EngineParameters
}

// WithRegistry sets the registry LoadPreset creates modules from.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithEngineParameters configures the processor at construction.
func WithEngineParameters(p EngineParameters) Option {
	return func(o *options) {
		o.params = &p
	}
}

// Processor is the WOLA engine driving a Chain.
//
// A new processor is unconfigured: it needs an audio format (channels and
// sample rate) and WOLA parameters (FFT size and overlap factor) before it
// processes. Process must not be called concurrently with itself or with
// any engine parameter setter.
type Processor struct {
	params     EngineParameters
	configured bool
	ripple     float64

	gain atomic.Uint64
	wet  atomic.Uint64

	position atomic.Int64
	bpm      atomic.Uint64
	meterNum atomic.Int32
	meterDen atomic.Int32

	chain    *Chain
	registry *Registry

	w *wola
}

// New creates a processor with an empty chain.
func New(opts ...Option) (*Processor, error) {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	p := &Processor{
		params:   EngineParameters{Window: window.Hann},
		chain:    NewChain(),
		registry: o.registry,
	}
	p.gain.Store(math.Float64bits(1))
	p.wet.Store(math.Float64bits(1))
	p.bpm.Store(math.Float64bits(DefaultBPM))
	p.meterNum.Store(4)
	p.meterDen.Store(4)

	if o.params != nil {
		err := p.SetEngineParameters(*o.params)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Chain returns the module chain driven by the processor.
func (p *Processor) Chain() *Chain { return p.chain }

// Registry returns the effect registry, or nil.
func (p *Processor) Registry() *Registry { return p.registry }

// SetNumberOfChannels sets the channel count.
func (p *Processor) SetNumberOfChannels(n int) error {
	err := validateChannels(n)
	if err != nil {
		return err
	}

	next := p.params
	next.Channels = n

	return p.apply(next)
}

// SetSampleRate sets the sample rate in Hz.
func (p *Processor) SetSampleRate(sr float64) error {
	err := validateSampleRate(sr)
	if err != nil {
		return err
	}

	next := p.params
	next.SampleRate = sr

	return p.apply(next)
}

// SetAudioFormat sets channel count and sample rate together.
func (p *Processor) SetAudioFormat(channels int, sr float64) error {
	err := validateFormat(channels, sr)
	if err != nil {
		return err
	}

	next := p.params
	next.Channels = channels
	next.SampleRate = sr

	return p.apply(next)
}

// SetFFTSize sets the analysis frame length.
func (p *Processor) SetFFTSize(n int) error {
	err := validateFFTSize(n)
	if err != nil {
		return err
	}

	next := p.params
	next.FFTSize = n

	return p.apply(next)
}

// SetOverlapFactor sets how many frames overlap each sample.
func (p *Processor) SetOverlapFactor(n int) error {
	err := validateOverlap(n)
	if err != nil {
		return err
	}

	next := p.params
	next.OverlapFactor = n

	return p.apply(next)
}

// SetWindowFunction sets the analysis and synthesis window.
func (p *Processor) SetWindowFunction(w window.Function) error {
	err := validateWindow(w)
	if err != nil {
		return err
	}

	next := p.params
	next.Window = w

	return p.apply(next)
}

// SetWOLAParameters sets FFT size, overlap and window with one reallocation.
func (p *Processor) SetWOLAParameters(fftSize, overlap int, w window.Function) error {
	err := validateWOLA(fftSize, overlap, w)
	if err != nil {
		return err
	}

	next := p.params
	next.FFTSize = fftSize
	next.OverlapFactor = overlap
	next.Window = w

	return p.apply(next)
}

// SetEngineParameters sets the audio format and WOLA parameters with one
// reallocation.
func (p *Processor) SetEngineParameters(e EngineParameters) error {
	err := e.Validate()
	if err != nil {
		return err
	}

	return p.apply(e)
}

// apply commits next. Once next is complete the WOLA state is rebuilt and
// chained modules are set up; on failure the previous configuration stays.
func (p *Processor) apply(next EngineParameters) error {
	ripple, w, err := prepare(next)
	if err != nil {
		return err
	}

	if w != nil {
		err = p.chain.configure(w.format)
		if err != nil {
			if p.w != nil {
				_ = p.chain.configure(p.w.format)
			}

			return err
		}
	}

	p.commit(next, ripple, w)

	return nil
}

// prepare computes the overlap ripple of next and, when next is complete,
// builds its WOLA state. It does not touch the processor.
func prepare(next EngineParameters) (float64, *wola, error) {
	ripple := 0.0

	if next.FFTSize > 0 && next.OverlapFactor > 0 {
		r, err := window.OverlapRipple(
			window.Generate(next.Window, next.FFTSize, window.WithPeriodic()), next.StepSize())
		if err != nil {
			return 0, nil, fmt.Errorf("engine: ripple: %w", err)
		}

		ripple = r
	}

	if !next.complete() {
		return ripple, nil, nil
	}

	w, err := newWOLA(next)
	if err != nil {
		return 0, nil, err
	}

	return ripple, w, nil
}

func (p *Processor) commit(next EngineParameters, ripple float64, w *wola) {
	p.params = next
	p.ripple = ripple
	p.configured = w != nil
	p.w = w
}

// Configured reports whether the processor is ready to process.
func (p *Processor) Configured() bool { return p.configured }

// EngineParameters returns the current configuration.
func (p *Processor) EngineParameters() EngineParameters { return p.params }

// Format returns the spectral format, valid once configured.
func (p *Processor) Format() Format { return p.params.format() }

// NumberOfChannels returns the channel count, 0 while unset.
func (p *Processor) NumberOfChannels() int { return p.params.Channels }

// SampleRate returns the sample rate, 0 while unset.
func (p *Processor) SampleRate() float64 { return p.params.SampleRate }

// FFTSize returns the analysis frame length, 0 while unset.
func (p *Processor) FFTSize() int { return p.params.FFTSize }

// OverlapFactor returns the overlap factor, 0 while unset.
func (p *Processor) OverlapFactor() int { return p.params.OverlapFactor }

// StepSize returns the hop between analysis frames.
func (p *Processor) StepSize() int { return p.params.StepSize() }

// WindowFunction returns the WOLA window.
func (p *Processor) WindowFunction() window.Function { return p.params.Window }

// LatencyInSamples returns the input to output delay, which equals the FFT
// size.
func (p *Processor) LatencyInSamples() int { return p.params.FFTSize }

// LatencyInMilliseconds returns the latency at the current sample rate.
func (p *Processor) LatencyInMilliseconds() float64 {
	if p.params.SampleRate <= 0 {
		return 0
	}

	return 1000 * float64(p.params.FFTSize) / p.params.SampleRate
}

// RipplePercentage returns the amplitude ripple of the window overlap-add at
// the current overlap, in percent. Zero means perfect reconstruction.
func (p *Processor) RipplePercentage() float64 { return p.ripple }

// Gain returns the linear output gain.
func (p *Processor) Gain() float64 { return math.Float64frombits(p.gain.Load()) }

// SetGain sets the linear output gain, clamped to [0, 64].
func (p *Processor) SetGain(g float64) {
	if math.IsNaN(g) {
		g = 1
	}

	p.gain.Store(math.Float64bits(min(max(g, 0), maxGain)))
}

// GainDB returns the output gain in dB.
func (p *Processor) GainDB() float64 { return dspcore.LinearToDB(p.Gain()) }

// SetGainDB sets the output gain in dB.
func (p *Processor) SetGainDB(db float64) { p.SetGain(dspcore.DBToLinear(db)) }

// Wetness returns the processed share of the output in [0, 1].
func (p *Processor) Wetness() float64 { return math.Float64frombits(p.wet.Load()) }

// SetWetness sets the processed share of the output, clamped to [0, 1].
func (p *Processor) SetWetness(w float64) {
	if math.IsNaN(w) {
		w = 1
	}

	p.wet.Store(math.Float64bits(min(max(w, 0), 1)))
}

// WetnessPercentage returns the wetness in percent.
func (p *Processor) WetnessPercentage() float64 { return 100 * p.Wetness() }

// SetWetnessPercentage sets the wetness in percent.
func (p *Processor) SetWetnessPercentage(pct float64) { p.SetWetness(pct / 100) }

// Position returns the timebase position in samples.
func (p *Processor) Position() int64 { return p.position.Load() }

// PositionSeconds returns the timebase position in seconds.
func (p *Processor) PositionSeconds() float64 {
	if p.params.SampleRate <= 0 {
		return 0
	}

	return float64(p.Position()) / p.params.SampleRate
}

// SetPosition moves the timebase, which drives LFO phases.
func (p *Processor) SetPosition(samples int64) { p.position.Store(max(samples, 0)) }

// SetPositionSeconds moves the timebase. It is ignored while the sample rate
// is unset.
func (p *Processor) SetPositionSeconds(s float64) {
	if p.params.SampleRate <= 0 || math.IsNaN(s) {
		return
	}

	p.SetPosition(int64(math.Round(s * p.params.SampleRate)))
}

// ResetPosition rewinds the timebase to zero.
func (p *Processor) ResetPosition() { p.position.Store(0) }

// BPM returns the tempo in quarter notes per minute.
func (p *Processor) BPM() float64 { return math.Float64frombits(p.bpm.Load()) }

// SetBPM sets the tempo.
func (p *Processor) SetBPM(bpm float64) error {
	if !(bpm > 0) || bpm > 999 {
		return fmt.Errorf("%w: bpm must be in (0, 999]: %g", ErrInvalidParameter, bpm)
	}

	p.bpm.Store(math.Float64bits(bpm))

	return nil
}

// Meter returns the time signature.
func (p *Processor) Meter() (numerator, denominator int) {
	return int(p.meterNum.Load()), int(p.meterDen.Load())
}

// SetMeter sets the time signature. The denominator must be a power of two
// up to 32.
func (p *Processor) SetMeter(numerator, denominator int) error {
	if numerator < 1 || numerator > 32 {
		return fmt.Errorf("%w: meter numerator must be in [1, 32]: %d", ErrInvalidParameter, numerator)
	}

	if denominator < 1 || denominator > 32 || denominator&(denominator-1) != 0 {
		return fmt.Errorf("%w: meter denominator must be a power of two in [1, 32]: %d",
			ErrInvalidParameter, denominator)
	}

	p.meterNum.Store(int32(numerator))
	p.meterDen.Store(int32(denominator))

	return nil
}

// SetTempo sets tempo and time signature.
func (p *Processor) SetTempo(bpm float64, numerator, denominator int) error {
	if !(bpm > 0) || bpm > 999 {
		return fmt.Errorf("%w: bpm must be in (0, 999]: %g", ErrInvalidParameter, bpm)
	}

	err := p.SetMeter(numerator, denominator)
	if err != nil {
		return err
	}

	return p.SetBPM(bpm)
}

func (p *Processor) timebase() timebase {
	return timebase{
		position:    p.Position(),
		sampleRate:  p.params.SampleRate,
		bpm:         p.BPM(),
		denominator: int(p.meterDen.Load()),
	}
}

// Reset clears all overlap history, the internal state of every chained
// effect and the timebase position. The configuration is kept.
func (p *Processor) Reset() {
	if p.w != nil {
		p.w.reset()
	}

	for _, m := range p.chain.Modules() {
		if !m.Destroyed() {
			m.effect.Reset()
		}
	}

	p.ResetPosition()
}

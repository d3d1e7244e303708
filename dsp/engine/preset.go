package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strings"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-spectral/dsp/param"
	"github.com/cwbudde/algo-spectral/dsp/window"
)

// Preset is the JSON schema of a preset file. Absent engine and tempo fields
// keep the processor's current values.
type Preset struct {
	Engine          *PresetEngine  `json:"engine,omitempty"`
	Tempo           *PresetTempo   `json:"tempo,omitempty"`
	SideChainSample string         `json:"side_chain_sample,omitempty"`
	Modules         []PresetModule `json:"modules"`
}

// PresetEngine holds WOLA and mixer settings. Gain is linear; the input and
// output gains in dB are folded into it.
type PresetEngine struct {
	FFTSize       *int     `json:"fft_size,omitempty"`
	OverlapFactor *int     `json:"overlap_factor,omitempty"`
	Window        string   `json:"window,omitempty"`
	Gain          *float64 `json:"gain,omitempty"`
	InputGainDB   *float64 `json:"input_gain_db,omitempty"`
	OutputGainDB  *float64 `json:"output_gain_db,omitempty"`
	// Wetness is in percent.
	Wetness *float64 `json:"wetness,omitempty"`
}

// PresetTempo is the timebase LFOs sync to.
type PresetTempo struct {
	BPM         float64 `json:"bpm"`
	Numerator   int     `json:"numerator,omitempty"`
	Denominator int     `json:"denominator,omitempty"`
}

// PresetModule is one chain entry. Parameters and LFOs are keyed by
// parameter name; matching ignores case, spaces, dashes and underscores.
type PresetModule struct {
	Effect     string               `json:"effect"`
	Parameters map[string]Value     `json:"parameters,omitempty"`
	LFOs       map[string]PresetLFO `json:"lfos,omitempty"`
}

// PresetLFO is the JSON form of LFOSettings.
type PresetLFO struct {
	Enabled  bool    `json:"enabled"`
	Waveform string  `json:"waveform,omitempty"`
	PeriodMs float64 `json:"period_ms,omitempty"`
	Beats    float64 `json:"beats,omitempty"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Phase    float64 `json:"phase,omitempty"`
}

// Value is a parameter value in a preset: a number, a bool, or the label of
// an enumerated parameter.
type Value struct {
	Number float64
	Label  string
}

// UnmarshalJSON accepts numbers, booleans and strings.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("true")):
		*v = Value{Number: 1}
	case bytes.Equal(b, []byte("false")):
		*v = Value{}
	case len(b) > 0 && b[0] == '"':
		var s string

		err := json.Unmarshal(b, &s)
		if err != nil {
			return err
		}

		*v = Value{Label: s}
	default:
		var f float64

		err := json.Unmarshal(b, &f)
		if err != nil {
			return err
		}

		*v = Value{Number: f}
	}

	return nil
}

// MarshalJSON writes labels as strings and everything else as numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Label != "" {
		return json.Marshal(v.Label)
	}

	return json.Marshal(v.Number)
}

// ParsePreset decodes a preset. Unknown fields are rejected.
func ParsePreset(data []byte) (*Preset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var pr Preset

	err := dec.Decode(&pr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	return &pr, nil
}

// LoadPresetFile loads a preset from the file system. See LoadPreset.
func (p *Processor) LoadPresetFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("engine: load preset: %w", err)
	}

	return p.loadPreset(data, path)
}

// LoadPreset replaces the chain, the WOLA parameters, the mixer and the tempo
// with the preset name read from fsys.
//
// Loading is staged: the preset is parsed, every module is created and set
// up, and only then is the new state committed. On error the processor is
// left exactly as before.
//
// The returned path names the side-chain sample the preset refers to: the
// file name alone when the preset stores an absolute path, the stored path
// verbatim when it is relative, and "" when there is none.
func (p *Processor) LoadPreset(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("engine: load preset: %w", err)
	}

	return p.loadPreset(data, name)
}

func (p *Processor) loadPreset(data []byte, name string) (string, error) {
	if p.registry == nil {
		return "", fmt.Errorf("engine: load preset %s: %w", name, ErrNoRegistry)
	}

	pr, err := ParsePreset(data)
	if err != nil {
		return "", fmt.Errorf("engine: load preset %s: %w", name, err)
	}

	err = p.ApplyPreset(pr)
	if err != nil {
		return "", fmt.Errorf("engine: load preset %s: %w", name, err)
	}

	return SideChainSamplePath(pr.SideChainSample), nil
}

type stagedMixer struct {
	gain, wetness *float64
}

// ApplyPreset installs a decoded preset with the same staging as LoadPreset.
func (p *Processor) ApplyPreset(pr *Preset) error {
	if p.registry == nil {
		return ErrNoRegistry
	}

	next, mixer, err := p.stageEngine(pr.Engine)
	if err != nil {
		return err
	}

	if pr.Tempo != nil {
		err = validateTempo(pr.Tempo)
		if err != nil {
			return err
		}
	}

	ripple, w, err := prepare(next)
	if err != nil {
		return err
	}

	var format *Format
	if w != nil {
		format = &w.format
	}

	modules := make([]*Module, 0, len(pr.Modules))

	for i, pm := range pr.Modules {
		m, err := p.stageModule(pm, format)
		if err != nil {
			for _, built := range modules {
				built.Release()
			}

			return fmt.Errorf("module %d (%s): %w", i, pm.Effect, err)
		}

		modules = append(modules, m)
	}

	p.commit(next, ripple, w)
	p.chain.replace(modules, format)

	if mixer.gain != nil {
		p.SetGain(*mixer.gain)
	}

	if mixer.wetness != nil {
		p.SetWetnessPercentage(*mixer.wetness)
	}

	if pr.Tempo != nil {
		num, den := tempoMeter(pr.Tempo)
		_ = p.SetTempo(pr.Tempo.BPM, num, den)
	}

	return nil
}

func (p *Processor) stageEngine(e *PresetEngine) (EngineParameters, stagedMixer, error) {
	next := p.params

	var mixer stagedMixer

	if e == nil {
		return next, mixer, nil
	}

	if e.FFTSize != nil {
		err := validateFFTSize(*e.FFTSize)
		if err != nil {
			return next, mixer, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}

		next.FFTSize = *e.FFTSize
	}

	if e.OverlapFactor != nil {
		err := validateOverlap(*e.OverlapFactor)
		if err != nil {
			return next, mixer, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}

		next.OverlapFactor = *e.OverlapFactor
	}

	if e.Window != "" {
		w, err := window.Parse(e.Window)
		if err != nil {
			return next, mixer, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}

		next.Window = w
	}

	if e.Gain != nil || e.InputGainDB != nil || e.OutputGainDB != nil {
		g := 1.0
		if e.Gain != nil {
			g = *e.Gain
		}

		db := 0.0
		if e.InputGainDB != nil {
			db += *e.InputGainDB
		}

		if e.OutputGainDB != nil {
			db += *e.OutputGainDB
		}

		g *= dspcore.DBToLinear(db)
		if !(g >= 0) || math.IsInf(g, 0) || g > maxGain {
			return next, mixer, fmt.Errorf("%w: gain %g outside [0, %d]", ErrInvalidPreset, g, maxGain)
		}

		mixer.gain = &g
	}

	if e.Wetness != nil {
		if !(*e.Wetness >= 0 && *e.Wetness <= 100) {
			return next, mixer, fmt.Errorf("%w: wetness %g outside [0, 100]", ErrInvalidPreset, *e.Wetness)
		}

		mixer.wetness = e.Wetness
	}

	return next, mixer, nil
}

func validateTempo(t *PresetTempo) error {
	if !(t.BPM > 0) || t.BPM > 999 {
		return fmt.Errorf("%w: bpm %g", ErrInvalidPreset, t.BPM)
	}

	num, den := tempoMeter(t)
	if num < 1 || num > 32 || den < 1 || den > 32 || den&(den-1) != 0 {
		return fmt.Errorf("%w: meter %d/%d", ErrInvalidPreset, num, den)
	}

	return nil
}

func tempoMeter(t *PresetTempo) (int, int) {
	num, den := t.Numerator, t.Denominator
	if num == 0 {
		num = 4
	}

	if den == 0 {
		den = 4
	}

	return num, den
}

func (p *Processor) stageModule(pm PresetModule, format *Format) (*Module, error) {
	m, err := p.registry.Create(pm.Effect)
	if err != nil {
		return nil, err
	}

	err = configureModule(m, pm)
	if err == nil && format != nil {
		err = m.setup(*format)
	}

	if err != nil {
		m.Release()
		return nil, err
	}

	return m, nil
}

func configureModule(m *Module, pm PresetModule) error {
	for _, name := range sortedKeys(pm.Parameters) {
		i := m.ParameterIndex(name)
		if i < 0 {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidPreset, name)
		}

		v, err := resolveValue(m, i, pm.Parameters[name])
		if err != nil {
			return err
		}

		m.SetParameter(i, m.ParameterInfo(i).Clamp(v))
	}

	for _, name := range sortedKeys(pm.LFOs) {
		i := m.ParameterIndex(name)
		if i < 0 {
			return fmt.Errorf("%w: lfo for unknown parameter %q", ErrInvalidPreset, name)
		}

		l := pm.LFOs[name]

		wf, err := ParseWaveform(l.Waveform)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}

		err = m.SetLFO(i, LFOSettings{
			Enabled:  l.Enabled,
			Waveform: wf,
			PeriodMs: l.PeriodMs,
			Beats:    l.Beats,
			Lower:    l.Lower,
			Upper:    l.Upper,
			Phase:    l.Phase,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPreset, err)
		}
	}

	return nil
}

func resolveValue(m *Module, i int, v Value) (float64, error) {
	in := m.ParameterInfo(i)

	if v.Label == "" {
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return 0, fmt.Errorf("%w: %s: value %g", ErrInvalidPreset, in.Name, v.Number)
		}

		return v.Number, nil
	}

	for k, label := range in.Labels {
		if strings.EqualFold(label, v.Label) {
			return float64(k), nil
		}
	}

	return 0, fmt.Errorf("%w: %s: unknown label %q", ErrInvalidPreset, in.Name, v.Label)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// SideChainSamplePath maps the sample reference of a preset to the path a
// host resolves: absolute references (POSIX, UNC or drive-letter) reduce to
// their file name, relative ones are returned verbatim.
func SideChainSamplePath(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || !isAbsPath(ref) {
		return ref
	}

	if i := strings.LastIndexAny(ref, `/\`); i >= 0 {
		return ref[i+1:]
	}

	return ref
}

func isAbsPath(p string) bool {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return true
	}

	return len(p) >= 3 && isLetter(p[0]) && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Preset captures the current chain, engine and tempo settings. Parameters
// equal to their default are omitted.
func (p *Processor) Preset() *Preset {
	fft, overlap := p.params.FFTSize, p.params.OverlapFactor
	gain, wet := p.Gain(), p.WetnessPercentage()
	num, den := p.Meter()

	pr := &Preset{
		Engine: &PresetEngine{
			Window:  strings.ToLower(strings.ReplaceAll(p.params.Window.String(), " ", "-")),
			Gain:    &gain,
			Wetness: &wet,
		},
		Tempo: &PresetTempo{BPM: p.BPM(), Numerator: num, Denominator: den},
	}

	if fft > 0 {
		pr.Engine.FFTSize = &fft
	}

	if overlap > 0 {
		pr.Engine.OverlapFactor = &overlap
	}

	for _, m := range p.chain.Modules() {
		pr.Modules = append(pr.Modules, modulePreset(m))
	}

	return pr
}

func modulePreset(m *Module) PresetModule {
	pm := PresetModule{Effect: m.TypeName()}

	for i := range m.NumParameters() {
		in := m.ParameterInfo(i)
		v := m.Parameter(i)

		if v != in.Default {
			if pm.Parameters == nil {
				pm.Parameters = make(map[string]Value)
			}

			val := Value{Number: v}
			if in.Kind == param.KindEnumerated {
				val = Value{Label: in.Label(v)}
			}

			pm.Parameters[in.Name] = val
		}

		if l := m.LFO(i); l.Enabled {
			if pm.LFOs == nil {
				pm.LFOs = make(map[string]PresetLFO)
			}

			pm.LFOs[in.Name] = PresetLFO{
				Enabled:  true,
				Waveform: l.Waveform.String(),
				PeriodMs: l.PeriodMs,
				Beats:    l.Beats,
				Lower:    l.Lower,
				Upper:    l.Upper,
				Phase:    l.Phase,
			}
		}
	}

	return pm
}

package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/cwbudde/algo-spectral/dsp/param"
)

// scaleEffect multiplies every bin by its Factor parameter.
type scaleEffect struct {
	params *param.Set
}

func newScaleEffect() *scaleEffect {
	return &scaleEffect{params: param.MustNewSet(param.Linear("Factor", "", 0, 4, 1))}
}

func (e *scaleEffect) Info() EffectInfo {
	return EffectInfo{Title: "Scale", Description: "multiplies the spectrum"}
}

func (e *scaleEffect) Parameters() *param.Set { return e.params }
func (e *scaleEffect) Setup(Format) error     { return nil }
func (e *scaleEffect) Reset()                 {}

func (e *scaleEffect) ProcessFrame(f *Frame) {
	g := complex(e.params.Get(0), 0)
	for _, spec := range f.Main {
		for k := range spec {
			spec[k] *= g
		}
	}
}

// zeroEffect clears the spectrum.
type zeroEffect struct{}

func (zeroEffect) Info() EffectInfo       { return EffectInfo{Title: "Zero"} }
func (zeroEffect) Parameters() *param.Set { return nil }
func (zeroEffect) Setup(Format) error     { return nil }
func (zeroEffect) Reset()                 {}

func (zeroEffect) ProcessFrame(f *Frame) {
	for _, spec := range f.Main {
		clear(spec)
	}
}

// smearEffect keeps a running average of past spectra so its output depends
// on history.
type smearEffect struct {
	avg [][]complex128
}

func (e *smearEffect) Info() EffectInfo       { return EffectInfo{Title: "Smear"} }
func (e *smearEffect) Parameters() *param.Set { return nil }

func (e *smearEffect) Setup(f Format) error {
	e.avg = make([][]complex128, f.Channels)
	for ch := range e.avg {
		e.avg[ch] = make([]complex128, f.Bins)
	}

	return nil
}

func (e *smearEffect) Reset() {
	for _, a := range e.avg {
		clear(a)
	}
}

func (e *smearEffect) ProcessFrame(f *Frame) {
	for ch, spec := range f.Main {
		for k := range spec {
			e.avg[ch][k] = 0.5*e.avg[ch][k] + 0.5*spec[k]
			spec[k] = e.avg[ch][k]
		}
	}
}

// recordEffect logs every call into a shared journal.
type recordEffect struct {
	name    string
	side    bool
	journal *journal

	setups  []Format
	resets  int
	sides   []bool
	closed  bool
	failing error
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	j.entries = append(j.entries, s)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

func (e *recordEffect) Info() EffectInfo {
	return EffectInfo{Title: e.name, UsesSideChannel: e.side}
}

func (e *recordEffect) Parameters() *param.Set { return nil }

func (e *recordEffect) Setup(f Format) error {
	if e.failing != nil {
		return e.failing
	}

	e.setups = append(e.setups, f)

	return nil
}

func (e *recordEffect) Reset() { e.resets++ }

func (e *recordEffect) ProcessFrame(f *Frame) {
	if e.journal != nil {
		e.journal.add(e.name)
	}

	e.sides = append(e.sides, f.Side != nil)
}

func (e *recordEffect) Close() error {
	e.closed = true
	return nil
}

var errSetupFailed = errors.New("setup failed")

func mustModule(t *testing.T, e Effect) *Module {
	t.Helper()

	m, err := NewModule(e)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	return m
}

func named(t *testing.T, name string) *Module {
	t.Helper()

	return mustModule(t, &recordEffect{name: name})
}

func newConfigured(t *testing.T, p EngineParameters) *Processor {
	t.Helper()

	proc, err := New(WithEngineParameters(p))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return proc
}

func chainTitles(c *Chain) []string {
	var out []string
	for i := range c.Size() {
		out = append(out, c.At(i).Title())
	}

	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func testRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("scale", func() (Effect, error) { return newScaleEffect(), nil })
	r.MustRegister("smear", func() (Effect, error) { return &smearEffect{}, nil })
	r.MustRegister("mode", func() (Effect, error) { return newModeEffect(), nil })
	r.MustRegister("broken", func() (Effect, error) {
		return &recordEffect{name: "broken", failing: errSetupFailed}, nil
	})

	return r
}

// modeEffect only carries an enumerated parameter.
type modeEffect struct {
	params *param.Set
}

func newModeEffect() *modeEffect {
	return &modeEffect{params: param.MustNewSet(
		param.Enumerated("Mode", "hold", "advance"),
		param.Bool("Frozen", false),
	)}
}

func (e *modeEffect) Info() EffectInfo       { return EffectInfo{Title: "Mode"} }
func (e *modeEffect) Parameters() *param.Set { return e.params }
func (e *modeEffect) Setup(Format) error     { return nil }
func (e *modeEffect) Reset()                 {}
func (e *modeEffect) ProcessFrame(*Frame)    {}

package engine

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
)

func TestNewModuleNilEffect(t *testing.T) {
	t.Parallel()

	_, err := NewModule(nil)
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("err=%v want ErrInvalidParameter", err)
	}
}

func TestModuleParameters(t *testing.T) {
	t.Parallel()

	m := mustModule(t, newScaleEffect())

	if m.NumParameters() != NumBaseParameters+1 {
		t.Fatalf("NumParameters=%d", m.NumParameters())
	}

	names := []string{"Bypass", "Gain", "Wet", "Start Frequency", "Stop Frequency", "Factor"}
	for i, name := range names {
		if got := m.ParameterInfo(i).Name; got != name {
			t.Fatalf("ParameterInfo(%d).Name=%q want %q", i, got, name)
		}

		if got := m.ParameterIndex(name); got != i {
			t.Fatalf("ParameterIndex(%q)=%d want %d", name, got, i)
		}
	}

	if m.ParameterIndex("nope") != -1 {
		t.Fatal("unknown parameter found")
	}

	if m.Parameter(ParamWet) != 100 || m.Parameter(ParamStopFrequency) != 1 {
		t.Fatal("base defaults wrong")
	}

	factor := NumBaseParameters
	if got := m.SetParameter(factor, 2.5); got != 2.5 || m.Parameter(factor) != 2.5 {
		t.Fatalf("SetParameter(factor)=%v", got)
	}

	if got := m.SetParameterPercentage(ParamGain, 25); got != -12 {
		t.Fatalf("gain at 25%%=%v want -12", got)
	}

	if got := m.ParameterPercentage(ParamGain); math.Abs(got-25) > 1e-12 {
		t.Fatalf("gain percentage=%v want 25", got)
	}

	m.SetBypass(true)

	if !m.Bypassed() {
		t.Fatal("bypass not set")
	}

	m.ResetParameters()

	if m.Bypassed() || m.Parameter(factor) != 1 || m.Parameter(ParamGain) != 0 {
		t.Fatal("ResetParameters did not restore defaults")
	}
}

func TestModuleFrequencyHelpers(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	m.SetStartFrequencyHz(1000, 48000)
	m.SetStopFrequencyHz(30000, 48000)

	if got := m.Parameter(ParamStartFrequency); math.Abs(got-1.0/24) > 1e-12 {
		t.Fatalf("start=%v", got)
	}

	if m.Parameter(ParamStopFrequency) != 1 {
		t.Fatalf("stop above Nyquist not clamped: %v", m.Parameter(ParamStopFrequency))
	}

	if got := m.StartFrequencyHz(48000); math.Abs(got-1000) > 1e-9 {
		t.Fatalf("StartFrequencyHz=%v", got)
	}

	if got := m.StopFrequencyHz(48000); got != 24000 {
		t.Fatalf("StopFrequencyHz=%v", got)
	}
}

func TestModuleOwnership(t *testing.T) {
	t.Parallel()

	e := &recordEffect{name: "R"}
	m := mustModule(t, e)

	if m.Owners() != 1 {
		t.Fatalf("owners=%d want 1", m.Owners())
	}

	m.Retain()
	m.Release()

	if m.Destroyed() {
		t.Fatal("destroyed with an owner left")
	}

	m.Release()

	if !m.Destroyed() || !e.closed {
		t.Fatalf("destroyed=%v closed=%v", m.Destroyed(), e.closed)
	}
}

func shellFormat() Format {
	return Format{Channels: 1, SampleRate: 16000, FFTSize: 16, StepSize: 4, Bins: 9}
}

func shellFrame() *Frame {
	spec := make([]complex128, 9)
	for k := range spec {
		spec[k] = complex(float64(k+1), -1)
	}

	return &Frame{Main: [][]complex128{spec}, Format: shellFormat()}
}

func setUp(t *testing.T, m *Module) {
	t.Helper()

	err := m.setup(shellFormat())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
}

func TestModuleShellBypass(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	setUp(t, m)
	m.SetBypass(true)

	f := shellFrame()
	m.process(f)

	if f.Main[0][3] != complex(4, -1) {
		t.Fatalf("bypassed module changed spectrum: %v", f.Main[0][3])
	}
}

func TestModuleShellFrequencyRange(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	setUp(t, m)
	m.SetParameter(ParamStartFrequency, 0.5)
	m.SetParameter(ParamStopFrequency, 0.75)

	f := shellFrame()
	m.process(f)

	for k, v := range f.Main[0] {
		inside := k >= 4 && k <= 6
		if inside && v != 0 {
			t.Fatalf("bin %d inside range not processed: %v", k, v)
		}

		if !inside && v != complex(float64(k+1), -1) {
			t.Fatalf("bin %d outside range changed: %v", k, v)
		}
	}
}

func TestModuleShellInvertedRange(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	setUp(t, m)
	m.SetParameter(ParamStartFrequency, 0.8)
	m.SetParameter(ParamStopFrequency, 0.2)

	f := shellFrame()
	m.process(f)

	if f.Main[0][5] != complex(6, -1) {
		t.Fatalf("empty band changed spectrum: %v", f.Main[0][5])
	}
}

func TestModuleShellWetAndGain(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	setUp(t, m)
	m.SetParameter(ParamWet, 25)

	f := shellFrame()
	m.process(f)

	if got, want := f.Main[0][2], complex(0.75*3, -0.75); cmplx.Abs(got-want) > 1e-12 {
		t.Fatalf("wet 25%%: got %v want %v", got, want)
	}

	s := mustModule(t, newScaleEffect())
	setUp(t, s)
	s.SetParameter(ParamGain, 20)

	f = shellFrame()
	s.process(f)

	if got, want := f.Main[0][1], complex(20, -10); cmplx.Abs(got-want) > 0.01*cmplx.Abs(want) {
		t.Fatalf("gain +20 dB: got %v want %v", got, want)
	}
}

func TestModuleShellSkipsDestroyed(t *testing.T) {
	t.Parallel()

	m := mustModule(t, zeroEffect{})
	setUp(t, m)
	m.Release()

	f := shellFrame()
	m.process(f)

	if f.Main[0][0] != complex(1, -1) {
		t.Fatal("destroyed module processed")
	}
}

func TestModuleSetupOnce(t *testing.T) {
	t.Parallel()

	e := &recordEffect{name: "R"}
	m := mustModule(t, e)
	setUp(t, m)
	setUp(t, m)

	if len(e.setups) != 1 {
		t.Fatalf("setups=%d want 1 for an unchanged format", len(e.setups))
	}

	other := shellFormat()
	other.Channels = 2

	if err := m.setup(other); err != nil {
		t.Fatal(err)
	}

	if len(e.setups) != 2 || len(m.dry) != 2 {
		t.Fatalf("setups=%d dry=%d after format change", len(e.setups), len(m.dry))
	}
}

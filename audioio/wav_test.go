package audioio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-spectral/internal/testutil"
)

func TestNewClipValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []float32
		channels int
		rate     int
	}{
		{"no channels", nil, 0, 44100},
		{"no rate", nil, 1, 0},
		{"ragged", make([]float32, 3), 2, 44100},
	}

	for _, tt := range tests {
		if _, err := NewClip(tt.data, tt.channels, tt.rate); !errors.Is(err, errInvalidClip) {
			t.Errorf("%s: err=%v", tt.name, err)
		}
	}

	c, err := NewClip(make([]float32, 8), 2, 8000)
	if err != nil {
		t.Fatal(err)
	}

	if c.Frames() != 4 || c.Seconds() != 0.0005 {
		t.Fatalf("frames=%d seconds=%v", c.Frames(), c.Seconds())
	}
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	left := testutil.DeterministicSine[float32](440, 48000, 0.5, 4800)
	right := testutil.DeterministicNoise[float32](3, 0.25, 4800)
	src, _ := NewClip(testutil.Interleave([][]float32{left, right}), 2, 48000)

	path := filepath.Join(t.TempDir(), "out", "clip.wav")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := WriteWAV(path, src); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	got, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}

	if got.Channels != 2 || got.SampleRate != 48000 || got.Frames() != 4800 {
		t.Fatalf("channels=%d rate=%d frames=%d", got.Channels, got.SampleRate, got.Frames())
	}

	testutil.RequireSliceNearlyEqual(t, got.Data, src.Data, 1e-3)
}

func TestReadWAVErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := ReadWAV(filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}

	bogus := filepath.Join(dir, "bogus.wav")
	if err := os.WriteFile(bogus, []byte(strings.Repeat("not a wav file ", 8)), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadWAV(bogus); err == nil {
		t.Fatal("expected error for invalid file")
	}

	if err := WriteWAV(filepath.Join(dir, "x.wav"), &Clip{Channels: 0, SampleRate: 1}); !errors.Is(err, errInvalidClip) {
		t.Fatalf("err=%v", err)
	}
}

func TestClipRead(t *testing.T) {
	t.Parallel()

	c, _ := NewClip([]float32{1, -1, 2, -2, 3, -3}, 2, 100)
	dst := make([]float32, 4)

	if n := c.Read(dst, 2); n != 2 || dst[3] != -2 {
		t.Fatalf("n=%d dst=%v", n, dst)
	}

	if n := c.Read(dst, 2); n != 1 || dst[0] != 3 || dst[2] != 0 || dst[3] != 0 {
		t.Fatalf("n=%d dst=%v", n, dst)
	}

	if n := c.Read(dst, 2); n != 0 || dst[0] != 0 {
		t.Fatalf("n=%d dst=%v", n, dst)
	}

	c.Rewind()

	if n := c.Read(dst, 1); n != 1 || dst[0] != 1 {
		t.Fatalf("n=%d after rewind", n)
	}
}

func TestClipReadLooped(t *testing.T) {
	t.Parallel()

	c, _ := NewClip([]float32{1, 2, 3}, 1, 100)
	dst := make([]float32, 7)

	c.ReadLooped(dst, 7)

	want := []float32{1, 2, 3, 1, 2, 3, 1}
	testutil.RequireIdentical(t, dst, want)

	c.ReadLooped(dst[:2], 2)

	if dst[0] != 2 || dst[1] != 3 {
		t.Fatalf("loop cursor lost: %v", dst[:2])
	}

	empty := &Clip{Channels: 2, SampleRate: 100}
	buf := []float32{1, 1, 1, 1}
	empty.ReadLooped(buf, 2)
	testutil.RequireSilent(t, buf)
}

func TestClipPlanar(t *testing.T) {
	t.Parallel()

	c, _ := NewClip([]float32{1, 10, 2, 20, 3, 30}, 2, 100)
	p := c.Planar()

	testutil.RequireIdentical(t, p[0], []float32{1, 2, 3})
	testutil.RequireIdentical(t, p[1], []float32{10, 20, 30})
}

func TestClipResample(t *testing.T) {
	t.Parallel()

	const frames = 4410

	tone := testutil.DeterministicSine[float32](1000, 44100, 0.5, frames)
	c, _ := NewClip(testutil.Interleave([][]float32{tone, tone}), 2, 44100)

	same, err := c.Resample(44100)
	if err != nil || same.Frames() != frames {
		t.Fatalf("same rate: frames=%d err=%v", same.Frames(), err)
	}

	up, err := c.Resample(48000)
	if err != nil {
		t.Fatal(err)
	}

	if up.SampleRate != 48000 || up.Channels != 2 {
		t.Fatalf("rate=%d channels=%d", up.SampleRate, up.Channels)
	}

	if math.Abs(float64(up.Frames())-frames*48000.0/44100) > 256 {
		t.Fatalf("frames=%d", up.Frames())
	}

	testutil.RequireFinite(t, up.Data)

	if _, err := c.Resample(0); !errors.Is(err, errInvalidClip) {
		t.Fatalf("err=%v", err)
	}
}

func TestClipConvert(t *testing.T) {
	t.Parallel()

	stereo, _ := NewClip([]float32{1, 3, -2, 0, 0.5, 0.5}, 2, 8000)

	tests := []struct {
		name     string
		channels int
		want     []float32
	}{
		{name: "same", channels: 2, want: []float32{1, 3, -2, 0, 0.5, 0.5}},
		{name: "mono", channels: 1, want: []float32{2, -1, 0.5}},
		{name: "spread", channels: 3, want: []float32{2, 2, 2, -1, -1, -1, 0.5, 0.5, 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := stereo.Convert(tc.channels, 8000)
			if err != nil {
				t.Fatal(err)
			}

			if c.Channels != tc.channels || c.SampleRate != 8000 {
				t.Fatalf("channels=%d rate=%d", c.Channels, c.SampleRate)
			}

			testutil.RequireIdentical(t, c.Data, tc.want)
		})
	}

	if _, err := stereo.Convert(0, 8000); !errors.Is(err, errInvalidClip) {
		t.Fatalf("err=%v", err)
	}

	if _, err := stereo.Convert(1, -1); !errors.Is(err, errInvalidClip) {
		t.Fatalf("err=%v", err)
	}
}

func TestWriteWAVDeterministic(t *testing.T) {
	t.Parallel()

	tone := testutil.DeterministicSine[float32](997, 44100, 0.001, 2048)
	c, _ := NewClip(tone, 1, 44100)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.wav")
	b := filepath.Join(dir, "b.wav")

	for _, path := range []string{a, b} {
		if err := WriteWAV(path, c); err != nil {
			t.Fatal(err)
		}
	}

	da, errA := os.ReadFile(a)
	db, errB := os.ReadFile(b)

	if errA != nil || errB != nil {
		t.Fatalf("read: %v %v", errA, errB)
	}

	if !bytes.Equal(da, db) {
		t.Fatal("repeated renders differ")
	}
}

func TestReadWAVAs(t *testing.T) {
	t.Parallel()

	stereo, _ := NewClip([]float32{0.5, 0.25, -0.5, -0.25}, 2, 44100)

	path := filepath.Join(t.TempDir(), "side.wav")
	if err := WriteWAV(path, stereo); err != nil {
		t.Fatal(err)
	}

	c, err := ReadWAVAs(path, 1, 44100)
	if err != nil {
		t.Fatal(err)
	}

	if c.Channels != 1 || c.SampleRate != 44100 || c.Frames() != 2 {
		t.Fatalf("channels=%d rate=%d frames=%d", c.Channels, c.SampleRate, c.Frames())
	}

	testutil.RequireSliceNearlyEqual(t, c.Data, []float32{0.375, -0.375}, 1e-3)

	if _, err := ReadWAVAs(filepath.Join(t.TempDir(), "missing.wav"), 1, 44100); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}

package audioio

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/cwbudde/algo-dsp/dsp/dither"
	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// BitDepth is the sample resolution WriteWAV encodes with.
const BitDepth = 16

var errInvalidClip = errors.New("invalid clip")

// Clip is an interleaved float32 recording with a read cursor.
type Clip struct {
	Data       []float32
	Channels   int
	SampleRate int

	pos int // frame offset of the next Read
}

// NewClip wraps interleaved data.
func NewClip(data []float32, channels, sampleRate int) (*Clip, error) {
	c := &Clip{Data: data, Channels: channels, SampleRate: sampleRate}

	err := c.validate()
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Clip) validate() error {
	switch {
	case c.Channels < 1:
		return fmt.Errorf("%w: %d channels", errInvalidClip, c.Channels)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", errInvalidClip, c.SampleRate)
	case len(c.Data)%c.Channels != 0:
		return fmt.Errorf("%w: %d samples do not fill %d channels", errInvalidClip, len(c.Data), c.Channels)
	}

	return nil
}

// Frames returns the clip length in frames.
func (c *Clip) Frames() int {
	if c.Channels < 1 {
		return 0
	}

	return len(c.Data) / c.Channels
}

// Seconds returns the clip length in seconds.
func (c *Clip) Seconds() float64 {
	if c.SampleRate <= 0 {
		return 0
	}

	return float64(c.Frames()) / float64(c.SampleRate)
}

// Rewind moves the read cursor to the start.
func (c *Clip) Rewind() { c.pos = 0 }

// Read copies up to frames frames from the cursor into dst and advances the
// cursor. Frames past the end are zero. It returns the number of frames
// taken from the clip.
func (c *Clip) Read(dst []float32, frames int) int {
	n := min(frames, c.Frames()-c.pos)
	n = max(n, 0)

	copy(dst[:n*c.Channels], c.Data[c.pos*c.Channels:])
	clear(dst[n*c.Channels : frames*c.Channels])

	c.pos += n

	return n
}

// ReadLooped fills frames frames of dst from the cursor, wrapping to the
// start at the end of the clip. An empty clip yields silence.
func (c *Clip) ReadLooped(dst []float32, frames int) {
	total := c.Frames()
	if total == 0 {
		clear(dst[:frames*c.Channels])
		return
	}

	for done := 0; done < frames; {
		if c.pos >= total {
			c.pos = 0
		}

		n := min(frames-done, total-c.pos)
		copy(dst[done*c.Channels:(done+n)*c.Channels], c.Data[c.pos*c.Channels:])

		c.pos += n
		done += n
	}
}

// Planar returns the clip as one slice per channel.
func (c *Clip) Planar() [][]float32 {
	frames := c.Frames()
	out := make([][]float32, c.Channels)

	for ch := range out {
		out[ch] = make([]float32, frames)
		for i := range frames {
			out[ch][i] = c.Data[i*c.Channels+ch]
		}
	}

	return out
}

// Resample converts the clip to rate. The result has its own cursor.
func (c *Clip) Resample(rate int) (*Clip, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: target rate %d", errInvalidClip, rate)
	}

	if rate == c.SampleRate {
		return &Clip{Data: append([]float32(nil), c.Data...), Channels: c.Channels, SampleRate: rate}, nil
	}

	var out [][]float64

	for _, ch := range c.Planar() {
		r, err := dspresample.NewForRates(
			float64(c.SampleRate),
			float64(rate),
			dspresample.WithQuality(dspresample.QualityBest),
		)
		if err != nil {
			return nil, fmt.Errorf("audioio: resample %d -> %d: %w", c.SampleRate, rate, err)
		}

		in := make([]float64, len(ch))
		for i, v := range ch {
			in[i] = float64(v)
		}

		out = append(out, r.Process(in))
	}

	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	}

	data := make([]float32, frames*c.Channels)
	for ch, samples := range out {
		for i := range min(frames, len(samples)) {
			data[i*c.Channels+ch] = float32(samples[i])
		}
	}

	return &Clip{Data: data, Channels: c.Channels, SampleRate: rate}, nil
}

// Convert resamples the clip to sampleRate and maps it onto channels.
// Matching layouts are copied; otherwise every output channel carries the
// mono downmix.
func (c *Clip) Convert(channels, sampleRate int) (*Clip, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: target %d channels", errInvalidClip, channels)
	}

	r, err := c.Resample(sampleRate)
	if err != nil {
		return nil, err
	}

	if r.Channels == channels {
		return r, nil
	}

	frames := r.Frames()
	data := make([]float32, frames*channels)
	scale := 1 / float32(r.Channels)

	for i := range frames {
		var sum float32
		for _, v := range r.Data[i*r.Channels : (i+1)*r.Channels] {
			sum += v
		}

		for ch := range channels {
			data[i*channels+ch] = sum * scale
		}
	}

	return &Clip{Data: data, Channels: channels, SampleRate: sampleRate}, nil
}

// ReadWAV loads a WAV file.
func ReadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := DecodeWAV(f)
	if err != nil {
		return nil, fmt.Errorf("audioio: %s: %w", path, err)
	}

	return c, nil
}

// ReadWAVAs loads a WAV file and converts it to channels and sampleRate.
func ReadWAVAs(path string, channels, sampleRate int) (*Clip, error) {
	c, err := ReadWAV(path)
	if err != nil {
		return nil, err
	}

	return c.Convert(channels, sampleRate)
}

// DecodeWAV decodes a WAV stream into a clip normalized to [-1, 1].
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, errors.New("invalid wav buffer")
	}

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch

	return NewClip(buf.Data[:frames*ch], ch, buf.Format.SampleRate)
}

// WriteWAV stores c as 16-bit PCM.
func WriteWAV(path string, c *Clip) error {
	err := c.validate()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = EncodeWAV(f, c)
	if err != nil {
		f.Close()
		return fmt.Errorf("audioio: %s: %w", path, err)
	}

	return f.Close()
}

// EncodeWAV writes c as 16-bit PCM to w. Samples are quantized with
// triangular dither; the noise sequence is seeded per channel so repeated
// renders are identical.
func EncodeWAV(w io.WriteSeeker, c *Clip) error {
	data, err := ditherClip(c)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(w, c.SampleRate, BitDepth, c.Channels, 1)

	err = enc.Write(&audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  c.SampleRate,
			NumChannels: c.Channels,
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	})
	if err != nil {
		enc.Close()
		return err
	}

	return enc.Close()
}

func ditherClip(c *Clip) ([]float32, error) {
	out := make([]float32, len(c.Data))

	for ch := range c.Channels {
		q, err := dither.NewQuantizer(float64(c.SampleRate),
			dither.WithBitDepth(BitDepth),
			dither.WithDitherType(dither.DitherTriangular),
			dither.WithFIRPreset(dither.PresetNone),
			dither.WithRNG(rand.New(rand.NewPCG(uint64(ch)+1, 0))),
		)
		if err != nil {
			return nil, fmt.Errorf("audioio: dither: %w", err)
		}

		for i := ch; i < len(c.Data); i += c.Channels {
			out[i] = float32(q.ProcessSample(float64(c.Data[i])))
		}
	}

	return out, nil
}

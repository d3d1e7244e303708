package engine

import (
	"fmt"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-spectral/dsp/window"
	"github.com/cwbudde/algo-spectral/internal/assert"
)

// channelState is the streaming state of one channel.
type channelState struct {
	hist    []float64 // last FFTSize input samples
	pending []float64 // input of the running hop
	acc     []float64 // overlap-add accumulator
	out     []float64 // synthesized output played during the running hop
	dry     []float64 // input delayed by the latency, aligned with out
	buf     []float64 // windowed frame / inverse transform scratch
	spec    []complex128
}

func newChannelState(n, hop, bins int) channelState {
	return channelState{
		hist:    make([]float64, n),
		pending: make([]float64, hop),
		acc:     make([]float64, n),
		out:     make([]float64, hop),
		dry:     make([]float64, hop),
		buf:     make([]float64, n),
		spec:    make([]complex128, bins),
	}
}

func (c *channelState) reset() {
	clear(c.hist)
	clear(c.pending)
	clear(c.acc)
	clear(c.out)
	clear(c.dry)
	clear(c.spec)
}

// shift appends the finished hop to the analysis history.
func (c *channelState) shift() {
	hop := len(c.pending)
	copy(c.hist, c.hist[hop:])
	copy(c.hist[len(c.hist)-hop:], c.pending)
}

// wola is the analysis/synthesis state of a configured processor.
type wola struct {
	format Format
	plan   *algofft.PlanRealT[float64, complex128]

	analysis  []float64
	synthesis []float64

	main []channelState
	side []channelState

	frame    Frame
	mainSpec [][]complex128
	sideSpec [][]complex128

	// pos is the offset inside the running hop; sideSeen records whether
	// side input arrived during it.
	pos      int
	sideSeen bool

	// latched at the start of each hop
	gain float64
	wet  float64
}

func newWOLA(p EngineParameters) (*wola, error) {
	f := p.format()

	plan, err := algofft.NewPlanReal64(f.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("engine: fft plan %d: %w", f.FFTSize, err)
	}

	coeffs := window.Generate(p.Window, f.FFTSize, window.WithPeriodic())

	energy := window.SumOfSquares(coeffs)
	if energy <= 0 {
		return nil, fmt.Errorf("%w: window %v has no energy", ErrInvalidParameter, p.Window)
	}

	synthesis := make([]float64, f.FFTSize)
	vecmath.ScaleBlock(synthesis, coeffs, float64(f.StepSize)/energy)

	w := &wola{
		format:    f,
		plan:      plan,
		analysis:  coeffs,
		synthesis: synthesis,
		main:      make([]channelState, f.Channels),
		side:      make([]channelState, f.Channels),
		mainSpec:  make([][]complex128, f.Channels),
		sideSpec:  make([][]complex128, f.Channels),
	}

	for ch := range f.Channels {
		w.main[ch] = newChannelState(f.FFTSize, f.StepSize, f.Bins)
		w.side[ch] = newChannelState(f.FFTSize, f.StepSize, f.Bins)
		w.mainSpec[ch] = w.main[ch].spec
		w.sideSpec[ch] = w.side[ch].spec
	}

	w.frame = Frame{Main: w.mainSpec, Format: f}

	return w, nil
}

func (w *wola) reset() {
	for ch := range w.main {
		w.main[ch].reset()
		w.side[ch].reset()
	}

	w.pos = 0
	w.sideSeen = false
}

// Process renders frames samples of planar audio. side may be nil; out may
// alias main. Output lags input by LatencyInSamples.
func (p *Processor) Process(main, side, out [][]float32, frames int) {
	if frames <= 0 {
		return
	}

	w := p.w
	if w == nil {
		assert.That(false, "process on unconfigured processor")
		return
	}

	chans := w.format.Channels
	if !planarFits(main, chans, frames) || !planarFits(out, chans, frames) {
		assert.That(false, "process: buffers shorter than %d channels x %d frames", chans, frames)
		return
	}

	if side != nil && (len(side) == 0 || !planarFits(side, min(len(side), chans), frames)) {
		assert.That(false, "process: side buffer shorter than %d frames", frames)

		side = nil
	}

	hop := w.format.StepSize

	for done := 0; done < frames; {
		if w.pos == 0 {
			w.latch(p)
		}

		n := min(frames-done, hop-w.pos)

		for ch := range chans {
			c := &w.main[ch]
			src := main[ch][done : done+n]
			dst := out[ch][done : done+n]

			for i, v := range src {
				c.pending[w.pos+i] = float64(v)
			}

			for i := range dst {
				dst[i] = w.mix(c, w.pos+i)
			}

			w.feedSide(ch, planarChannel(side, ch, done, n), n)
		}

		if side != nil {
			w.sideSeen = true
		}

		w.advance(p, n)
		done += n
	}
}

// ProcessInPlace renders planar audio in place without side input.
func (p *Processor) ProcessInPlace(buf [][]float32, frames int) {
	p.Process(buf, nil, buf, frames)
}

// ProcessInterleaved renders frames samples of interleaved audio. side, if
// not nil, is interleaved with the same channel count. out may alias main.
func (p *Processor) ProcessInterleaved(main, side, out []float32, frames int) {
	if frames <= 0 {
		return
	}

	w := p.w
	if w == nil {
		assert.That(false, "process on unconfigured processor")
		return
	}

	chans := w.format.Channels
	if len(main) < frames*chans || len(out) < frames*chans {
		assert.That(false, "process: interleaved buffers shorter than %d samples", frames*chans)
		return
	}

	if side != nil && len(side) < frames*chans {
		assert.That(false, "process: interleaved side buffer shorter than %d samples", frames*chans)

		side = nil
	}

	hop := w.format.StepSize

	for done := 0; done < frames; {
		if w.pos == 0 {
			w.latch(p)
		}

		n := min(frames-done, hop-w.pos)

		for i := range n {
			base := (done + i) * chans
			at := w.pos + i

			for ch := range chans {
				c := &w.main[ch]
				c.pending[at] = float64(main[base+ch])
				out[base+ch] = w.mix(c, at)

				if side != nil {
					w.side[ch].pending[at] = float64(side[base+ch])
				} else {
					w.side[ch].pending[at] = 0
				}
			}
		}

		if side != nil {
			w.sideSeen = true
		}

		w.advance(p, n)
		done += n
	}
}

// ProcessInterleavedInPlace renders interleaved audio in place without side
// input.
func (p *Processor) ProcessInterleavedInPlace(buf []float32, frames int) {
	p.ProcessInterleaved(buf, nil, buf, frames)
}

func planarFits(bufs [][]float32, chans, frames int) bool {
	if len(bufs) < chans {
		return false
	}

	for _, b := range bufs[:chans] {
		if len(b) < frames {
			return false
		}
	}

	return true
}

// planarChannel returns the side segment for ch. Missing side channels
// repeat the available ones, so a mono side chain feeds every channel.
func planarChannel(side [][]float32, ch, from, n int) []float32 {
	if len(side) == 0 {
		return nil
	}

	return side[ch%len(side)][from : from+n]
}

func (w *wola) feedSide(ch int, src []float32, n int) {
	dst := w.side[ch].pending[w.pos : w.pos+n]
	if src == nil {
		clear(dst)
		return
	}

	for i, v := range src {
		dst[i] = float64(v)
	}
}

func (w *wola) latch(p *Processor) {
	w.gain = p.Gain()
	w.wet = p.Wetness()
}

// mix returns the output sample at offset i of the running hop.
func (w *wola) mix(c *channelState, i int) float32 {
	return float32(w.gain * (w.wet*c.out[i] + (1-w.wet)*c.dry[i]))
}

// advance moves the hop offset and the timebase by n and runs a step when
// the hop is complete.
func (w *wola) advance(p *Processor, n int) {
	w.pos += n
	p.position.Add(int64(n))

	if w.pos == w.format.StepSize {
		w.step(p)
		w.pos = 0
		w.sideSeen = false
	}
}

// step runs one analysis, chain and synthesis cycle.
func (w *wola) step(p *Processor) {
	modules := p.chain.Modules()
	tb := p.timebase()

	needSide := false

	for _, m := range modules {
		if m.Destroyed() {
			continue
		}

		m.applyLFOs(tb)

		if m.UsesSideChannel() && !m.Bypassed() {
			needSide = true
		}
	}

	for ch := range w.main {
		c := &w.main[ch]
		c.shift()
		copy(c.dry, c.hist)
		w.analyze(c)

		w.side[ch].shift()
	}

	w.frame.Side = nil

	if needSide && w.sideSeen {
		for ch := range w.side {
			w.analyze(&w.side[ch])
		}

		w.frame.Side = w.sideSpec
	}

	w.frame.Position = tb.position

	for _, m := range modules {
		m.process(&w.frame)
	}

	n := w.format.FFTSize
	hop := w.format.StepSize

	for ch := range w.main {
		c := &w.main[ch]

		err := w.plan.Inverse(c.buf, c.spec)
		if err != nil {
			clear(c.buf)
		}

		vecmath.MulBlockInPlace(c.buf, w.synthesis)
		vecmath.AddBlockInPlace(c.acc, c.buf)

		for i := range c.out {
			c.out[i] = dspcore.FlushDenormals(c.acc[i])
		}

		copy(c.acc, c.acc[hop:])
		clear(c.acc[n-hop:])
	}
}

func (w *wola) analyze(c *channelState) {
	vecmath.MulBlock(c.buf, c.hist, w.analysis)

	err := w.plan.Forward(c.spec, c.buf)
	if err != nil {
		clear(c.spec)
	}
}

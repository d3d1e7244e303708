// Command swplay plays a looped WAV file through a spectral preset on the
// default audio device.
//
// Usage:
//
//	swplay -preset freeze.json -in pad.wav [-side drums.wav] [-duration 30s]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cwbudde/algo-spectral/audioio"
	"github.com/cwbudde/algo-spectral/dsp/effects/spectral"
	"github.com/cwbudde/algo-spectral/dsp/engine"
)

func main() {
	presetPath := flag.String("preset", "", "preset JSON file (required)")
	inPath := flag.String("in", "", "input WAV file (required)")
	sidePath := flag.String("side", "", "side-chain WAV file (overrides the preset's sample)")
	duration := flag.Duration("duration", 0, "stop after this long (0 plays until interrupted)")
	flag.Parse()

	if *presetPath == "" || *inPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	in, err := audioio.ReadWAV(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	params := engine.DefaultEngineParameters
	params.Channels = in.Channels
	params.SampleRate = float64(in.SampleRate)

	p, err := engine.New(engine.WithRegistry(spectral.DefaultRegistry()), engine.WithEngineParameters(params))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating processor: %v\n", err)
		os.Exit(1)
	}

	sample, err := p.LoadPresetFile(*presetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
		os.Exit(1)
	}

	if *sidePath == "" && sample != "" {
		*sidePath = filepath.Join(filepath.Dir(*presetPath), sample)
	}

	var side *audioio.Clip

	if *sidePath != "" {
		side, err = audioio.ReadWAVAs(*sidePath, in.Channels, in.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading side chain %q: %v\n", *sidePath, err)
			os.Exit(1)
		}
	}

	pl := newPlayer(p, in, side)

	dev, err := audioio.OpenDevice(in.SampleRate, in.Channels, pl.fill)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Playing %s through %s (%d modules, latency %.1f ms). Press Ctrl+C to stop.\n",
		*inPath, *presetPath, p.Chain().Size(), p.LatencyInMilliseconds())

	dev.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	select {
	case <-sig:
	case <-timeout:
	}

	dev.Stop()

	err = dev.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error closing audio device: %v\n", err)
		os.Exit(1)
	}
}

// player feeds the looped input and side chain through the processor.
type player struct {
	p    *engine.Processor
	in   *audioio.Clip
	side *audioio.Clip

	main    []float32
	sideBuf []float32
}

func newPlayer(p *engine.Processor, in, side *audioio.Clip) *player {
	return &player{p: p, in: in, side: side}
}

func (pl *player) fill(buf []float32, frames int) {
	n := frames * pl.in.Channels
	if cap(pl.main) < n {
		pl.main = make([]float32, n)
		pl.sideBuf = make([]float32, n)
	}

	main := pl.main[:n]
	pl.in.ReadLooped(main, frames)

	var side []float32
	if pl.side != nil {
		side = pl.sideBuf[:n]
		pl.side.ReadLooped(side, frames)
	}

	pl.p.ProcessInterleaved(main, side, buf[:n], frames)
}

// Command swrender renders a WAV file through a spectral preset.
//
// Usage:
//
//	swrender -preset robot.json -in voice.wav -out robot.wav [-side drums.wav]
//
// The side chain defaults to the sample named by the preset, resolved next
// to the preset file, and loops for the length of the input. The output is
// aligned with the input unless -keep-latency is set.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	stats "github.com/cwbudde/algo-dsp/stats/time"
	"github.com/cwbudde/algo-spectral/audioio"
	"github.com/cwbudde/algo-spectral/dsp/effects/spectral"
	"github.com/cwbudde/algo-spectral/dsp/engine"
)

const blockFrames = 512

func main() {
	presetPath := flag.String("preset", "", "preset JSON file (required)")
	inPath := flag.String("in", "", "input WAV file (required)")
	outPath := flag.String("out", "output.wav", "output WAV file")
	sidePath := flag.String("side", "", "side-chain WAV file (overrides the preset's sample)")
	gainDB := flag.Float64("gain-db", 0, "additional output gain in dB")
	keepLatency := flag.Bool("keep-latency", false, "keep the processing latency at the start of the output")
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

	if *gainDB != 0 {
		p.SetGainDB(p.GainDB() + *gainDB)
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

	fmt.Printf("Rendering %s (%d ch, %d Hz, %.2f s) with %s: %d modules, FFT %d/%d, latency %.1f ms\n",
		*inPath, in.Channels, in.SampleRate, in.Seconds(), *presetPath,
		p.Chain().Size(), p.FFTSize(), p.OverlapFactor(), p.LatencyInMilliseconds())

	out := render(p, in, side, !*keepLatency)

	err = audioio.WriteWAV(*outPath, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	inLevel := levels(in.Data)
	outLevel := levels(out.Data)

	fmt.Printf("Wrote %s (%d frames)\n", *outPath, out.Frames())
	fmt.Printf("  input:  peak %6.1f dBFS, RMS %6.1f dBFS\n", inLevel.Peak_dB, inLevel.RMS_dB)
	fmt.Printf("  output: peak %6.1f dBFS, RMS %6.1f dBFS\n", outLevel.Peak_dB, outLevel.RMS_dB)
}

func levels(data []float32) stats.Stats {
	buf := make([]float64, len(data))
	for i, v := range data {
		buf[i] = float64(v)
	}

	return stats.Calculate(buf)
}


// render runs in through p block by block. With align set the input is padded by
// the latency and the leading latency is dropped from the output.
func render(p *engine.Processor, in, side *audioio.Clip, align bool) *audioio.Clip {
	chans := in.Channels
	frames := in.Frames()
	latency := 0

	if align {
		latency = p.LatencyInSamples()
	}

	total := frames + latency
	out := make([]float32, 0, frames*chans)

	main := make([]float32, blockFrames*chans)
	sideBuf := make([]float32, blockFrames*chans)
	block := make([]float32, blockFrames*chans)

	in.Rewind()

	for done := 0; done < total; {
		n := min(blockFrames, total-done)
		in.Read(main, n)

		var sideIn []float32
		if side != nil {
			side.ReadLooped(sideBuf, n)
			sideIn = sideBuf[:n*chans]
		}

		p.ProcessInterleaved(main[:n*chans], sideIn, block[:n*chans], n)

		skip := max(latency-done, 0)
		if skip < n {
			out = append(out, block[skip*chans:n*chans]...)
		}

		done += n
	}

	return &audioio.Clip{Data: out, Channels: chans, SampleRate: in.SampleRate}
}

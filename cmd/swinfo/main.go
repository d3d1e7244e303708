// Command swinfo prints the WOLA properties of the window functions and the
// parameters of the built-in spectral effects.
//
// Usage:
//
//	swinfo [flags] [window-name ...]
//
// Without arguments it prints info for all windows.
//
// Examples:
//
//	swinfo hann
//	swinfo -size 4096 blackman-harris
//	swinfo -effects
//	swinfo -list
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-spectral/dsp/effects/spectral"
	"github.com/cwbudde/algo-spectral/dsp/engine"
	"github.com/cwbudde/algo-spectral/dsp/window"
)

var overlaps = []int{1, 2, 4, 8}

func main() {
	size := flag.Int("size", 2048, "FFT size in samples")
	effects := flag.Bool("effects", false, "list the built-in effects and their parameters")
	list := flag.Bool("list", false, "list available window names")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: swinfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints WOLA properties of window functions and the built-in effects.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  swinfo hann blackman\n")
		fmt.Fprintf(os.Stderr, "  swinfo -size 4096 flat-top\n")
		fmt.Fprintf(os.Stderr, "  swinfo -effects\n")
	}
	flag.Parse()

	if *list {
		for _, f := range window.All {
			fmt.Println(f)
		}

		return
	}

	if *effects {
		err := printEffects(spectral.DefaultRegistry())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	if *size < engine.MinFFTSize || *size > engine.MaxFFTSize || *size&(*size-1) != 0 {
		fmt.Fprintf(os.Stderr, "error: size must be a power of two in [%d, %d]\n", engine.MinFFTSize, engine.MaxFFTSize)
		os.Exit(1)
	}

	funcs := window.All

	if names := flag.Args(); len(names) > 0 {
		funcs = nil

		for _, name := range names {
			f, err := window.Parse(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v (use -list to see available)\n", err)
				continue
			}

			funcs = append(funcs, f)
		}
	}

	if len(funcs) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching window functions\n")
		os.Exit(1)
	}

	err := printWindows(funcs, *size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printWindows(funcs []window.Function, size int) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Window\tCoherent Gain\tENBW [bins]\tBW 3dB [bins]\tSidelobe [dB]")

	for _, o := range overlaps {
		fmt.Fprintf(tw, "\tRipple x%d [%%]", o)
	}

	fmt.Fprintln(tw)

	for _, f := range funcs {
		coeffs := window.Generate(f, size, window.WithPeriodic())
		a := window.Analyze(coeffs)

		fmt.Fprintf(tw, "%s\t%.6f\t%.4f\t%.4f\t%.2f",
			f, a.CoherentGain, a.ENBW, a.Bandwidth3dB, a.HighestSidelobedB)

		for _, o := range overlaps {
			r, err := window.OverlapRipple(coeffs, size/o)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}

			fmt.Fprintf(tw, "\t%.4f", r)
		}

		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

func printEffects(r *engine.Registry) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for _, name := range r.Names() {
		m, err := r.Create(name)
		if err != nil {
			return err
		}

		side := ""
		if m.UsesSideChannel() {
			side = " [side chain]"
		}

		fmt.Fprintf(tw, "%s (%s)%s: %s\n", name, m.Title(), side, m.Description())

		for i := range m.NumParameters() {
			in := m.ParameterInfo(i)
			fmt.Fprintf(tw, "  %s\t%s\t[%g, %g]\tdefault %g\t%s\n",
				in.Name, in.Kind, in.Min, in.Max, in.Default, in.Unit)
		}

		m.Release()
	}

	return tw.Flush()
}

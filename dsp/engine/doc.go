// Package engine implements a streaming spectral effects engine.
//
// A Processor runs a windowed overlap-add (WOLA) analysis/synthesis loop over
// planar or interleaved float32 audio. Every step it transforms the last
// FFTSize input samples into the frequency domain and hands the spectrum to
// the modules of its Chain, in chain order. Each Module wraps an opaque
// Effect together with a common set of base parameters (bypass, gain, wet
// mix and a frequency range).
//
// Configuration calls return errors. Processing, parameter access and
// non-inserting chain operations never do; precondition violations panic in
// builds with the swcheck tag and are ignored otherwise.
//
// Chain contents and parameter values may change while Process runs on
// another goroutine. Engine parameters (format, FFT size, overlap, window)
// must not.
package engine

// Package audioio moves audio between files, devices and the engine.
//
// Clips hold interleaved float32 samples read from or written to WAV files.
// Written files are 16-bit with triangular dither.
// Device plays a callback-driven stream on the system audio output; builds
// with the headless tag replace it by a stub that reports ErrNoDevice.
package audioio

// Package spectral provides the built-in spectral effects.
//
// Every effect implements engine.Effect and processes the half spectrum of
// one WOLA step in place. The module shell around an effect applies bypass,
// frequency range, wet mix and gain, so effects only implement their own
// transform. DefaultRegistry registers all of them by type name.
package spectral

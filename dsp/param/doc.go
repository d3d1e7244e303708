// Package param provides typed, bounded and introspectable parameter sets
// for spectral effect modules.
//
// A Set holds an ordered list of parameters, each described by an Info
// (name, unit, kind and range). Values are addressed by index, always
// clamped to their range and stored atomically, so a control thread may
// write parameters while a processing thread reads them. Writes are not
// grouped: for glitch-free updates of several parameters at once, stage a
// Snapshot, modify it and Assign it between two processing calls.
package param

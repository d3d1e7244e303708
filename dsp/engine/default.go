package engine

import "sync"

var (
	defaultOnce      sync.Once
	defaultProcessor *Processor
)

// Default returns a process-wide processor, created unconfigured on first
// use. It is a convenience for single-engine programs; nothing in this
// package depends on it. Callers coordinate its configuration and processing
// themselves.
func Default() *Processor {
	defaultOnce.Do(func() {
		// New without options cannot fail.
		defaultProcessor, _ = New()
	})

	return defaultProcessor
}

//go:build swcheck

package assert

import "fmt"

// Enabled reports whether precondition checks are compiled in.
const Enabled = true

// That panics with the formatted message when cond is false.
func That(cond bool, format string, args ...any) {
	if !cond {
		panic("precondition violated: " + fmt.Sprintf(format, args...))
	}
}

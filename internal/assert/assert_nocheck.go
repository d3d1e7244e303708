//go:build !swcheck

package assert

// Enabled reports whether precondition checks are compiled in.
const Enabled = false

// That is a no-op without the swcheck build tag.
func That(bool, string, ...any) {}

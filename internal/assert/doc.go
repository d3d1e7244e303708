// Package assert provides precondition checks for the realtime path.
//
// Checks are compiled in only with the swcheck build tag:
//
//	go test -tags swcheck ./...
//
// Without the tag every check is a no-op and Enabled is false, so callers
// can fall back to a tolerant code path instead of panicking.
package assert

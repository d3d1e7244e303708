package param

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/algo-spectral/internal/assert"
)

// Set is an ordered, fixed-size collection of parameters.
//
// Get and Set never fail. An index outside [0, Len()) panics like any
// slice access; values outside a parameter's range are clamped (and trip an
// assertion in swcheck builds).
type Set struct {
	infos  []Info
	values []atomic.Uint64
}

// Values is a detached copy of all values of a Set.
type Values []float64

// NewSet creates a Set from the given descriptions, initialised to their
// defaults.
func NewSet(infos ...Info) (*Set, error) {
	seen := make(map[string]struct{}, len(infos))

	for i, in := range infos {
		err := in.validate()
		if err != nil {
			return nil, fmt.Errorf("param: parameter %d: %w", i, err)
		}

		key := normalizeName(in.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("param: %w: duplicate name %q", errInvalidInfo, in.Name)
		}

		seen[key] = struct{}{}
	}

	s := &Set{
		infos:  append([]Info(nil), infos...),
		values: make([]atomic.Uint64, len(infos)),
	}
	s.Reset()

	return s, nil
}

// MustNewSet is like NewSet but panics on invalid descriptions. It is meant
// for effects whose parameter tables are fixed at compile time.
func MustNewSet(infos ...Info) *Set {
	s, err := NewSet(infos...)
	if err != nil {
		panic(err.Error())
	}

	return s
}

// Len returns the number of parameters. A nil Set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.infos)
}

// Info returns the description of parameter i.
func (s *Set) Info(i int) Info { return s.infos[i] }

// Get returns the current value of parameter i.
func (s *Set) Get(i int) float64 {
	return math.Float64frombits(s.values[i].Load())
}

// Bool returns parameter i as a switch.
func (s *Set) Bool(i int) bool { return s.Get(i) >= 0.5 }

// Int returns parameter i rounded to an integer.
func (s *Set) Int(i int) int { return int(math.Round(s.Get(i))) }

// Set stores v into parameter i and returns the stored (clamped) value.
func (s *Set) Set(i int, v float64) float64 {
	in := s.infos[i]
	assert.That(in.Contains(v), "param %q: value %g outside [%g, %g]", in.Name, v, in.Min, in.Max)

	v = in.Clamp(v)
	s.values[i].Store(math.Float64bits(v))

	return v
}

// SetBool stores a switch value.
func (s *Set) SetBool(i int, on bool) {
	v := 0.0
	if on {
		v = 1
	}

	s.Set(i, v)
}

// Percentage returns parameter i as a percentage of its range.
func (s *Set) Percentage(i int) float64 {
	return s.infos[i].ToPercentage(s.Get(i))
}

// SetPercentage sets parameter i to p percent of its range.
func (s *Set) SetPercentage(i int, p float64) float64 {
	return s.Set(i, s.infos[i].Clamp(s.infos[i].FromPercentage(p)))
}

// ResetParameter restores the default of parameter i.
func (s *Set) ResetParameter(i int) {
	s.values[i].Store(math.Float64bits(s.infos[i].Default))
}

// Reset restores all defaults.
func (s *Set) Reset() {
	for i := range s.infos {
		s.ResetParameter(i)
	}
}

// Index returns the index of the parameter called name, or -1. Matching
// ignores case, spaces, dashes and underscores.
func (s *Set) Index(name string) int {
	key := normalizeName(name)
	for i, in := range s.infos {
		if normalizeName(in.Name) == key {
			return i
		}
	}

	return -1
}

// Snapshot copies all current values.
func (s *Set) Snapshot() Values {
	out := make(Values, len(s.values))
	s.SnapshotInto(out)

	return out
}

// SnapshotInto copies the current values into dst without allocating.
func (s *Set) SnapshotInto(dst Values) {
	for i := range min(len(dst), len(s.values)) {
		dst[i] = s.Get(i)
	}
}

// Assign stores all values of v (clamped). Extra or missing trailing values
// are ignored.
func (s *Set) Assign(v Values) {
	for i := range min(len(v), len(s.infos)) {
		s.values[i].Store(math.Float64bits(s.infos[i].Clamp(v[i])))
	}
}

// Clone returns an independent Set with the same descriptions and values.
func (s *Set) Clone() *Set {
	c := &Set{
		infos:  s.infos,
		values: make([]atomic.Uint64, len(s.infos)),
	}
	for i := range s.values {
		c.values[i].Store(s.values[i].Load())
	}

	return c
}

func normalizeName(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for _, r := range strings.ToLower(name) {
		switch r {
		case ' ', '-', '_', '.':
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

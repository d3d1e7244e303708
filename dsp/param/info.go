package param

import (
	"errors"
	"fmt"
	"math"
)

// Kind identifies the value type of a parameter.
type Kind int

const (
	// KindBool is an on/off switch stored as 0 or 1.
	KindBool Kind = iota
	// KindLinearUnsignedInt is a non-negative integer on a linear scale.
	KindLinearUnsignedInt
	// KindSymmetricFloat is a float symmetric around zero (min = -max).
	KindSymmetricFloat
	// KindLinearFloat is a float on a linear scale.
	KindLinearFloat
	// KindEnumerated selects one of a list of labels by index.
	KindEnumerated
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindLinearUnsignedInt:
		return "unsigned"
	case KindSymmetricFloat:
		return "symmetric"
	case KindLinearFloat:
		return "float"
	case KindEnumerated:
		return "enum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Integral reports whether values of this kind are whole numbers.
func (k Kind) Integral() bool {
	return k == KindBool || k == KindLinearUnsignedInt || k == KindEnumerated
}

// Info describes a single parameter.
type Info struct {
	Name    string
	Unit    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
	// Labels names the values of an enumerated parameter.
	Labels []string
}

var errInvalidInfo = errors.New("invalid parameter info")

// Bool describes an on/off parameter.
func Bool(name string, def bool) Info {
	d := 0.0
	if def {
		d = 1
	}

	return Info{Name: name, Kind: KindBool, Min: 0, Max: 1, Default: d}
}

// UnsignedInt describes a linear unsigned integer parameter.
func UnsignedInt(name, unit string, minimum, maximum, def uint32) Info {
	return Info{
		Name:    name,
		Unit:    unit,
		Kind:    KindLinearUnsignedInt,
		Min:     float64(minimum),
		Max:     float64(maximum),
		Default: float64(def),
	}
}

// Symmetric describes a float parameter in [-maxOffset, maxOffset] with a
// default of zero.
func Symmetric(name, unit string, maxOffset float64) Info {
	return Info{
		Name: name,
		Unit: unit,
		Kind: KindSymmetricFloat,
		Min:  -maxOffset,
		Max:  maxOffset,
	}
}

// Linear describes a float parameter on a linear scale.
func Linear(name, unit string, minimum, maximum, def float64) Info {
	return Info{
		Name:    name,
		Unit:    unit,
		Kind:    KindLinearFloat,
		Min:     minimum,
		Max:     maximum,
		Default: def,
	}
}

// Enumerated describes a parameter selecting one of labels. The first label
// is the default.
func Enumerated(name string, labels ...string) Info {
	return Info{
		Name:    name,
		Kind:    KindEnumerated,
		Min:     0,
		Max:     float64(max(len(labels)-1, 0)),
		Default: 0,
		Labels:  append([]string(nil), labels...),
	}
}

// Clamp limits v to the parameter range and rounds integral kinds.
func (in Info) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return in.Default
	}

	if in.Kind.Integral() {
		v = math.Round(v)
	}

	return min(max(v, in.Min), in.Max)
}

// Contains reports whether v lies within the parameter range.
func (in Info) Contains(v float64) bool {
	return v >= in.Min && v <= in.Max
}

// FromPercentage maps p in [0, 100] onto the parameter range.
func (in Info) FromPercentage(p float64) float64 {
	return in.Min + (in.Max-in.Min)*p/100
}

// ToPercentage maps v onto [0, 100] relative to the parameter range.
func (in Info) ToPercentage(v float64) float64 {
	if in.Max == in.Min {
		return 0
	}

	return (v - in.Min) / (in.Max - in.Min) * 100
}

// Label returns the label of an enumerated value, or "" for other kinds.
func (in Info) Label(v float64) string {
	if in.Kind != KindEnumerated {
		return ""
	}

	i := int(in.Clamp(v))
	if i < 0 || i >= len(in.Labels) {
		return ""
	}

	return in.Labels[i]
}

func (in Info) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: empty name", errInvalidInfo)
	}

	if math.IsNaN(in.Min) || math.IsNaN(in.Max) || in.Min > in.Max {
		return fmt.Errorf("%w: %s: range [%g, %g]", errInvalidInfo, in.Name, in.Min, in.Max)
	}

	if !in.Contains(in.Default) {
		return fmt.Errorf("%w: %s: default %g outside [%g, %g]", errInvalidInfo, in.Name, in.Default, in.Min, in.Max)
	}

	switch in.Kind {
	case KindBool:
		if in.Min != 0 || in.Max != 1 {
			return fmt.Errorf("%w: %s: bool range must be [0, 1]", errInvalidInfo, in.Name)
		}
	case KindLinearUnsignedInt:
		if in.Min < 0 {
			return fmt.Errorf("%w: %s: unsigned minimum %g < 0", errInvalidInfo, in.Name, in.Min)
		}
	case KindSymmetricFloat:
		if in.Min != -in.Max {
			return fmt.Errorf("%w: %s: symmetric range [%g, %g]", errInvalidInfo, in.Name, in.Min, in.Max)
		}
	case KindEnumerated:
		if len(in.Labels) == 0 {
			return fmt.Errorf("%w: %s: enumerated parameter without labels", errInvalidInfo, in.Name)
		}
	case KindLinearFloat:
	default:
		return fmt.Errorf("%w: %s: unknown kind %d", errInvalidInfo, in.Name, in.Kind)
	}

	return nil
}

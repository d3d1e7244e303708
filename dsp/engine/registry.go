package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Factory builds one Effect instance.
type Factory func() (Effect, error)

// Registry maps effect type names to their factories. Names are matched
// case-insensitively. A Registry is not safe for concurrent registration;
// populate it before use.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateEffect = errors.New("duplicate effect type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a factory for the given effect type.
func (r *Registry) Register(effectType string, factory Factory) error {
	key := registryKey(effectType)
	if key == "" {
		return errors.New("empty effect type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("%w: %s", errDuplicateEffect, effectType)
	}

	r.factories[key] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(effectType string, factory Factory) {
	err := r.Register(effectType, factory)
	if err != nil {
		panic("engine registry: " + err.Error())
	}
}

// Lookup returns the factory for the given effect type, or nil.
func (r *Registry) Lookup(effectType string) Factory {
	return r.factories[registryKey(effectType)]
}

// Names returns the registered effect types in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Create builds a module of the given effect type, owned by the caller.
func (r *Registry) Create(effectType string) (*Module, error) {
	factory := r.Lookup(effectType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, effectType)
	}

	e, err := factory()
	if err != nil {
		return nil, fmt.Errorf("engine: create %s: %w", effectType, err)
	}

	return newModule(e, registryKey(effectType))
}

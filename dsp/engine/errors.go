package engine

import "errors"

var (
	// ErrInvalidParameter reports an out-of-range engine or module setting.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotConfigured reports use of a processor before its audio format
	// and WOLA parameters are set.
	ErrNotConfigured = errors.New("processor not configured")
	// ErrNotMember reports an anchor module that is not in the chain.
	ErrNotMember = errors.New("module is not a member of this chain")
	// ErrOtherChain reports a module that already belongs to another chain.
	ErrOtherChain = errors.New("module belongs to another chain")
	// ErrDestroyed reports use of a module after its last owner released it.
	ErrDestroyed = errors.New("module destroyed")
	// ErrUnknownEffect reports an effect type name missing from the registry.
	ErrUnknownEffect = errors.New("unknown effect type")
	// ErrNoRegistry reports a preset load on a processor without registry.
	ErrNoRegistry = errors.New("no effect registry")
	// ErrInvalidPreset reports a malformed or inconsistent preset.
	ErrInvalidPreset = errors.New("invalid preset")
)

package router

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateID is returned when two scenes share an id.
	ErrDuplicateID = errors.New("duplicate scene id")
	// ErrDuplicatePrefix is returned when two scenes share a callback prefix.
	ErrDuplicatePrefix = errors.New("duplicate scene prefix")
	// ErrEmptyID is returned for a scene without an id.
	ErrEmptyID = errors.New("empty scene id")
	// ErrEmptyPrefix is returned for a scene without a callback prefix.
	ErrEmptyPrefix = errors.New("empty scene prefix")
	// ErrReservedPrefix is returned for a prefix inside the "ui" namespace.
	ErrReservedPrefix = errors.New("reserved scene prefix")
	// ErrInvalidPrefix is returned for a prefix that cannot start a callback
	// payload: it contains ':' or non-ASCII bytes, or is too long.
	ErrInvalidPrefix = errors.New("invalid scene prefix")
)

// ConfigError reports a registration problem found by Builder.Build.
// Kind is one of the sentinel errors above and can be matched with errors.Is.
type ConfigError struct {
	Kind  error
	Value string
	// Index is the registration position of the offending scene.
	Index int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("router: scene #%d: %v %q", e.Index, e.Kind, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Kind
}

package convert

import "errors"

// Adaptation errors.
var (
	ErrAdaptation         = errors.New("adaptation failed")
	ErrMalformedConstant  = errors.New("malformed constant")
	ErrUnresolvedAxes     = errors.New("axes input is neither a constant nor an initializer")
	ErrAdapterExists      = errors.New("adapter already registered")
	ErrNonAdjacentVersion = errors.New("adapter versions are not adjacent")
	ErrFrozen             = errors.New("adapter registry is frozen")
)

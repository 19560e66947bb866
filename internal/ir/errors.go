package ir

import "errors"

// Graph errors.
var (
	ErrStillUsed      = errors.New("value is still used")
	ErrNodeDestroyed  = errors.New("node was destroyed")
	ErrForeignNode    = errors.New("node belongs to another graph")
	ErrInputIndex     = errors.New("input index out of range")
	ErrDuplicateValue = errors.New("value produced more than once")
)

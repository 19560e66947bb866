package schema

import "errors"

// Registry errors.
var (
	ErrSchemaNotFound = errors.New("operator schema not found")
	ErrFrozen         = errors.New("schema registry is frozen")
	ErrInvalidSchema  = errors.New("invalid operator schema")
)

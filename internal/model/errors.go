package model

import "errors"

// Loading errors.
var (
	ErrNoGraph           = errors.New("model has no graph")
	ErrRecursiveFunction = errors.New("function calls nest too deeply")
)

package inline

import "errors"

// Expansion errors.
var (
	ErrArity           = errors.New("call has more arguments than the function declares")
	ErrUnresolvedOpset = errors.New("no opset import matches the call's domain")
)

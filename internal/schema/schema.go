package schema

import (
	"fmt"

	"github.com/bentheiii/onnx/internal/onnx"
)

// Unbounded marks a variadic input or output list.
const Unbounded = -1

// Schema describes one version of an operator.
type Schema struct {
	Domain       string // Operator domain (empty for default)
	OpType       string // Operator type (e.g., "Squeeze")
	SinceVersion int64  // Opset version this schema was introduced in
	MinInputs    int    // Minimum number of inputs
	MaxInputs    int    // Maximum number of inputs, or Unbounded
	MinOutputs   int    // Minimum number of outputs
	MaxOutputs   int    // Maximum number of outputs, or Unbounded

	// Attributes holds the default value of every optional attribute.
	// Required attributes and optional attributes without a default are
	// not listed.
	Attributes []onnx.AttributeProto
}

// Default returns the default value of the named attribute.
func (s *Schema) Default(name string) (*onnx.AttributeProto, bool) {
	for i := range s.Attributes {
		if s.Attributes[i].Name == name {
			return &s.Attributes[i], true
		}
	}
	return nil, false
}

// AcceptsInputs reports whether n inputs satisfy the formal input arity.
func (s *Schema) AcceptsInputs(n int) bool {
	return n >= s.MinInputs && (s.MaxInputs == Unbounded || n <= s.MaxInputs)
}

// AcceptsOutputs reports whether n outputs satisfy the formal output arity.
func (s *Schema) AcceptsOutputs(n int) bool {
	return n >= s.MinOutputs && (s.MaxOutputs == Unbounded || n <= s.MaxOutputs)
}

// String implements fmt.Stringer.
func (s *Schema) String() string {
	domain := s.Domain
	if domain == "" {
		domain = onnx.DefaultDomain
	}
	return fmt.Sprintf("%s::%s-%d", domain, s.OpType, s.SinceVersion)
}

func (s *Schema) validate() error {
	switch {
	case s.OpType == "":
		return fmt.Errorf("%w: empty op type", ErrInvalidSchema)
	case s.SinceVersion < 1:
		return fmt.Errorf("%w: %s: since version must be positive", ErrInvalidSchema, s)
	case s.MinInputs < 0 || (s.MaxInputs != Unbounded && s.MaxInputs < s.MinInputs):
		return fmt.Errorf("%w: %s: bad input arity [%d, %d]", ErrInvalidSchema, s, s.MinInputs, s.MaxInputs)
	case s.MinOutputs < 0 || (s.MaxOutputs != Unbounded && s.MaxOutputs < s.MinOutputs):
		return fmt.Errorf("%w: %s: bad output arity [%d, %d]", ErrInvalidSchema, s, s.MinOutputs, s.MaxOutputs)
	}
	seen := make(map[string]bool, len(s.Attributes))
	for i := range s.Attributes {
		attr := &s.Attributes[i]
		if attr.Name == "" || attr.IsDeferred() {
			return fmt.Errorf("%w: %s: attribute default must be named and concrete", ErrInvalidSchema, s)
		}
		if seen[attr.Name] {
			return fmt.Errorf("%w: %s: duplicate attribute %q", ErrInvalidSchema, s, attr.Name)
		}
		seen[attr.Name] = true
	}
	return nil
}

// FromFunction builds a schema for a model-local function. Every formal
// input and output is optional; defaults come from the function's
// attribute protos.
func FromFunction(fn *onnx.FunctionProto, since int64) *Schema {
	s := &Schema{
		Domain:       fn.Domain,
		OpType:       fn.Name,
		SinceVersion: since,
		MaxInputs:    len(fn.Inputs),
		MaxOutputs:   len(fn.Outputs),
	}
	for i := range fn.AttributeProtos {
		if !fn.AttributeProtos[i].IsDeferred() {
			s.Attributes = append(s.Attributes, fn.AttributeProtos[i].Clone())
		}
	}
	return s
}

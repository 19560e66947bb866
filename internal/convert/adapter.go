package convert

import (
	"fmt"

	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

// OpSetID identifies a version of an operator set.
type OpSetID struct {
	Domain  string
	Version int64
}

// String implements fmt.Stringer.
func (o OpSetID) String() string {
	domain := o.Domain
	if domain == "" {
		domain = onnx.DefaultDomain
	}
	return fmt.Sprintf("%s-%d", domain, o.Version)
}

// Adapter rewrites one node from its Initial opset version to the adjacent
// Target version.
//
// Adapt is only called on nodes whose current version equals Initial. It
// returns the node that now represents the operation at Target (usually n
// itself). On error the graph must be left exactly as it was. Adapters hold
// no per-call state and may be shared.
type Adapter interface {
	Name() string
	Initial() OpSetID
	Target() OpSetID
	Adapt(g *ir.Graph, n *ir.Node) (*ir.Node, error)
}

// base carries the identity shared by all adapters.
type base struct {
	name    string
	initial OpSetID
	target  OpSetID
}

func (b base) Name() string     { return b.name }
func (b base) Initial() OpSetID { return b.initial }
func (b base) Target() OpSetID  { return b.target }

// Compatible is an adapter for operators whose semantics did not change
// between the two versions.
type Compatible struct {
	base
}

// NewCompatible creates a no-op adapter.
func NewCompatible(opName string, initial, target OpSetID) *Compatible {
	return &Compatible{base{name: opName, initial: initial, target: target}}
}

// Adapt returns n unchanged.
func (c *Compatible) Adapt(_ *ir.Graph, n *ir.Node) (*ir.Node, error) {
	return n, nil
}

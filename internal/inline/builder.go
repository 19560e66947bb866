package inline

import (
	"github.com/bentheiii/onnx/internal/onnx"
)

// FunctionBuilder accumulates a function body. Methods return the builder
// so calls can be chained.
//
// Example:
//
//	fn := inline.NewFunctionBuilder(nil).
//	    AddOpset("", 18).
//	    AddInlinedCall([]string{"h"}, encoder, []string{"x"}, "enc_").
//	    AddInlinedCall([]string{"y"}, decoder, []string{"h"}, "dec_").
//	    Function()
type FunctionBuilder struct {
	fn *onnx.FunctionProto
}

// NewFunctionBuilder returns a builder appending to fn, or to a new empty
// function when fn is nil.
func NewFunctionBuilder(fn *onnx.FunctionProto) *FunctionBuilder {
	if fn == nil {
		fn = &onnx.FunctionProto{}
	}
	return &FunctionBuilder{fn: fn}
}

// Function returns the function being built.
func (b *FunctionBuilder) Function() *onnx.FunctionProto {
	return b.fn
}

// AddOpset adds an opset import unless the domain is already imported.
func (b *FunctionBuilder) AddOpset(domain string, version int64) *FunctionBuilder {
	if _, ok := onnx.OpsetVersion(b.fn.OpsetImport, domain); !ok {
		b.fn.OpsetImport = append(b.fn.OpsetImport, onnx.OperatorSetID{Domain: domain, Version: version})
	}
	return b
}

// Add appends a node to the body.
func (b *FunctionBuilder) Add(node onnx.NodeProto) *FunctionBuilder {
	b.fn.AddNode(node)
	return b
}

// Const appends a Constant node producing t under the given name.
func (b *FunctionBuilder) Const(name string, t onnx.TensorProto) *FunctionBuilder {
	value := t.Clone()
	value.Name = name
	return b.Add(onnx.NodeProto{
		OpType:     "Constant",
		Outputs:    []string{name},
		Attributes: []onnx.AttributeProto{{Name: "value", Type: onnx.AttributeProtoTensor, T: value}},
	})
}

// AddInlinedCall appends a copy of g wired to the given actual outputs and
// inputs. Graph inputs and outputs are bound positionally; formals beyond
// the supplied actuals, and outputs bound to "", stay internal. Every other
// name is prefixed and made unique in the function body. Initializers of g
// become Constant nodes.
func (b *FunctionBuilder) AddInlinedCall(outputs []string, g *onnx.GraphProto, inputs []string, prefix string) *FunctionBuilder {
	r := NewRenamer(prefix, b.scopeNames()...)
	for i := range b.fn.Nodes {
		r.ReserveNodeNames(b.fn.Nodes[i].Name)
	}

	for i := range g.Inputs {
		if i >= len(inputs) {
			break
		}
		r.BindName(g.Inputs[i].Name, inputs[i])
	}
	for i := range g.Outputs {
		if i >= len(outputs) {
			break
		}
		if outputs[i] != "" {
			r.BindName(g.Outputs[i].Name, outputs[i])
		}
	}

	for i := range g.Initializers {
		init := &g.Initializers[i]
		b.Const(r.BindToUniqueName(init.Name), *init)
	}

	for i := range g.Nodes {
		node := g.Nodes[i].Clone()
		r.RenameNode(&node)
		b.Add(node)
	}
	return b
}

// scopeNames returns every value name already visible in the body.
func (b *FunctionBuilder) scopeNames() []string {
	names := make([]string, 0, len(b.fn.Inputs)+len(b.fn.Outputs)+2*len(b.fn.Nodes))
	names = append(names, b.fn.Inputs...)
	names = append(names, b.fn.Outputs...)
	for i := range b.fn.Nodes {
		names = append(names, b.fn.Nodes[i].Inputs...)
		names = append(names, b.fn.Nodes[i].Outputs...)
	}
	return names
}

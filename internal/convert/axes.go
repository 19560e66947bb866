package convert

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/bentheiii/onnx/internal/ir"
	"github.com/bentheiii/onnx/internal/onnx"
)

// AxesInputToAttribute moves a statically known axes input (input 1) into
// an "axes" attribute. It is used for downgrades across the opsets that
// turned the attribute into an input: Squeeze, Unsqueeze and ReduceSum at
// 13, the remaining reductions at 18.
//
// The axes must come from a Constant node or an initializer. The producer
// is deleted once the node no longer reads it and nothing else does.
type AxesInputToAttribute struct {
	base
}

// NewAxesInputToAttribute creates the adapter for opName.
func NewAxesInputToAttribute(opName string, initial, target OpSetID) *AxesInputToAttribute {
	return &AxesInputToAttribute{base{name: opName, initial: initial, target: target}}
}

// Adapt implements Adapter.
func (a *AxesInputToAttribute) Adapt(g *ir.Graph, n *ir.Node) (*ir.Node, error) {
	axesName := n.Input(1)
	if axesName == "" {
		// Axes omitted: the default behavior is the same without the attribute.
		if n.NumInputs() > 1 {
			if err := g.RemoveInput(n, 1); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrAdaptation, err)
			}
		}
		return n, nil
	}

	// Resolve everything before touching the graph.
	axes, constant, err := resolveAxes(g, axesName)
	if err != nil {
		return nil, err
	}

	if err := g.RemoveInput(n, 1); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdaptation, err)
	}
	n.SetAttribute(onnx.IntsAttr("axes", axes))

	if g.Uses(axesName) == 0 {
		if constant != nil {
			err = g.Destroy(constant)
		} else {
			err = g.EraseInitializer(axesName)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: removing axes source %q: %w", ErrAdaptation, axesName, err)
		}
	}

	if !n.HasAttribute("axes") {
		return nil, fmt.Errorf("%w: node has no axes attribute after adaptation", ErrAdaptation)
	}
	return n, nil
}

// resolveAxes returns the axes held by value and, when they come from a
// Constant node, that node.
func resolveAxes(g *ir.Graph, value string) ([]int64, *ir.Node, error) {
	if producer, ok := g.Producer(value); ok && isConstant(producer) {
		axes, err := constantInt64s(producer)
		if err != nil {
			return nil, nil, err
		}
		return axes, producer, nil
	}

	if init, ok := g.Initializer(value); ok {
		if len(init.Int64Data) > 0 || len(init.RawData) == 0 {
			return slices.Clone(init.Int64Data), nil, nil
		}
		axes, err := decodeInt64s(init.RawData)
		if err != nil {
			return nil, nil, fmt.Errorf("initializer %q: %w", value, err)
		}
		return axes, nil, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnresolvedAxes, value)
}

func isConstant(n *ir.Node) bool {
	return n.OpType == "Constant" && onnx.IsDefaultDomain(n.Domain)
}

// constantInt64s reads the int64 values emitted by a Constant node.
func constantInt64s(n *ir.Node) ([]int64, error) {
	if attr, ok := n.Attribute("value_ints"); ok {
		return slices.Clone(attr.Ints), nil
	}
	attr, ok := n.Attribute("value")
	if !ok || attr.T == nil {
		return nil, fmt.Errorf("%w: Constant %q has no tensor value", ErrMalformedConstant, n.Name)
	}
	if len(attr.T.Int64Data) > 0 {
		return slices.Clone(attr.T.Int64Data), nil
	}
	values, err := decodeInt64s(attr.T.RawData)
	if err != nil {
		return nil, fmt.Errorf("constant %q: %w", n.Name, err)
	}
	return values, nil
}

// decodeInt64s reinterprets a raw tensor buffer as int64 values. ONNX
// stores raw_data little-endian.
func decodeInt64s(raw []byte) ([]int64, error) {
	if len(raw) == 0 || len(raw)%8 != 0 {
		return nil, fmt.Errorf("%w: raw data must be a non-empty multiple of 8 bytes, got %d",
			ErrMalformedConstant, len(raw))
	}
	values := make([]int64, len(raw)/8)
	for i := range values {
		values[i] = int64(binary.LittleEndian.Uint64(raw[i*8:])) //nolint:gosec // G115: bit reinterpretation.
	}
	return values, nil
}

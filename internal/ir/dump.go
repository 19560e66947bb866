package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/bentheiii/onnx/internal/onnx"
)

// Dump writes a line-oriented text rendering of the graph. The output is
// deterministic and is used for snapshot tests and the CLI.
//
//	graph main
//	opset ai.onnx 13
//	input x
//	initializer w int64[2]
//	node n1 = Squeeze(x) -> (y) {axes=[0 1]}
//	output y
func (g *Graph) Dump(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", g.Name)
	for _, opset := range g.opsets {
		domain := opset.Domain
		if domain == "" {
			domain = onnx.DefaultDomain
		}
		fmt.Fprintf(&b, "opset %s %d\n", domain, opset.Version)
	}
	for _, name := range g.InputNames() {
		fmt.Fprintf(&b, "input %s\n", name)
	}
	for i := range g.initializers {
		t := &g.initializers[i]
		fmt.Fprintf(&b, "initializer %s %s\n", t.Name, formatTensorType(t))
	}
	for _, n := range g.Nodes() {
		b.WriteString(FormatNode(n.Proto()))
		b.WriteByte('\n')
	}
	for _, name := range g.OutputNames() {
		fmt.Fprintf(&b, "output %s\n", name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the graph as Dump does.
func (g *Graph) String() string {
	var b strings.Builder
	_ = g.Dump(&b)
	return b.String()
}

// FormatNode renders a node on one line.
func FormatNode(n onnx.NodeProto) string {
	var b strings.Builder
	name := n.Name
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(&b, "node %s = ", name)
	if !onnx.IsDefaultDomain(n.Domain) {
		fmt.Fprintf(&b, "%s::", n.Domain)
	}
	fmt.Fprintf(&b, "%s(%s) -> (%s)", n.OpType, strings.Join(n.Inputs, ", "), strings.Join(n.Outputs, ", "))
	if len(n.Attributes) > 0 {
		attrs := make([]string, len(n.Attributes))
		for i := range n.Attributes {
			attrs[i] = formatAttribute(&n.Attributes[i])
		}
		fmt.Fprintf(&b, " {%s}", strings.Join(attrs, ", "))
	}
	return b.String()
}

func formatAttribute(a *onnx.AttributeProto) string {
	if a.IsDeferred() {
		return fmt.Sprintf("%s=@%s", a.Name, a.RefAttrName)
	}
	var v string
	switch a.Type {
	case onnx.AttributeProtoFloat:
		v = fmt.Sprintf("%g", a.F)
	case onnx.AttributeProtoInt:
		v = fmt.Sprintf("%d", a.I)
	case onnx.AttributeProtoString:
		v = fmt.Sprintf("%q", a.S)
	case onnx.AttributeProtoTensor:
		v = "tensor"
		if a.T != nil {
			v = formatTensorType(a.T)
		}
	case onnx.AttributeProtoGraph:
		v = "graph"
		if a.G != nil {
			v = fmt.Sprintf("graph(%s, %d nodes)", a.G.Name, len(a.G.Nodes))
		}
	case onnx.AttributeProtoFloats:
		v = fmt.Sprintf("%v", a.Floats)
	case onnx.AttributeProtoInts:
		v = fmt.Sprintf("%v", a.Ints)
	case onnx.AttributeProtoStrings:
		strs := make([]string, len(a.Strings))
		for i, s := range a.Strings {
			strs[i] = fmt.Sprintf("%q", s)
		}
		v = "[" + strings.Join(strs, " ") + "]"
	case onnx.AttributeProtoTensors:
		v = fmt.Sprintf("tensors(%d)", len(a.Tensors))
	case onnx.AttributeProtoGraphs:
		v = fmt.Sprintf("graphs(%d)", len(a.Graphs))
	default:
		v = "?"
	}
	return a.Name + "=" + v
}

var dataTypeNames = map[int32]string{
	onnx.TensorProtoFloat:      "float32",
	onnx.TensorProtoUint8:      "uint8",
	onnx.TensorProtoInt8:       "int8",
	onnx.TensorProtoUint16:     "uint16",
	onnx.TensorProtoInt16:      "int16",
	onnx.TensorProtoInt32:      "int32",
	onnx.TensorProtoInt64:      "int64",
	onnx.TensorProtoString:     "string",
	onnx.TensorProtoBool:       "bool",
	onnx.TensorProtoFloat16:    "float16",
	onnx.TensorProtoDouble:     "float64",
	onnx.TensorProtoUint32:     "uint32",
	onnx.TensorProtoUint64:     "uint64",
	onnx.TensorProtoComplex64:  "complex64",
	onnx.TensorProtoComplex128: "complex128",
	onnx.TensorProtoBfloat16:   "bfloat16",
}

func formatTensorType(t *onnx.TensorProto) string {
	name, ok := dataTypeNames[t.DataType]
	if !ok {
		name = fmt.Sprintf("dtype%d", t.DataType)
	}
	dims := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = fmt.Sprintf("%d", d)
	}
	return name + "[" + strings.Join(dims, ",") + "]"
}

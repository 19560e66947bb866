package onnx

import "slices"

// IsDeferred reports whether the attribute is a reference to a formal
// attribute of the enclosing function rather than a concrete value.
func (a *AttributeProto) IsDeferred() bool {
	return a.RefAttrName != ""
}

// IsDefaultDomain reports whether domain names the standard operator set.
func IsDefaultDomain(domain string) bool {
	return domain == "" || domain == DefaultDomain
}

// Attribute returns the attribute with the given name.
func (n *NodeProto) Attribute(name string) (*AttributeProto, bool) {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i], true
		}
	}
	return nil, false
}

// SetAttribute replaces the attribute with the same name or appends it.
func (n *NodeProto) SetAttribute(attr AttributeProto) {
	for i := range n.Attributes {
		if n.Attributes[i].Name == attr.Name {
			n.Attributes[i] = attr
			return
		}
	}
	n.Attributes = append(n.Attributes, attr)
}

// AddNode appends a node to the graph.
func (g *GraphProto) AddNode(node NodeProto) {
	g.Nodes = append(g.Nodes, node)
}

// AddNode appends a node to the function body.
func (f *FunctionProto) AddNode(node NodeProto) {
	f.Nodes = append(f.Nodes, node)
}

// InputNames returns the names of the graph inputs in order.
func (g *GraphProto) InputNames() []string {
	return valueInfoNames(g.Inputs)
}

// OutputNames returns the names of the graph outputs in order.
func (g *GraphProto) OutputNames() []string {
	return valueInfoNames(g.Outputs)
}

func valueInfoNames(infos []ValueInfoProto) []string {
	names := make([]string, len(infos))
	for i := range infos {
		names[i] = infos[i].Name
	}
	return names
}

// OpsetVersion returns the version of the first import matching domain.
func OpsetVersion(imports []OperatorSetID, domain string) (int64, bool) {
	for _, opset := range imports {
		if opset.Domain == domain {
			return opset.Version, true
		}
	}
	return 0, false
}

// IntsAttr builds an INTS attribute.
func IntsAttr(name string, values []int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInts, Ints: slices.Clone(values)}
}

// IntAttr builds an INT attribute.
func IntAttr(name string, value int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInt, I: value}
}

// FloatAttr builds a FLOAT attribute.
func FloatAttr(name string, value float32) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoFloat, F: value}
}

// StringAttr builds a STRING attribute.
func StringAttr(name, value string) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoString, S: []byte(value)}
}

// TensorAttr builds a TENSOR attribute holding a copy of t.
func TensorAttr(name string, t *TensorProto) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoTensor, T: t.Clone()}
}

// RefAttr builds a deferred attribute referring to a formal attribute of the
// enclosing function.
func RefAttr(name, ref string, attrType int32) AttributeProto {
	return AttributeProto{Name: name, RefAttrName: ref, Type: attrType}
}

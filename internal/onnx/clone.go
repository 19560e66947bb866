package onnx

import "slices"

// Deep copies. Expansion and inlining copy nodes out of function bodies and
// embedded graphs, so nothing produced may alias the source.

// Clone returns a deep copy of the node.
func (n *NodeProto) Clone() NodeProto {
	c := *n
	c.Inputs = slices.Clone(n.Inputs)
	c.Outputs = slices.Clone(n.Outputs)
	if n.Attributes != nil {
		c.Attributes = make([]AttributeProto, len(n.Attributes))
		for i := range n.Attributes {
			c.Attributes[i] = n.Attributes[i].Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the attribute.
func (a *AttributeProto) Clone() AttributeProto {
	c := *a
	c.S = slices.Clone(a.S)
	c.Floats = slices.Clone(a.Floats)
	c.Ints = slices.Clone(a.Ints)
	c.Strings = cloneBytesList(a.Strings)
	if a.T != nil {
		c.T = a.T.Clone()
	}
	if a.G != nil {
		c.G = a.G.Clone()
	}
	if a.Tensors != nil {
		c.Tensors = make([]TensorProto, len(a.Tensors))
		for i := range a.Tensors {
			c.Tensors[i] = *a.Tensors[i].Clone()
		}
	}
	if a.Graphs != nil {
		c.Graphs = make([]GraphProto, len(a.Graphs))
		for i := range a.Graphs {
			c.Graphs[i] = *a.Graphs[i].Clone()
		}
	}
	return c
}

// Clone returns a deep copy of the tensor.
func (t *TensorProto) Clone() *TensorProto {
	c := *t
	c.Dims = slices.Clone(t.Dims)
	c.RawData = slices.Clone(t.RawData)
	c.FloatData = slices.Clone(t.FloatData)
	c.Int32Data = slices.Clone(t.Int32Data)
	c.Int64Data = slices.Clone(t.Int64Data)
	c.StringData = cloneBytesList(t.StringData)
	c.DoubleData = slices.Clone(t.DoubleData)
	c.Uint64Data = slices.Clone(t.Uint64Data)
	return &c
}

// Clone returns a deep copy of the graph.
func (g *GraphProto) Clone() *GraphProto {
	c := *g
	if g.Nodes != nil {
		c.Nodes = make([]NodeProto, len(g.Nodes))
		for i := range g.Nodes {
			c.Nodes[i] = g.Nodes[i].Clone()
		}
	}
	if g.Initializers != nil {
		c.Initializers = make([]TensorProto, len(g.Initializers))
		for i := range g.Initializers {
			c.Initializers[i] = *g.Initializers[i].Clone()
		}
	}
	// Value infos are read-only descriptions; a shallow slice copy suffices.
	c.Inputs = slices.Clone(g.Inputs)
	c.Outputs = slices.Clone(g.Outputs)
	c.ValueInfo = slices.Clone(g.ValueInfo)
	return &c
}

func cloneBytesList(src [][]byte) [][]byte {
	if src == nil {
		return nil
	}
	dst := make([][]byte, len(src))
	for i, b := range src {
		dst[i] = slices.Clone(b)
	}
	return dst
}

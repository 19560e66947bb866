package ir

import (
	"slices"

	"github.com/bentheiii/onnx/internal/onnx"
)

// NodeID addresses a node in its graph's arena.
type NodeID int

// Node is an operator node owned by a Graph.
//
// Inputs and attributes are changed through methods so that the owning
// graph's use counts stay exact. Outputs are fixed at insertion.
type Node struct {
	id    NodeID
	graph *Graph

	Name      string
	OpType    string
	Domain    string
	DocString string

	inputs     []string
	outputs    []string
	attributes []onnx.AttributeProto
}

// ID returns the node's arena index.
func (n *Node) ID() NodeID {
	return n.id
}

// Alive reports whether the node is still part of its graph.
func (n *Node) Alive() bool {
	return n.graph != nil
}

// Inputs returns a copy of the input names.
func (n *Node) Inputs() []string {
	return slices.Clone(n.inputs)
}

// NumInputs returns the number of input slots, including empty ones.
func (n *Node) NumInputs() int {
	return len(n.inputs)
}

// Input returns the i-th input name, or "" when i is out of range.
func (n *Node) Input(i int) string {
	if i < 0 || i >= len(n.inputs) {
		return ""
	}
	return n.inputs[i]
}

// Outputs returns a copy of the output names.
func (n *Node) Outputs() []string {
	return slices.Clone(n.outputs)
}

// Attributes returns a copy of the attribute list.
func (n *Node) Attributes() []onnx.AttributeProto {
	return slices.Clone(n.attributes)
}

// Attribute returns the named attribute.
func (n *Node) Attribute(name string) (*onnx.AttributeProto, bool) {
	for i := range n.attributes {
		if n.attributes[i].Name == name {
			return &n.attributes[i], true
		}
	}
	return nil, false
}

// HasAttribute reports whether the node carries the named attribute.
func (n *Node) HasAttribute(name string) bool {
	_, ok := n.Attribute(name)
	return ok
}

// SetAttribute replaces the attribute with the same name or appends it.
func (n *Node) SetAttribute(attr onnx.AttributeProto) {
	for i := range n.attributes {
		if n.attributes[i].Name == attr.Name {
			n.release(&n.attributes[i])
			n.attributes[i] = attr
			n.retain(&n.attributes[i])
			return
		}
	}
	n.attributes = append(n.attributes, attr)
	n.retain(&n.attributes[len(n.attributes)-1])
}

// RemoveAttribute deletes the named attribute and reports whether it existed.
func (n *Node) RemoveAttribute(name string) bool {
	for i := range n.attributes {
		if n.attributes[i].Name == name {
			n.release(&n.attributes[i])
			n.attributes = slices.Delete(n.attributes, i, i+1)
			return true
		}
	}
	return false
}

// Proto returns a detached copy of the node as a NodeProto.
func (n *Node) Proto() onnx.NodeProto {
	p := onnx.NodeProto{
		Name:       n.Name,
		OpType:     n.OpType,
		Domain:     n.Domain,
		DocString:  n.DocString,
		Inputs:     slices.Clone(n.inputs),
		Outputs:    slices.Clone(n.outputs),
		Attributes: slices.Clone(n.attributes),
	}
	return p.Clone()
}

func (n *Node) retain(attr *onnx.AttributeProto) {
	if n.graph == nil {
		return
	}
	for _, v := range captures(attr) {
		n.graph.uses[v]++
	}
}

func (n *Node) release(attr *onnx.AttributeProto) {
	if n.graph == nil {
		return
	}
	for _, v := range captures(attr) {
		n.graph.unuse(v)
	}
}

// captures returns the outer-scope values referenced by a graph-valued
// attribute, each once.
func captures(attr *onnx.AttributeProto) []string {
	if attr.G == nil && len(attr.Graphs) == 0 {
		return nil
	}
	var (
		free []string
		seen = make(map[string]bool)
	)
	add := func(names []string) {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				free = append(free, name)
			}
		}
	}
	if attr.G != nil {
		add(freeValues(attr.G))
	}
	for i := range attr.Graphs {
		add(freeValues(&attr.Graphs[i]))
	}
	return free
}

// freeValues returns the names a sub-graph reads without defining them, in
// first-reference order.
func freeValues(g *onnx.GraphProto) []string {
	defined := make(map[string]bool)
	for i := range g.Inputs {
		defined[g.Inputs[i].Name] = true
	}
	for i := range g.Initializers {
		defined[g.Initializers[i].Name] = true
	}
	for i := range g.Nodes {
		for _, out := range g.Nodes[i].Outputs {
			defined[out] = true
		}
	}

	var free []string
	seen := make(map[string]bool)
	ref := func(name string) {
		if name == "" || defined[name] || seen[name] {
			return
		}
		seen[name] = true
		free = append(free, name)
	}
	for i := range g.Nodes {
		node := &g.Nodes[i]
		for _, in := range node.Inputs {
			ref(in)
		}
		for j := range node.Attributes {
			for _, name := range captures(&node.Attributes[j]) {
				ref(name)
			}
		}
	}
	for i := range g.Outputs {
		ref(g.Outputs[i].Name)
	}
	return free
}

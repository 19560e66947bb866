package ir

import (
	"fmt"
	"slices"

	"github.com/bentheiii/onnx/internal/onnx"
)

// Graph is an arena of nodes plus the graph-level values around them.
type Graph struct {
	Name      string
	DocString string

	nodes     []*Node           // arena; nil marks a destroyed node
	live      int               // number of non-nil arena slots
	producers map[string]NodeID // value name -> producing node
	uses      map[string]int    // value name -> number of uses

	initializers []onnx.TensorProto
	inputs       []onnx.ValueInfoProto
	outputs      []onnx.ValueInfoProto
	valueInfo    []onnx.ValueInfoProto
	opsets       []onnx.OperatorSetID
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{
		Name:      name,
		producers: make(map[string]NodeID),
		uses:      make(map[string]int),
	}
}

// FromProto builds a graph from a GraphProto and the opset imports of its
// model. The proto is copied.
func FromProto(proto *onnx.GraphProto, opsets []onnx.OperatorSetID) (*Graph, error) {
	g := New(proto.Name)
	g.DocString = proto.DocString
	g.opsets = slices.Clone(opsets)
	g.inputs = slices.Clone(proto.Inputs)
	g.valueInfo = slices.Clone(proto.ValueInfo)
	for i := range proto.Initializers {
		g.initializers = append(g.initializers, *proto.Initializers[i].Clone())
	}
	for i := range proto.Nodes {
		node := &proto.Nodes[i]
		for _, out := range node.Outputs {
			if _, dup := g.producers[out]; dup && out != "" {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateValue, out)
			}
		}
		g.AddNode(node.Clone())
	}
	for i := range proto.Outputs {
		g.AddOutput(proto.Outputs[i])
	}
	return g, nil
}

// Proto returns a detached GraphProto holding the live nodes in arena order.
func (g *Graph) Proto() *onnx.GraphProto {
	p := &onnx.GraphProto{
		Name:      g.Name,
		DocString: g.DocString,
		Inputs:    slices.Clone(g.inputs),
		Outputs:   slices.Clone(g.outputs),
		ValueInfo: slices.Clone(g.valueInfo),
	}
	for _, n := range g.Nodes() {
		p.Nodes = append(p.Nodes, n.Proto())
	}
	for i := range g.initializers {
		p.Initializers = append(p.Initializers, *g.initializers[i].Clone())
	}
	return p
}

// AddNode appends a node built from proto. The node takes ownership of the
// proto's slices. If an output name is already produced by another node the
// newer node becomes its producer; Validate reports such graphs.
func (g *Graph) AddNode(proto onnx.NodeProto) {
	g.Insert(proto)
}

// Insert appends a node built from proto and returns it.
func (g *Graph) Insert(proto onnx.NodeProto) *Node {
	n := &Node{
		id:         NodeID(len(g.nodes)),
		graph:      g,
		Name:       proto.Name,
		OpType:     proto.OpType,
		Domain:     proto.Domain,
		DocString:  proto.DocString,
		inputs:     proto.Inputs,
		outputs:    proto.Outputs,
		attributes: proto.Attributes,
	}
	g.nodes = append(g.nodes, n)
	g.live++
	for _, in := range n.inputs {
		if in != "" {
			g.uses[in]++
		}
	}
	for i := range n.attributes {
		n.retain(&n.attributes[i])
	}
	for _, out := range n.outputs {
		if out != "" {
			g.producers[out] = n.id
		}
	}
	return n
}

// Node returns the node with the given ID, or nil if it was destroyed.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns the live nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, g.live)
	for _, n := range g.nodes {
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NumNodes returns the number of live nodes.
func (g *Graph) NumNodes() int {
	return g.live
}

// Producer returns the live node producing value.
func (g *Graph) Producer(value string) (*Node, bool) {
	id, ok := g.producers[value]
	if !ok {
		return nil, false
	}
	n := g.nodes[id]
	return n, n != nil
}

// Uses returns how many times value is used by node inputs, sub-graph
// captures and graph outputs.
func (g *Graph) Uses(value string) int {
	return g.uses[value]
}

// Consumers returns the live nodes that read value through an input slot,
// each once.
func (g *Graph) Consumers(value string) []*Node {
	var consumers []*Node
	for _, n := range g.nodes {
		if n != nil && slices.Contains(n.inputs, value) {
			consumers = append(consumers, n)
		}
	}
	return consumers
}

func (g *Graph) unuse(value string) {
	if g.uses[value] <= 1 {
		delete(g.uses, value)
		return
	}
	g.uses[value]--
}

func (g *Graph) owns(n *Node) error {
	switch {
	case n.graph == nil:
		return ErrNodeDestroyed
	case n.graph != g:
		return ErrForeignNode
	}
	return nil
}

// RemoveInput deletes the i-th input slot of n, shifting later inputs left.
func (g *Graph) RemoveInput(n *Node, i int) error {
	if err := g.owns(n); err != nil {
		return err
	}
	if i < 0 || i >= len(n.inputs) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, i, len(n.inputs))
	}
	if v := n.inputs[i]; v != "" {
		g.unuse(v)
	}
	n.inputs = slices.Delete(n.inputs, i, i+1)
	return nil
}

// SetInput replaces the i-th input of n.
func (g *Graph) SetInput(n *Node, i int, value string) error {
	if err := g.owns(n); err != nil {
		return err
	}
	if i < 0 || i >= len(n.inputs) {
		return fmt.Errorf("%w: %d of %d", ErrInputIndex, i, len(n.inputs))
	}
	if old := n.inputs[i]; old != "" {
		g.unuse(old)
	}
	if value != "" {
		g.uses[value]++
	}
	n.inputs[i] = value
	return nil
}

// AppendInput adds an input slot at the end of n's inputs.
func (g *Graph) AppendInput(n *Node, value string) error {
	if err := g.owns(n); err != nil {
		return err
	}
	if value != "" {
		g.uses[value]++
	}
	n.inputs = append(n.inputs, value)
	return nil
}

// Destroy removes n from the graph. It fails with ErrStillUsed if any of
// n's outputs is still used.
func (g *Graph) Destroy(n *Node) error {
	if err := g.owns(n); err != nil {
		return err
	}
	for _, out := range n.outputs {
		if out != "" && g.uses[out] > 0 {
			return fmt.Errorf("%w: %q has %d use(s)", ErrStillUsed, out, g.uses[out])
		}
	}
	for _, in := range n.inputs {
		if in != "" {
			g.unuse(in)
		}
	}
	for i := range n.attributes {
		n.release(&n.attributes[i])
	}
	for _, out := range n.outputs {
		if id, ok := g.producers[out]; ok && id == n.id {
			delete(g.producers, out)
		}
	}
	g.nodes[n.id] = nil
	g.live--
	n.graph = nil
	return nil
}

// Initializer returns the initializer with the given name.
func (g *Graph) Initializer(name string) (*onnx.TensorProto, bool) {
	for i := range g.initializers {
		if g.initializers[i].Name == name {
			return &g.initializers[i], true
		}
	}
	return nil, false
}

// Initializers returns the initializers in order. The slice is shared.
func (g *Graph) Initializers() []onnx.TensorProto {
	return g.initializers
}

// AddInitializer appends an initializer.
func (g *Graph) AddInitializer(t onnx.TensorProto) {
	g.initializers = append(g.initializers, t)
}

// EraseInitializer removes the named initializer and any graph input of the
// same name. It fails with ErrStillUsed if the value is still used.
func (g *Graph) EraseInitializer(name string) error {
	if n := g.uses[name]; n > 0 {
		return fmt.Errorf("%w: %q has %d use(s)", ErrStillUsed, name, n)
	}
	g.initializers = slices.DeleteFunc(g.initializers, func(t onnx.TensorProto) bool {
		return t.Name == name
	})
	g.inputs = slices.DeleteFunc(g.inputs, func(vi onnx.ValueInfoProto) bool {
		return vi.Name == name
	})
	return nil
}

// AddInput appends a graph input.
func (g *Graph) AddInput(vi onnx.ValueInfoProto) {
	g.inputs = append(g.inputs, vi)
}

// AddOutput appends a graph output. Graph outputs count as uses.
func (g *Graph) AddOutput(vi onnx.ValueInfoProto) {
	g.outputs = append(g.outputs, vi)
	if vi.Name != "" {
		g.uses[vi.Name]++
	}
}

// InputNames returns the graph input names.
func (g *Graph) InputNames() []string {
	names := make([]string, len(g.inputs))
	for i := range g.inputs {
		names[i] = g.inputs[i].Name
	}
	return names
}

// OutputNames returns the graph output names.
func (g *Graph) OutputNames() []string {
	names := make([]string, len(g.outputs))
	for i := range g.outputs {
		names[i] = g.outputs[i].Name
	}
	return names
}

// OpsetImports returns a copy of the graph's opset imports.
func (g *Graph) OpsetImports() []onnx.OperatorSetID {
	return slices.Clone(g.opsets)
}

// OpsetVersion returns the imported version of domain. The empty domain and
// "ai.onnx" are treated as the same domain.
func (g *Graph) OpsetVersion(domain string) (int64, bool) {
	for _, opset := range g.opsets {
		if sameDomain(opset.Domain, domain) {
			return opset.Version, true
		}
	}
	return 0, false
}

// SetOpsetVersion sets the imported version of domain, adding an import if
// none exists.
func (g *Graph) SetOpsetVersion(domain string, version int64) {
	for i := range g.opsets {
		if sameDomain(g.opsets[i].Domain, domain) {
			g.opsets[i].Version = version
			return
		}
	}
	g.opsets = append(g.opsets, onnx.OperatorSetID{Domain: domain, Version: version})
}

// Validate checks that every value is produced at most once and that no
// value is both an initializer and a node output.
func (g *Graph) Validate() error {
	produced := make(map[string]bool)
	for i := range g.initializers {
		produced[g.initializers[i].Name] = true
	}
	for _, n := range g.nodes {
		if n == nil {
			continue
		}
		for _, out := range n.outputs {
			if out == "" {
				continue
			}
			if produced[out] {
				return fmt.Errorf("%w: %q", ErrDuplicateValue, out)
			}
			produced[out] = true
		}
	}
	return nil
}

func sameDomain(a, b string) bool {
	return a == b || (onnx.IsDefaultDomain(a) && onnx.IsDefaultDomain(b))
}

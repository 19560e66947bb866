package inline

import (
	"fmt"

	"github.com/bentheiii/onnx/internal/onnx"
)

// Renamer maps names from an embedded scope to names that are unique in a
// target scope.
//
// Bindings are kept on a stack of scopes: the bottom scope holds call-site
// bindings and each sub-graph being renamed pushes its own. A name with no
// binding in any scope is treated as internal to the outermost scope and
// gets a fresh name derived from the prefix. Allocation is deterministic: a given prefix, reserved set
// and call sequence always yield the same names.
type Renamer struct {
	prefix    string
	taken     map[string]bool
	nodeNames map[string]bool
	scopes    []map[string]string
}

// NewRenamer creates a renamer whose fresh names start with prefix and
// avoid every reserved name.
func NewRenamer(prefix string, reserved ...string) *Renamer {
	r := &Renamer{
		prefix:    prefix,
		taken:     make(map[string]bool),
		nodeNames: make(map[string]bool),
		scopes:    []map[string]string{make(map[string]string)},
	}
	r.Reserve(reserved...)
	return r
}

// Reserve marks value names as already present in the target scope.
func (r *Renamer) Reserve(names ...string) {
	for _, name := range names {
		if name != "" {
			r.taken[name] = true
		}
	}
}

// ReserveNodeNames marks node names as already present in the target.
func (r *Renamer) ReserveNodeNames(names ...string) {
	for _, name := range names {
		if name != "" {
			r.nodeNames[name] = true
		}
	}
}

// BindName substitutes actual for every reference to formal in the current
// scope.
func (r *Renamer) BindName(formal, actual string) {
	r.current()[formal] = actual
	r.Reserve(actual)
}

// BindToUniqueName allocates a fresh name for candidate, binds candidate to
// it in the current scope and returns it.
func (r *Renamer) BindToUniqueName(candidate string) string {
	name := r.unique(r.prefix+candidate, r.taken)
	r.current()[candidate] = name
	return name
}

// Lookup returns the binding of name, searching from the innermost scope.
func (r *Renamer) Lookup(name string) (string, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if actual, ok := r.scopes[i][name]; ok {
			return actual, true
		}
	}
	return "", false
}

// RenameNode rewrites the node's inputs, sub-graph attributes, outputs and
// name in place. The node must be a copy owned by the caller.
func (r *Renamer) RenameNode(node *onnx.NodeProto) {
	for i, in := range node.Inputs {
		if in != "" {
			node.Inputs[i] = r.resolve(in)
		}
	}
	for i := range node.Attributes {
		attr := &node.Attributes[i]
		if attr.G != nil {
			r.renameGraph(attr.G)
		}
		for j := range attr.Graphs {
			r.renameGraph(&attr.Graphs[j])
		}
	}
	for i, out := range node.Outputs {
		if out == "" {
			continue
		}
		if actual, ok := r.current()[out]; ok {
			node.Outputs[i] = actual
		} else {
			node.Outputs[i] = r.BindToUniqueName(out)
		}
	}
	if node.Name != "" {
		node.Name = r.unique(r.prefix+node.Name, r.nodeNames)
	}
}

// renameGraph renames a sub-graph in a nested scope. Its inputs,
// initializers and node outputs are local; anything else resolves through
// the enclosing scopes.
func (r *Renamer) renameGraph(g *onnx.GraphProto) {
	r.scopes = append(r.scopes, make(map[string]string))
	defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

	for i := range g.Inputs {
		g.Inputs[i].Name = r.BindToUniqueName(g.Inputs[i].Name)
	}
	for i := range g.Initializers {
		g.Initializers[i].Name = r.BindToUniqueName(g.Initializers[i].Name)
	}
	for i := range g.Nodes {
		r.RenameNode(&g.Nodes[i])
	}
	for i := range g.Outputs {
		g.Outputs[i].Name = r.resolve(g.Outputs[i].Name)
	}
	for i := range g.ValueInfo {
		if actual, ok := r.Lookup(g.ValueInfo[i].Name); ok {
			g.ValueInfo[i].Name = actual
		}
	}
}

// resolve returns the binding of a referenced name. A name bound nowhere is
// free: it belongs to the outermost scope, so a sub-graph that reads it
// first and the enclosing graph agree on its fresh name.
func (r *Renamer) resolve(name string) string {
	if actual, ok := r.Lookup(name); ok {
		return actual
	}
	fresh := r.unique(r.prefix+name, r.taken)
	r.scopes[0][name] = fresh
	return fresh
}

func (r *Renamer) current() map[string]string {
	return r.scopes[len(r.scopes)-1]
}

// unique returns candidate, or candidate with the smallest numeric suffix
// not yet in set, and records the result in set.
func (r *Renamer) unique(candidate string, set map[string]bool) string {
	name := candidate
	for i := 1; set[name]; i++ {
		name = fmt.Sprintf("%s_%d", candidate, i)
	}
	set[name] = true
	return name
}

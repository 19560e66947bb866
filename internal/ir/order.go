package ir

// TopologicalOrder returns the live nodes ordered so that every node comes
// after the producers of its inputs. Ties keep insertion order; cycles are
// broken at the first revisited node.
func (g *Graph) TopologicalOrder() []*Node {
	visited := make([]bool, len(g.nodes))
	order := make([]*Node, 0, g.live)

	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n.id] {
			return
		}
		visited[n.id] = true

		// Producers first
		for _, in := range n.inputs {
			if dep, ok := g.Producer(in); ok {
				visit(dep)
			}
		}
		for i := range n.attributes {
			for _, v := range captures(&n.attributes[i]) {
				if dep, ok := g.Producer(v); ok {
					visit(dep)
				}
			}
		}

		order = append(order, n)
	}

	for _, n := range g.nodes {
		if n != nil {
			visit(n)
		}
	}
	return order
}

// Sort rearranges the arena into topological order. Node IDs are
// reassigned.
func (g *Graph) Sort() {
	order := g.TopologicalOrder()
	g.nodes = make([]*Node, len(order))
	for i, n := range order {
		n.id = NodeID(i)
		g.nodes[i] = n
		for _, out := range n.outputs {
			if out != "" {
				g.producers[out] = n.id
			}
		}
	}
}

package graph

// Equal compares two graphs structurally: the effects fed by the root must
// match by negation and attributes, and the causal trees below the roots
// must match node by node regardless of child order or node ids.
func Equal(a, b *Graph) bool {
	if a.Root == NoRef || b.Root == NoRef {
		return a.Root == b.Root
	}
	if !matchEdges(a, b, a.nodes[a.Root].outgoing, b.nodes[b.Root].outgoing, false) {
		return false
	}
	return equalNode(a, b, a.Root, b.Root, true)
}

// equalNode compares two nodes and, following incoming or outgoing edges, what is connected to them.
func equalNode(a, b *Graph, ra, rb Ref, incoming bool) bool {
	na, nb := &a.nodes[ra], &b.nodes[rb]
	if na.Kind != nb.Kind {
		return false
	}
	if na.Kind == EventKind {
		return na.Event.Variable == nb.Event.Variable && na.Event.Condition == nb.Event.Condition
	}
	if na.Conjunction != nb.Conjunction {
		return false
	}
	if incoming {
		return matchEdges(a, b, na.incoming, nb.incoming, true)
	}
	return matchEdges(a, b, na.outgoing, nb.outgoing, false)
}

// matchEdges pairs every edge of ea with a distinct equivalent edge of eb.
func matchEdges(a, b *Graph, ea, eb []EdgeRef, incoming bool) bool {
	if len(ea) != len(eb) {
		return false
	}
	used := make([]bool, len(eb))
	for _, x := range ea {
		ex := &a.edges[x]
		found := false
		for i, y := range eb {
			if used[i] {
				continue
			}
			ey := &b.edges[y]
			if ex.Negated != ey.Negated {
				continue
			}
			var ok bool
			if incoming {
				ok = equalNode(a, b, ex.Origin, ey.Origin, true)
			} else {
				ok = equalNode(a, b, ex.Target, ey.Target, false)
			}
			if ok {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

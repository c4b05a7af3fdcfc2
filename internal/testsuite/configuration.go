package testsuite

import (
	"maps"

	"github.com/JulianFrattini/cira/internal/graph"
)

// Configuration assigns a value to event nodes, keyed by node id.
type Configuration map[string]bool

// Configurations returns a minimal set of event assignments that make the
// node r evaluate to outcome.
//
// A conjunction asked for true (a disjunction asked for false) allows only
// one combination: every child takes the value that yields outcome. In the
// other case exactly one child differs from the rest, which gives one
// combination per child instead of all 2^n.
func Configurations(g *graph.Graph, r graph.Ref, outcome bool) []Configuration {
	n := g.Node(r)
	if n.Kind == graph.EventKind {
		return []Configuration{{n.ID: outcome}}
	}

	incoming := g.Incoming(r)
	if outcome == n.Conjunction {
		lists := make([][]Configuration, len(incoming))
		for i, e := range incoming {
			edge := g.Edge(e)
			lists[i] = Configurations(g, edge.Origin, outcome != edge.Negated)
		}
		return Permute(lists)
	}

	var out []Configuration
	for _, odd := range incoming {
		lists := make([][]Configuration, len(incoming))
		for i, e := range incoming {
			edge := g.Edge(e)
			want := outcome == edge.Negated
			if e == odd {
				want = outcome != edge.Negated
			}
			lists[i] = Configurations(g, edge.Origin, want)
		}
		out = append(out, Permute(lists)...)
	}
	return out
}

// Permute merges one configuration of every list into a combined
// configuration, for all combinations. The result has the product of the
// list lengths as size.
func Permute(lists [][]Configuration) []Configuration {
	out := []Configuration{{}}
	for _, list := range lists {
		next := make([]Configuration, 0, len(out)*len(list))
		for _, prefix := range out {
			for _, c := range list {
				merged := maps.Clone(prefix)
				maps.Copy(merged, c)
				next = append(next, merged)
			}
		}
		out = next
	}
	return out
}

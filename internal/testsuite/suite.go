// Package testsuite derives test cases from a cause-effect graph.
package testsuite

import (
	"errors"
	"fmt"

	"github.com/JulianFrattini/cira/internal/graph"
)

// ErrNoRoot is returned for graphs without a root or without causes and effects.
var ErrNoRoot = errors.New("graph has no causal root")

// Parameter is one input condition or expected outcome of a test.
type Parameter struct {
	ID        string `json:"id" yaml:"id"`
	Variable  string `json:"variable" yaml:"variable"`
	Condition string `json:"condition" yaml:"condition"`
}

// Case assigns a value to every parameter, keyed by parameter id.
type Case map[string]bool

// Suite is a minimal set of test cases covering both outcomes of a graph's causal root.
type Suite struct {
	Conditions []Parameter `json:"conditions" yaml:"conditions"`
	Expected   []Parameter `json:"expected" yaml:"expected"`
	Cases      []Case      `json:"cases" yaml:"cases"`
}

// Convert derives the test suite of a graph. Every event node becomes a
// parameter P0, P1, ... in node order: causes (no incoming edges) are
// conditions, effects (no outgoing edges) are expected outcomes. For both
// values of the root, the minimal configurations of the causes are combined
// with the implied value of every effect.
func Convert(g *graph.Graph) (*Suite, error) {
	if g.Root == graph.NoRef {
		return nil, ErrNoRoot
	}

	suite := &Suite{Conditions: []Parameter{}, Expected: []Parameter{}, Cases: []Case{}}
	params := map[string]string{}
	for _, r := range g.Nodes() {
		n := g.Node(r)
		if n.Kind != graph.EventKind {
			continue
		}
		p := Parameter{ID: fmt.Sprintf("P%d", len(params)), Variable: n.Event.Variable, Condition: n.Event.Condition}
		params[n.ID] = p.ID
		switch {
		case len(g.Incoming(r)) == 0:
			suite.Conditions = append(suite.Conditions, p)
		case len(g.Outgoing(r)) == 0:
			suite.Expected = append(suite.Expected, p)
		}
	}
	if len(suite.Conditions) == 0 || len(suite.Expected) == 0 {
		return nil, fmt.Errorf("%w: %d causes, %d effects", ErrNoRoot, len(suite.Conditions), len(suite.Expected))
	}

	effects := g.Outgoing(g.Root)
	for _, outcome := range []bool{true, false} {
		expected := Case{}
		for _, e := range effects {
			edge := g.Edge(e)
			expected[params[g.Node(edge.Target).ID]] = edge.Negated != outcome
		}
		for _, config := range Configurations(g, g.Root, outcome) {
			c := Case{}
			for id, v := range config {
				c[params[id]] = v
			}
			for id, v := range expected {
				c[id] = v
			}
			suite.Cases = append(suite.Cases, c)
		}
	}
	return suite, nil
}

// Equal compares two suites regardless of parameter ids and case order:
// parameters are matched by variable and condition.
func Equal(a, b *Suite) bool {
	mapping := map[string]string{}
	for _, pair := range [][2][]Parameter{{a.Conditions, b.Conditions}, {a.Expected, b.Expected}} {
		pa, pb := pair[0], pair[1]
		if len(pa) != len(pb) {
			return false
		}
		for _, p := range pa {
			var match *Parameter
			for i := range pb {
				if pb[i].Variable == p.Variable && pb[i].Condition == p.Condition {
					if match != nil {
						return false
					}
					match = &pb[i]
				}
			}
			if match == nil {
				return false
			}
			mapping[match.ID] = p.ID
		}
	}

	if len(a.Cases) != len(b.Cases) {
		return false
	}
	used := make([]bool, len(b.Cases))
	for _, ca := range a.Cases {
		found := false
		for i, cb := range b.Cases {
			if !used[i] && sameCase(ca, cb, mapping) {
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

func sameCase(a, b Case, mapping map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for id, v := range b {
		mapped, ok := mapping[id]
		if !ok {
			return false
		}
		if av, ok := a[mapped]; !ok || av != v {
			return false
		}
	}
	return true
}

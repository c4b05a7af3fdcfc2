package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnassigned is returned by Evaluate for an event without a value.
var ErrUnassigned = errors.New("event not assigned")

// Evaluate computes the boolean value of r under an assignment of event node
// ids to values.
func (g *Graph) Evaluate(r Ref, assignment map[string]bool) (bool, error) {
	return g.evaluate(r, assignment, map[Ref]bool{})
}

func (g *Graph) evaluate(r Ref, assignment map[string]bool, active map[Ref]bool) (bool, error) {
	n := &g.nodes[r]
	if n.Kind == EventKind {
		v, ok := assignment[n.ID]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrUnassigned, n.ID)
		}
		return v, nil
	}
	if active[r] {
		return false, fmt.Errorf("%w: cycle through %s", ErrCondense, n.ID)
	}
	active[r] = true
	defer delete(active, r)

	result := n.Conjunction
	for _, e := range n.incoming {
		edge := &g.edges[e]
		v, err := g.evaluate(edge.Origin, assignment, active)
		if err != nil {
			return false, err
		}
		v = v != edge.Negated
		if n.Conjunction {
			result = result && v
		} else {
			result = result || v
		}
	}
	return result, nil
}

// String renders the graph as "<causal root> ===> <effects>".
func (g *Graph) String() string {
	if g.Root == NoRef {
		return "<empty>"
	}
	var effects []string
	for _, e := range g.nodes[g.Root].outgoing {
		edge := &g.edges[e]
		effects = append(effects, negation(edge.Negated)+g.Format(edge.Target))
	}
	return fmt.Sprintf("%s ===> %s", g.Format(g.Root), strings.Join(effects, " && "))
}

// Format renders the expression rooted in r.
func (g *Graph) Format(r Ref) string {
	n := &g.nodes[r]
	if n.Kind == EventKind {
		return fmt.Sprintf("[%s].(%s)", n.Event.Variable, n.Event.Condition)
	}
	parts := make([]string, 0, len(n.incoming))
	for _, e := range n.incoming {
		edge := &g.edges[e]
		parts = append(parts, negation(edge.Negated)+g.Format(edge.Origin))
	}
	sep := " || "
	if n.Conjunction {
		sep = " && "
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func negation(negated bool) string {
	if negated {
		return "NOT "
	}
	return ""
}

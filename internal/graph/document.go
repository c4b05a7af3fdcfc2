package graph

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator"
)

// ErrMalformed marks graph documents that cannot be turned into a graph.
var ErrMalformed = errors.New("malformed graph document")

var validate = validator.New()

// NodeDocument is an event node ({id, variable, condition}) or an
// intermediate node ({id, conjunction, precedence}).
type NodeDocument struct {
	ID          string  `json:"id" yaml:"id" validate:"required"`
	Variable    *string `json:"variable,omitempty" yaml:"variable,omitempty"`
	Condition   *string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Conjunction *bool   `json:"conjunction,omitempty" yaml:"conjunction,omitempty"`
	Precedence  *bool   `json:"precedence,omitempty" yaml:"precedence,omitempty"`
}

// EdgeDocument references its endpoints by node id.
type EdgeDocument struct {
	Origin  string `json:"origin" yaml:"origin" validate:"required"`
	Target  string `json:"target" yaml:"target" validate:"required"`
	Negated bool   `json:"negated" yaml:"negated"`
}

// Document is the plain form of a graph.
type Document struct {
	Nodes []NodeDocument `json:"nodes" yaml:"nodes" validate:"required,dive"`
	Root  string         `json:"root" yaml:"root" validate:"required"`
	Edges []EdgeDocument `json:"edges" yaml:"edges" validate:"dive"`
}

// Document converts the live part of the graph into its plain form.
func (g *Graph) Document() Document {
	doc := Document{Nodes: []NodeDocument{}, Edges: []EdgeDocument{}}
	for _, r := range g.Nodes() {
		n := &g.nodes[r]
		nd := NodeDocument{ID: n.ID}
		if n.Kind == EventKind {
			v, c := n.Event.Variable, n.Event.Condition
			nd.Variable, nd.Condition = &v, &c
		} else {
			conj, prec := n.Conjunction, n.Precedence
			nd.Conjunction, nd.Precedence = &conj, &prec
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	if g.Root != NoRef {
		doc.Root = g.nodes[g.Root].ID
	}
	for _, e := range g.Edges() {
		edge := &g.edges[e]
		doc.Edges = append(doc.Edges, EdgeDocument{
			Origin:  g.nodes[edge.Origin].ID,
			Target:  g.nodes[edge.Target].ID,
			Negated: edge.Negated,
		})
	}
	return doc
}

// FromDocument rebuilds a graph. Edge endpoints and the root are resolved by
// node id; unknown or duplicate ids are errors.
func FromDocument(doc Document) (*Graph, error) {
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	g := New()
	for _, nd := range doc.Nodes {
		if g.Lookup(nd.ID).Candidates > 0 {
			return nil, fmt.Errorf("%w: duplicate node id %s", ErrMalformed, nd.ID)
		}
		if nd.Conjunction != nil {
			precedence := nd.Precedence != nil && *nd.Precedence
			g.AddIntermediate(nd.ID, *nd.Conjunction, precedence)
			continue
		}
		ev := NewEvent()
		if nd.Variable != nil {
			ev.Variable = *nd.Variable
		}
		if nd.Condition != nil {
			ev.Condition = *nd.Condition
		}
		g.AddEvent(nd.ID, ev)
	}

	resolve := func(id, role string) (Ref, error) {
		r, err := g.Lookup(id).Unique(fmt.Sprintf("%s node %s", role, id))
		if err != nil {
			return NoRef, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return r, nil
	}

	for _, ed := range doc.Edges {
		origin, err := resolve(ed.Origin, "origin")
		if err != nil {
			return nil, err
		}
		target, err := resolve(ed.Target, "target")
		if err != nil {
			return nil, err
		}
		g.AddEdge(origin, target, ed.Negated)
	}

	root, err := resolve(doc.Root, "root")
	if err != nil {
		return nil, err
	}
	g.Root = root
	if err := checkTree(g); err != nil {
		return nil, err
	}
	return g, nil
}

// checkTree verifies that the causal part of g is a tree hanging off the
// root and that the root feeds effect events directly. Every node has to be
// part of one or the other.
func checkTree(g *Graph) error {
	seen := map[Ref]bool{}
	var visit func(r Ref) error
	visit = func(r Ref) error {
		n := &g.nodes[r]
		if seen[r] {
			return fmt.Errorf("%w: %s is reached twice", ErrMalformed, n.ID)
		}
		seen[r] = true
		if r != g.Root && len(n.outgoing) != 1 {
			return fmt.Errorf("%w: %s has %d outgoing edges", ErrMalformed, n.ID, len(n.outgoing))
		}
		for _, e := range n.incoming {
			if err := visit(g.edges[e].Origin); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(g.Root); err != nil {
		return err
	}

	for _, e := range g.nodes[g.Root].outgoing {
		r := g.edges[e].Target
		n := &g.nodes[r]
		if seen[r] || n.Kind != EventKind || len(n.outgoing) > 0 || len(n.incoming) != 1 {
			return fmt.Errorf("%w: %s is not an effect of the root", ErrMalformed, n.ID)
		}
		seen[r] = true
	}

	for _, r := range g.Nodes() {
		if !seen[r] {
			return fmt.Errorf("%w: %s is not connected to the root", ErrMalformed, g.nodes[r].ID)
		}
	}
	return nil
}

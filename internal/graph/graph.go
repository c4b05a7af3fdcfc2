// Package graph holds the cause-effect graph of a requirement: event nodes
// for causes and effects, intermediate nodes for conjunctions and
// disjunctions, and negatable edges between them.
//
// Nodes and edges live in an arena and are addressed by Ref and EdgeRef.
// Removed entries are tombstoned so that references stay stable while the
// graph is rewired.
package graph

import (
	"errors"
	"fmt"

	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/lookup"
)

// Default attribute values of an event whose labels name no variable or condition.
const (
	DefaultVariable  = "it"
	DefaultCondition = "is present"
)

// ErrNoRoot is returned when the causal part of a graph has no unique root.
var ErrNoRoot = errors.New("no unique root")

// Ref addresses a node in a Graph.
type Ref int

// EdgeRef addresses an edge in a Graph.
type EdgeRef int

// NoRef is the zero reference of an unset root.
const NoRef Ref = -1

// Kind discriminates the node variants.
type Kind int

const (
	EventKind Kind = iota
	IntermediateKind
)

func (k Kind) String() string {
	if k == IntermediateKind {
		return "intermediate"
	}
	return "event"
}

// Event is the payload of an event node. Labels are nil for events that
// were read from a document.
type Event struct {
	Labels    []*labels.EventLabel
	Variable  string
	Condition string

	// VariableAssumed and ConditionAssumed report that the value was taken
	// from a neighboring event. Diagnostic only.
	VariableAssumed  bool
	ConditionAssumed bool
}

// NewEvent creates an event with default attributes.
func NewEvent(ls ...*labels.EventLabel) *Event {
	return &Event{Labels: ls, Variable: DefaultVariable, Condition: DefaultCondition}
}

// IsCause reports whether the event occupies a cause slot.
func (e *Event) IsCause() bool {
	return len(e.Labels) > 0 && e.Labels[0].IsCause()
}

// Negated reports an odd number of Negation labels across all labels of the event.
func (e *Event) Negated() bool {
	n := 0
	for _, l := range e.Labels {
		n += l.NegationCount()
	}
	return n%2 == 1
}

// Exceptive reports whether an exceptive clause applies to the event.
func (e *Event) Exceptive() bool {
	for _, l := range e.Labels {
		if l.ExceptiveNegation {
			return true
		}
	}
	return false
}

// EffectivelyNegated combines the own negations with an exceptive clause.
func (e *Event) EffectivelyNegated() bool {
	return e.Negated() != e.Exceptive()
}

// Node is either an event (Event set) or an intermediate junctor node
// (Conjunction and Precedence set).
type Node struct {
	ID    string
	Kind  Kind
	Event *Event

	Conjunction bool
	// Precedence marks a disjunction that binds before a conjunction.
	Precedence bool

	incoming []EdgeRef
	outgoing []EdgeRef
	removed  bool
}

// PrecedenceValue orders junctor nodes by binding strength: disjunction 1,
// conjunction 2, disjunction with precedence 3. Event nodes have 0.
func (n *Node) PrecedenceValue() int {
	switch {
	case n.Kind == EventKind:
		return 0
	case n.Conjunction:
		return 2
	case n.Precedence:
		return 3
	default:
		return 1
	}
}

// Edge feeds the value of Origin into Target, optionally negated.
type Edge struct {
	Origin  Ref
	Target  Ref
	Negated bool

	removed bool
}

// Graph is an arena of nodes and edges.
type Graph struct {
	Root Ref

	nodes []Node
	edges []Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{Root: NoRef}
}

// AddEvent adds an event node.
func (g *Graph) AddEvent(id string, ev *Event) Ref {
	g.nodes = append(g.nodes, Node{ID: id, Kind: EventKind, Event: ev})
	return Ref(len(g.nodes) - 1)
}

// AddIntermediate adds a junctor node.
func (g *Graph) AddIntermediate(id string, conjunction, precedence bool) Ref {
	g.nodes = append(g.nodes, Node{ID: id, Kind: IntermediateKind, Conjunction: conjunction, Precedence: precedence})
	return Ref(len(g.nodes) - 1)
}

// AddEdge connects origin to target.
func (g *Graph) AddEdge(origin, target Ref, negated bool) EdgeRef {
	g.edges = append(g.edges, Edge{Origin: origin, Target: target, Negated: negated})
	e := EdgeRef(len(g.edges) - 1)
	g.nodes[origin].outgoing = append(g.nodes[origin].outgoing, e)
	g.nodes[target].incoming = append(g.nodes[target].incoming, e)
	return e
}

// RemoveEdge detaches an edge from both endpoints.
func (g *Graph) RemoveEdge(e EdgeRef) {
	edge := &g.edges[e]
	if edge.removed {
		return
	}
	g.nodes[edge.Origin].outgoing = without(g.nodes[edge.Origin].outgoing, e)
	g.nodes[edge.Target].incoming = without(g.nodes[edge.Target].incoming, e)
	edge.removed = true
}

// Retarget moves the head of an edge to another node.
func (g *Graph) Retarget(e EdgeRef, target Ref) {
	edge := &g.edges[e]
	g.nodes[edge.Target].incoming = without(g.nodes[edge.Target].incoming, e)
	edge.Target = target
	g.nodes[target].incoming = append(g.nodes[target].incoming, e)
}

// Reorigin moves the tail of an edge to another node.
func (g *Graph) Reorigin(e EdgeRef, origin Ref) {
	edge := &g.edges[e]
	g.nodes[edge.Origin].outgoing = without(g.nodes[edge.Origin].outgoing, e)
	edge.Origin = origin
	g.nodes[origin].outgoing = append(g.nodes[origin].outgoing, e)
}

// RemoveNode removes a node together with all of its edges.
func (g *Graph) RemoveNode(r Ref) {
	n := &g.nodes[r]
	for _, e := range append(append([]EdgeRef(nil), n.incoming...), n.outgoing...) {
		g.RemoveEdge(e)
	}
	n.removed = true
	if g.Root == r {
		g.Root = NoRef
	}
}

func without(list []EdgeRef, e EdgeRef) []EdgeRef {
	out := list[:0]
	for _, x := range list {
		if x != e {
			out = append(out, x)
		}
	}
	return out
}

// Node returns the node behind r.
func (g *Graph) Node(r Ref) *Node { return &g.nodes[r] }

// Edge returns the edge behind e.
func (g *Graph) Edge(e EdgeRef) *Edge { return &g.edges[e] }

// Incoming returns the edges ending in r.
func (g *Graph) Incoming(r Ref) []EdgeRef {
	return append([]EdgeRef(nil), g.nodes[r].incoming...)
}

// Outgoing returns the edges starting in r.
func (g *Graph) Outgoing(r Ref) []EdgeRef {
	return append([]EdgeRef(nil), g.nodes[r].outgoing...)
}

// Nodes returns all live nodes in insertion order.
func (g *Graph) Nodes() []Ref {
	var out []Ref
	for i := range g.nodes {
		if !g.nodes[i].removed {
			out = append(out, Ref(i))
		}
	}
	return out
}

// Edges returns all live edges in insertion order.
func (g *Graph) Edges() []EdgeRef {
	var out []EdgeRef
	for i := range g.edges {
		if !g.edges[i].removed {
			out = append(out, EdgeRef(i))
		}
	}
	return out
}

// Lookup finds a live node by id.
func (g *Graph) Lookup(id string) lookup.Result[Ref] {
	return lookup.Find(g.Nodes(), func(r Ref) bool { return g.nodes[r].ID == id })
}

// EdgeBetween returns the edge from origin to target, if any.
func (g *Graph) EdgeBetween(origin, target Ref) (EdgeRef, bool) {
	for _, e := range g.nodes[origin].outgoing {
		if g.edges[e].Target == target {
			return e, true
		}
	}
	return 0, false
}

// Causes returns the event nodes without incoming edges.
func (g *Graph) Causes() []Ref {
	return g.filter(func(n *Node) bool { return n.Kind == EventKind && len(n.incoming) == 0 })
}

// Effects returns the event nodes without outgoing edges that are fed by another node.
func (g *Graph) Effects() []Ref {
	return g.filter(func(n *Node) bool {
		return n.Kind == EventKind && len(n.outgoing) == 0 && len(n.incoming) > 0
	})
}

func (g *Graph) filter(pred func(*Node) bool) []Ref {
	var out []Ref
	for _, r := range g.Nodes() {
		if pred(&g.nodes[r]) {
			out = append(out, r)
		}
	}
	return out
}

// CausalRoot returns the unique node among the given ones without outgoing edges.
func (g *Graph) CausalRoot(among []Ref) (Ref, error) {
	root := NoRef
	for _, r := range among {
		if len(g.nodes[r].outgoing) > 0 {
			continue
		}
		if root != NoRef {
			return NoRef, fmt.Errorf("%w: %s and %s have no outgoing edges", ErrNoRoot, g.nodes[root].ID, g.nodes[r].ID)
		}
		root = r
	}
	if root == NoRef {
		return NoRef, fmt.Errorf("%w: every node has an outgoing edge", ErrNoRoot)
	}
	return root, nil
}

// Flatten lists r followed by everything feeding into it, depth first.
func (g *Graph) Flatten(r Ref) []Ref {
	seen := map[Ref]bool{}
	var out []Ref
	var visit func(Ref)
	visit = func(r Ref) {
		if seen[r] {
			return
		}
		seen[r] = true
		out = append(out, r)
		for _, e := range g.nodes[r].incoming {
			visit(g.edges[e].Origin)
		}
	}
	visit(r)
	return out
}

// Leaves returns the event nodes feeding into r.
func (g *Graph) Leaves(r Ref) []Ref {
	var out []Ref
	for _, n := range g.Flatten(r) {
		if g.nodes[n].Kind == EventKind {
			out = append(out, n)
		}
	}
	return out
}

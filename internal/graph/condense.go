package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCondense is returned when condensation does not settle into a tree.
var ErrCondense = errors.New("graph does not condense")

// Step describes one condensation step.
type Step struct {
	Node    string
	Merge   bool     // parents were merged into the first one
	Parents []string // parents of Node before the step, weakest first when rewiring
}

func (s Step) String() string {
	if s.Merge {
		return fmt.Sprintf("merge parents %v of %s", s.Parents, s.Node)
	}
	return fmt.Sprintf("rewire parents %v of %s", s.Parents, s.Node)
}

// change is a planned set of graph mutations, applied in one go.
type change struct {
	remove   []EdgeRef
	retarget []move
	reorigin []move
	add      [][2]Ref
	drop     []Ref
}

type move struct {
	edge EdgeRef
	to   Ref
}

// Condense turns the junctor net into a tree: every node that feeds more
// than one parent is processed until each node has at most one parent.
//
// Parents of the same kind and precedence are merged into the first one.
// Otherwise the weakest parent takes the strongest one as its child in place
// of the node, so that the stronger junctor binds first.
func (g *Graph) Condense() ([]Step, error) {
	queue := g.Nodes()
	limit := 4*(len(g.nodes)+len(g.edges)) + 16

	var steps []Step
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		n := &g.nodes[r]
		if n.removed || len(n.outgoing) < 2 {
			continue
		}
		if len(steps) >= limit {
			return steps, fmt.Errorf("%w: no progress at %s", ErrCondense, n.ID)
		}

		c, step, touched := g.plan(r)
		g.apply(c)
		steps = append(steps, step)
		queue = append(queue, touched...)
	}
	return steps, nil
}

func (g *Graph) plan(r Ref) (change, Step, []Ref) {
	var c change

	// distinct parents in edge order; duplicate edges to one parent are dropped
	var parents []Ref
	seen := map[Ref]bool{}
	for _, e := range g.nodes[r].outgoing {
		t := g.edges[e].Target
		if seen[t] {
			c.remove = append(c.remove, e)
			continue
		}
		seen[t] = true
		parents = append(parents, t)
	}

	step := Step{Node: g.nodes[r].ID}
	if len(parents) < 2 {
		step.Merge = true
		step.Parents = g.ids(parents)
		return c, step, []Ref{r}
	}

	same := true
	for _, p := range parents[1:] {
		if g.nodes[p].PrecedenceValue() != g.nodes[parents[0]].PrecedenceValue() {
			same = false
			break
		}
	}

	if same {
		step.Merge = true
		step.Parents = g.ids(parents)
		survivor := parents[0]
		origins := map[Ref]bool{}
		for _, e := range g.nodes[survivor].incoming {
			origins[g.edges[e].Origin] = true
		}
		targets := map[Ref]bool{}
		for _, e := range g.nodes[survivor].outgoing {
			targets[g.edges[e].Target] = true
		}
		for _, m := range parents[1:] {
			for _, e := range g.nodes[m].incoming {
				o := g.edges[e].Origin
				if origins[o] || o == survivor {
					c.remove = append(c.remove, e)
					continue
				}
				origins[o] = true
				c.retarget = append(c.retarget, move{e, survivor})
			}
			for _, e := range g.nodes[m].outgoing {
				t := g.edges[e].Target
				if targets[t] || t == survivor {
					c.remove = append(c.remove, e)
					continue
				}
				targets[t] = true
				c.reorigin = append(c.reorigin, move{e, survivor})
			}
			c.drop = append(c.drop, m)
		}
		return c, step, []Ref{r, survivor}
	}

	ordered := append([]Ref(nil), parents...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return g.nodes[ordered[i]].PrecedenceValue() < g.nodes[ordered[j]].PrecedenceValue()
	})
	weak, strong := ordered[0], ordered[len(ordered)-1]
	step.Parents = g.ids(ordered)

	e, _ := g.EdgeBetween(r, weak)
	c.remove = append(c.remove, e)
	if _, ok := g.EdgeBetween(strong, weak); !ok {
		c.add = append(c.add, [2]Ref{strong, weak})
	}
	return c, step, []Ref{r, strong}
}

func (g *Graph) apply(c change) {
	for _, e := range c.remove {
		g.RemoveEdge(e)
	}
	for _, m := range c.retarget {
		g.Retarget(m.edge, m.to)
	}
	for _, m := range c.reorigin {
		g.Reorigin(m.edge, m.to)
	}
	for _, a := range c.add {
		g.AddEdge(a[0], a[1], false)
	}
	for _, r := range c.drop {
		g.RemoveNode(r)
	}
}

func (g *Graph) ids(refs []Ref) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = g.nodes[r].ID
	}
	return out
}

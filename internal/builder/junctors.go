package builder

import (
	"fmt"

	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
)

// PairJunctor is the junctor between two adjacent cause nodes.
type PairJunctor struct {
	First, Second graph.Ref
	Junctor       labels.Junctor
}

// Junctors determines the junctor between every pair of adjacent cause
// nodes. The chain of event labels is walked from the first cause; links
// inside one (split) node are skipped and the walk ends where the chain
// crosses over to the effects. Junctors that are not given explicitly are
// taken from the next explicit junctor in the chain, defaulting to AND.
func Junctors(g *graph.Graph, causes []graph.Ref, all []labels.Label) ([]PairJunctor, error) {
	owner := map[*labels.EventLabel]graph.Ref{}
	var first *labels.EventLabel
	for _, r := range causes {
		for _, l := range g.Node(r).Event.Labels {
			owner[l] = r
			if first == nil || l.Begin < first.Begin {
				first = l
			}
		}
	}
	if first == nil {
		return nil, nil
	}

	var (
		pairs       []PairJunctor
		connectives []labels.Connective
	)
	seen := map[[2]graph.Ref]bool{}
	visited := map[*labels.EventLabel]bool{first: true}
	for cur := first; cur.Successor != nil; {
		link := cur.Successor
		next := link.Target
		if next.IsCause() != cur.IsCause() {
			break
		}
		if visited[next] {
			return nil, fmt.Errorf("%w: event chain through %s is cyclic", ErrMalformed, next.ID)
		}
		visited[next] = true

		a, aok := owner[cur]
		b, bok := owner[next]
		if !aok || !bok {
			return nil, fmt.Errorf("%w: %s -> %s leaves the cause nodes", ErrMalformed, cur.ID, next.ID)
		}
		key := [2]graph.Ref{min(a, b), max(a, b)}
		if a != b && !seen[key] {
			seen[key] = true
			pairs = append(pairs, PairJunctor{First: a, Second: b})
			connectives = append(connectives, connective(all, cur, next, link.Junctor))
		}
		cur = next
	}

	junctors := labels.FoldPrecedence(connectives)

	// fill unknown junctors from the right
	previous := labels.And
	for i := len(junctors) - 1; i >= 0; i-- {
		switch junctors[i] {
		case labels.None, labels.Merge:
			junctors[i] = previous
		default:
			previous = junctors[i]
		}
	}
	for i := range pairs {
		pairs[i].Junctor = junctors[i]
	}
	return pairs, nil
}

// connective derives what connects two events from the free-standing junctor
// labels between them, or from the recorded junctor if there are none.
func connective(all []labels.Label, a, b *labels.EventLabel, recorded labels.Junctor) labels.Connective {
	var free []*labels.SubLabel
	for _, s := range labels.JunctorsBetween(all, &a.Base, &b.Base) {
		if s.Parent == nil {
			free = append(free, s)
		}
	}
	if len(free) == 0 {
		return labels.Connective{Explicit: recorded}
	}
	return labels.ConnectiveOf(free)
}

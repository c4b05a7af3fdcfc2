package labels

import "fmt"

// ValidateChain checks that the predecessor/successor links between events
// are symmetric, stay within the given set and form simple chains.
func ValidateChain(events []*EventLabel) error {
	known := make(map[*EventLabel]bool, len(events))
	for _, e := range events {
		if !IsEventName(e.Name) {
			return fmt.Errorf("%w: label %s has no cause or effect slot (%q)", ErrMalformed, e.ID, e.Name)
		}
		known[e] = true
	}

	for _, e := range events {
		if s := e.Successor; s != nil {
			if s.Origin != e || s.Target == nil {
				return fmt.Errorf("%w: successor link of %s is inconsistent", ErrMalformed, e.ID)
			}
			if !known[s.Target] {
				return fmt.Errorf("%w: successor of %s is not part of the label set", ErrMalformed, e.ID)
			}
			if s.Target.Predecessor == nil || s.Target.Predecessor.Origin != e {
				return fmt.Errorf("%w: %s -> %s is not mirrored by a predecessor link", ErrMalformed, e.ID, s.Target.ID)
			}
		}
		if p := e.Predecessor; p != nil {
			if p.Target != e || p.Origin == nil {
				return fmt.Errorf("%w: predecessor link of %s is inconsistent", ErrMalformed, e.ID)
			}
			if !known[p.Origin] {
				return fmt.Errorf("%w: predecessor of %s is not part of the label set", ErrMalformed, e.ID)
			}
			if p.Origin.Successor == nil || p.Origin.Successor.Target != e {
				return fmt.Errorf("%w: %s <- %s is not mirrored by a successor link", ErrMalformed, e.ID, p.Origin.ID)
			}
		}
	}

	// every event must be reachable from a chain start; otherwise the links form a cycle
	visited := make(map[*EventLabel]bool, len(events))
	for _, e := range events {
		if e.Predecessor != nil {
			continue
		}
		for cur := e; cur != nil; {
			if visited[cur] {
				return fmt.Errorf("%w: chain through %s is cyclic", ErrMalformed, cur.ID)
			}
			visited[cur] = true
			if cur.Successor == nil {
				break
			}
			cur = cur.Successor.Target
		}
	}
	for _, e := range events {
		if !visited[e] {
			return fmt.Errorf("%w: chain through %s is cyclic", ErrMalformed, e.ID)
		}
	}
	return nil
}

// Direction along the event chain.
type Direction int

const (
	Backward Direction = iota // towards predecessors
	Forward                   // towards successors
)

// Walk returns all events reachable from start in the given direction,
// excluding start itself, in visiting order.
func Walk(start *EventLabel, dir Direction) []*EventLabel {
	var out []*EventLabel
	seen := map[*EventLabel]bool{start: true}
	cur := start
	for {
		var next *EventLabel
		if dir == Forward && cur.Successor != nil {
			next = cur.Successor.Target
		} else if dir == Backward && cur.Predecessor != nil {
			next = cur.Predecessor.Origin
		}
		if next == nil || seen[next] {
			return out
		}
		seen[next] = true
		out = append(out, next)
		cur = next
	}
}

// ResolveExceptiveNegations finds negations that are not attached to any event
// (e.g. a recovered "unless") and marks the event immediately following each
// of them, plus every event chained to it by AND, as exceptively negated.
// Flags from earlier runs are reset first. The affected events are returned
// in the order they were marked.
func ResolveExceptiveNegations(all []Label) []*EventLabel {
	events := Events(all)
	for _, e := range events {
		e.ExceptiveNegation = false
	}

	var affected []*EventLabel
	for _, s := range SubLabels(all) {
		if s.Name != Negation || s.Parent != nil {
			continue
		}
		first := following(events, s.End)
		if first == nil {
			continue
		}
		for cur := first; cur != nil; {
			if cur.ExceptiveNegation {
				// the cascade from here has already been applied
				break
			}
			cur.ExceptiveNegation = true
			affected = append(affected, cur)
			n := cur.Successor
			if n == nil || n.Junctor != And || n.Target.IsCause() != cur.IsCause() {
				break
			}
			cur = n.Target
		}
	}
	return affected
}

// following returns the event with the smallest begin offset at or after pos.
func following(events []*EventLabel, pos int) *EventLabel {
	var best *EventLabel
	for _, e := range events {
		if e.Begin < pos {
			continue
		}
		if best == nil || e.Begin < best.Begin {
			best = e
		}
	}
	return best
}

package labels

// Equal compares two label lists structurally: the same labels by id, with
// equal spans, the same parents, children and neighbors (by id and junctor).
// Order of the lists and of the children does not matter.
func Equal(a, b []Label) bool {
	if len(a) != len(b) {
		return false
	}
	other := make(map[string]Label, len(b))
	for _, l := range b {
		other[l.Header().ID] = l
	}
	if len(other) != len(b) {
		return false
	}

	for _, l := range a {
		o, ok := other[l.Header().ID]
		if !ok || *l.Header() != *o.Header() {
			return false
		}
		switch v := l.(type) {
		case *SubLabel:
			w, ok := o.(*SubLabel)
			if !ok || idOf(v.Parent) != idOf(w.Parent) {
				return false
			}
		case *EventLabel:
			w, ok := o.(*EventLabel)
			if !ok || v.ExceptiveNegation != w.ExceptiveNegation {
				return false
			}
			if !sameChildren(v.Children, w.Children) {
				return false
			}
			if !sameNeighbor(v.Predecessor, w.Predecessor, func(n *Neighbor) *EventLabel { return n.Origin }) ||
				!sameNeighbor(v.Successor, w.Successor, func(n *Neighbor) *EventLabel { return n.Target }) {
				return false
			}
		}
	}
	return true
}

func idOf(e *EventLabel) string {
	if e == nil {
		return ""
	}
	return e.ID
}

func sameChildren(a, b []*SubLabel) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]int, len(a))
	for _, c := range a {
		ids[c.ID]++
	}
	for _, c := range b {
		if ids[c.ID] == 0 {
			return false
		}
		ids[c.ID]--
	}
	return true
}

func sameNeighbor(a, b *Neighbor, other func(*Neighbor) *EventLabel) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Junctor == b.Junctor && idOf(other(a)) == idOf(other(b))
}

package labels

import (
	"fmt"
	"regexp"

	"github.com/JulianFrattini/cira/internal/lookup"
)

// Connect attaches every sub-label to the event label whose span contains it
// and chains the event labels by begin offset. The junctor of each link is
// derived from the Conjunction/Disjunction labels between the two events;
// two adjacent parts of the same (split) event are linked with MERGE. A link
// without junctor labels keeps the junctor it already carries, so connecting
// labels read from documents is a no-op.
func Connect(all []Label) {
	events := Events(all)
	subs := SubLabels(all)

	for _, e := range events {
		for _, s := range subs {
			if s.Parent == nil && e.Contains(&s.Base) {
				e.AddChild(s)
			}
		}
	}

	SortByBegin(events)
	if len(events) < 2 {
		return
	}

	connectives := make([]Connective, 0, len(events)-1)
	for i := 0; i < len(events)-1; i++ {
		first, second := events[i], events[i+1]
		if first.Name == second.Name {
			connectives = append(connectives, Connective{Explicit: Merge})
			continue
		}
		c := ConnectiveOf(JunctorsBetween(all, &first.Base, &second.Base))
		if n := first.Successor; n != nil && n.Target == second {
			c.Explicit = n.Junctor
		}
		connectives = append(connectives, c)
	}

	junctors := FoldPrecedence(connectives)
	for i := 0; i < len(events)-1; i++ {
		events[i].SetSuccessor(events[i+1], junctors[i])
	}
}

// JunctorsBetween returns the Conjunction and Disjunction labels located
// between the end of first and the begin of second.
func JunctorsBetween(all []Label, first, second *Base) []*SubLabel {
	var out []*SubLabel
	for _, s := range SubLabels(all) {
		if IsJunctorName(s.Name) && s.Begin >= first.End && s.End <= second.Begin {
			out = append(out, s)
		}
	}
	return out
}

// Connective summarizes what connects two adjacent events: the junctor
// labels found between them and, if none were found, an explicitly recorded junctor.
type Connective struct {
	Conjunction bool
	Disjunction bool
	Explicit    Junctor
}

// ConnectiveOf classifies a set of junctor labels.
func ConnectiveOf(junctors []*SubLabel) Connective {
	var c Connective
	for _, j := range junctors {
		switch j.Name {
		case Conjunction:
			c.Conjunction = true
		case Disjunction:
			c.Disjunction = true
		}
	}
	return c
}

// FoldPrecedence maps each connective to a junctor. A pair connected by both a
// conjunction and a disjunction ("A and either B or C") is an AND that
// overrules the usual precedence: the disjunctions following it become POR
// until the next plain conjunction. Connectives without any junctor keep
// their explicit junctor (None if unknown).
func FoldPrecedence(connectives []Connective) []Junctor {
	out := make([]Junctor, len(connectives))
	overruled := false
	for i, c := range connectives {
		switch {
		case c.Conjunction && c.Disjunction:
			out[i] = And
			overruled = true
		case c.Disjunction:
			out[i] = disjunction(overruled)
		case c.Conjunction:
			out[i] = And
			overruled = false
		default:
			switch c.Explicit {
			case And:
				out[i] = And
				overruled = false
			case Or:
				out[i] = disjunction(overruled)
			default:
				out[i] = c.Explicit
			}
		}
	}
	return out
}

func disjunction(overruled bool) Junctor {
	if overruled {
		return POr
	}
	return Or
}

// exceptiveClause matches the words that open an exceptive clause.
var exceptiveClause = regexp.MustCompile(`(?i)\bunless\b`)

// RecoverExceptiveClauses returns a Negation label for every exceptive clause
// word in the sentence that has not been labeled yet. Labelers rarely see
// such clauses, but "Unless A then B" means "If not A then B".
func RecoverExceptiveClauses(sentence string, all []Label) []*SubLabel {
	var out []*SubLabel
	for index, m := range exceptiveClause.FindAllStringIndex(sentence, -1) {
		begin, end := m[0], m[1]
		if ByTypeAndPosition(all, Negation, begin, end).Match == lookup.NotFound {
			out = append(out, NewSubLabel(fmt.Sprintf("AEX%d", index), Negation, begin, end))
		}
	}
	return out
}

// Package labels models the labeled spans of a causal sentence: event labels
// (Cause1..3, Effect1..3) that own sub-labels (Variable, Condition, Negation)
// and are chained to their neighbors by junctors.
package labels

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/JulianFrattini/cira/internal/lookup"
)

// Label names produced by the labeler.
const (
	Cause       = "Cause"
	Effect      = "Effect"
	Variable    = "Variable"
	Condition   = "Condition"
	Negation    = "Negation"
	Conjunction = "Conjunction"
	Disjunction = "Disjunction"
	NotRelevant = "notrelevant"
)

// ErrMalformed marks label sets that violate the structural contract
// (dangling references, cyclic chains, unknown names).
var ErrMalformed = errors.New("malformed labels")

// Junctor is the logical connective between two neighboring events.
type Junctor string

const (
	None  Junctor = ""
	And   Junctor = "AND"
	Or    Junctor = "OR"
	POr   Junctor = "POR" // disjunction that overrules the precedence of AND
	Merge Junctor = "MERGE"
)

// IsEventName reports whether name denotes a cause or effect slot.
func IsEventName(name string) bool {
	return strings.HasPrefix(name, Cause) || strings.HasPrefix(name, Effect)
}

// IsJunctorName reports whether name denotes a conjunction or disjunction.
func IsJunctorName(name string) bool {
	return name == Conjunction || name == Disjunction
}

// Base holds the fields shared by every label.
type Base struct {
	ID    string
	Name  string
	Begin int
	End   int
}

// Header returns the shared label fields.
func (b *Base) Header() *Base { return b }

// Text returns the part of the sentence covered by the label.
func (b *Base) Text(sentence string) string {
	if b.Begin < 0 || b.End > len(sentence) || b.Begin > b.End {
		return ""
	}
	return sentence[b.Begin:b.End]
}

// Contains reports whether other lies within the span of b.
func (b *Base) Contains(other *Base) bool {
	return other.Begin >= b.Begin && other.End <= b.End
}

// SameSpan compares name and position, ignoring the id.
func (b *Base) SameSpan(other *Base) bool {
	return b.Name == other.Name && b.Begin == other.Begin && b.End == other.End
}

func (b *Base) String() string {
	return fmt.Sprintf("[%d> (%s) %s <%d]", b.Begin, b.ID, b.Name, b.End)
}

// Label is either a *SubLabel or an *EventLabel.
type Label interface {
	Header() *Base
}

// SubLabel is a second-level label (Variable, Condition, Negation, Conjunction, Disjunction).
type SubLabel struct {
	Base
	Parent *EventLabel
}

// NewSubLabel creates an unattached sub-label.
func NewSubLabel(id, name string, begin, end int) *SubLabel {
	return &SubLabel{Base: Base{ID: id, Name: name, Begin: begin, End: end}}
}

// Neighbor links two adjacent event labels.
type Neighbor struct {
	Origin  *EventLabel
	Target  *EventLabel
	Junctor Junctor
}

// EventLabel is a first-level label occupying a cause or effect slot.
type EventLabel struct {
	Base
	Children    []*SubLabel
	Predecessor *Neighbor
	Successor   *Neighbor

	// ExceptiveNegation is set when a negation outside the event's span
	// (e.g. "Unless ...") applies to it.
	ExceptiveNegation bool
}

// NewEventLabel creates an event label without children or neighbors.
func NewEventLabel(id, name string, begin, end int) *EventLabel {
	return &EventLabel{Base: Base{ID: id, Name: name, Begin: begin, End: end}}
}

// IsCause reports whether the label occupies a cause slot.
func (e *EventLabel) IsCause() bool {
	return strings.HasPrefix(e.Name, Cause)
}

// AddChild attaches a sub-label to this event.
func (e *EventLabel) AddChild(child *SubLabel) {
	e.Children = append(e.Children, child)
	child.Parent = e
}

// SetSuccessor links successor behind e; the successor's predecessor is set accordingly.
func (e *EventLabel) SetSuccessor(successor *EventLabel, junctor Junctor) {
	n := &Neighbor{Origin: e, Target: successor, Junctor: junctor}
	e.Successor = n
	successor.Predecessor = n
}

// Attribute joins the sentence text of all children named attribute.
// The second return value is false when the event has no such child.
func (e *EventLabel) Attribute(attribute, sentence string) (string, bool) {
	var parts []string
	for _, c := range e.Children {
		if c.Name == attribute {
			parts = append(parts, c.Text(sentence))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// NegationCount returns the number of Negation children.
func (e *EventLabel) NegationCount() int {
	n := 0
	for _, c := range e.Children {
		if c.Name == Negation {
			n++
		}
	}
	return n
}

// Events filters the event labels out of a label list, preserving order.
func Events(all []Label) []*EventLabel {
	var out []*EventLabel
	for _, l := range all {
		if e, ok := l.(*EventLabel); ok {
			out = append(out, e)
		}
	}
	return out
}

// SubLabels filters the sub-labels out of a label list, preserving order.
func SubLabels(all []Label) []*SubLabel {
	var out []*SubLabel
	for _, l := range all {
		if s, ok := l.(*SubLabel); ok {
			out = append(out, s)
		}
	}
	return out
}

// SortByBegin orders event labels by their begin offset.
func SortByBegin(events []*EventLabel) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Begin < events[j].Begin })
}

// ByID finds a label by its id.
func ByID(all []Label, id string) lookup.Result[Label] {
	return lookup.Find(all, func(l Label) bool { return l.Header().ID == id })
}

// ByTypeAndPosition finds a label by name and exact position.
func ByTypeAndPosition(all []Label, name string, begin, end int) lookup.Result[Label] {
	return lookup.Find(all, func(l Label) bool {
		h := l.Header()
		return h.Name == name && h.Begin == begin && h.End == end
	})
}

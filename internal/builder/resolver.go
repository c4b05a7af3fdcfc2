package builder

import (
	"strings"

	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
)

// Resolver fills in the variable and condition of an event node.
type Resolver interface {
	ResolveEvent(ev *graph.Event, sentence string)
}

// SimpleResolver takes variable and condition from the event's own labels
// and falls back to neighboring events when they are missing, e.g. the
// variable of "the button is pressed or released" for "released".
type SimpleResolver struct{}

// ResolveEvent implements Resolver. Resolving the same event twice yields the same result.
func (SimpleResolver) ResolveEvent(ev *graph.Event, sentence string) {
	if len(ev.Labels) == 0 {
		return
	}
	ev.Variable, ev.VariableAssumed = resolveAttribute(ev, labels.Variable, sentence, graph.DefaultVariable)
	ev.Condition, ev.ConditionAssumed = resolveAttribute(ev, labels.Condition, sentence, graph.DefaultCondition)
}

func resolveAttribute(ev *graph.Event, attribute, sentence, fallback string) (string, bool) {
	for i, group := range candidateGroups(ev, attribute) {
		if v := groupAttribute(group, attribute, sentence); v != "" {
			return v, i > 0
		}
	}
	return fallback, false
}

// candidateGroups lists the labels to take an attribute from, most relevant
// first: the event's own labels, then events of the same polarity in the
// preferred direction (variables are rather inherited from earlier events,
// conditions from later ones), then the events of the other polarity by
// position. Adjacent labels of one split event form one group.
func candidateGroups(ev *graph.Event, attribute string) [][]*labels.EventLabel {
	own := append([]*labels.EventLabel(nil), ev.Labels...)
	labels.SortByBegin(own)
	name := own[0].Name
	cause := own[0].IsCause()

	directions := []labels.Direction{labels.Backward, labels.Forward}
	if attribute == labels.Condition {
		directions = []labels.Direction{labels.Forward, labels.Backward}
	}

	var sequence []*labels.EventLabel
	for _, dir := range directions {
		start := own[0]
		if dir == labels.Forward {
			start = own[len(own)-1]
		}
		for _, l := range labels.Walk(start, dir) {
			if l.IsCause() == cause && l.Name != name {
				sequence = append(sequence, l)
			}
		}
	}

	var opposite []*labels.EventLabel
	for _, l := range chainOf(own[0]) {
		if l.IsCause() != cause {
			opposite = append(opposite, l)
		}
	}
	labels.SortByBegin(opposite)
	sequence = append(sequence, opposite...)

	groups := [][]*labels.EventLabel{own}
	for _, l := range sequence {
		last := groups[len(groups)-1]
		if len(groups) > 1 && last[len(last)-1].Name == l.Name {
			groups[len(groups)-1] = append(last, l)
			continue
		}
		groups = append(groups, []*labels.EventLabel{l})
	}
	return groups
}

// chainOf returns every event label linked to l, l included.
func chainOf(l *labels.EventLabel) []*labels.EventLabel {
	out := []*labels.EventLabel{l}
	out = append(out, labels.Walk(l, labels.Backward)...)
	return append(out, labels.Walk(l, labels.Forward)...)
}

// groupAttribute joins the attribute texts of a group in sentence order.
func groupAttribute(group []*labels.EventLabel, attribute, sentence string) string {
	ordered := append([]*labels.EventLabel(nil), group...)
	labels.SortByBegin(ordered)

	var parts []string
	for _, l := range ordered {
		if v, ok := l.Attribute(attribute, sentence); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

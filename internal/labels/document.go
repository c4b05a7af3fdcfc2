package labels

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// NeighborDocument references an adjacent event label by id.
type NeighborDocument struct {
	ID      string  `json:"id" yaml:"id" validate:"required"`
	Junctor Junctor `json:"junctor" yaml:"junctor"`
}

// Document is the plain form of a label. Sub-labels carry Parent; event
// labels carry Children, Predecessor and Successor.
type Document struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Name  string `json:"name" yaml:"name" validate:"required"`
	Begin int    `json:"begin" yaml:"begin" validate:"gte=0"`
	End   int    `json:"end" yaml:"end" validate:"gtefield=Begin"`

	Parent *string `json:"parent,omitempty" yaml:"parent,omitempty"`

	Children    []string          `json:"children,omitempty" yaml:"children,omitempty"`
	Predecessor *NeighborDocument `json:"predecessor,omitempty" yaml:"predecessor,omitempty"`
	Successor   *NeighborDocument `json:"successor,omitempty" yaml:"successor,omitempty"`
}

// MarshalJSON writes an unknown junctor as null.
func (j Junctor) MarshalJSON() ([]byte, error) {
	if j == None {
		return []byte("null"), nil
	}
	return json.Marshal(string(j))
}

// UnmarshalJSON accepts null as an unknown junctor.
func (j *Junctor) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("junctor: %w", err)
	}
	if s == nil {
		*j = None
		return nil
	}
	return j.parse(*s)
}

// MarshalYAML writes an unknown junctor as null.
func (j Junctor) MarshalYAML() (any, error) {
	if j == None {
		return nil, nil
	}
	return string(j), nil
}

// UnmarshalYAML accepts null as an unknown junctor.
func (j *Junctor) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*j = None
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("junctor: %w", err)
	}
	return j.parse(s)
}

func (j *Junctor) parse(s string) error {
	switch v := Junctor(s); v {
	case None, And, Or, POr, Merge:
		*j = v
		return nil
	default:
		return fmt.Errorf("%w: unknown junctor %q", ErrMalformed, s)
	}
}

// ToDocuments converts labels into their plain form, preserving order.
func ToDocuments(all []Label) []Document {
	docs := make([]Document, 0, len(all))
	for _, l := range all {
		h := l.Header()
		doc := Document{ID: h.ID, Name: h.Name, Begin: h.Begin, End: h.End}
		switch v := l.(type) {
		case *SubLabel:
			if v.Parent != nil {
				id := v.Parent.ID
				doc.Parent = &id
			}
		case *EventLabel:
			for _, c := range v.Children {
				doc.Children = append(doc.Children, c.ID)
			}
			if v.Predecessor != nil {
				doc.Predecessor = &NeighborDocument{ID: v.Predecessor.Origin.ID, Junctor: v.Predecessor.Junctor}
			}
			if v.Successor != nil {
				doc.Successor = &NeighborDocument{ID: v.Successor.Target.ID, Junctor: v.Successor.Junctor}
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

// FromDocuments rebuilds labels from their plain form. All labels are created
// first, then references are resolved by id, so documents may reference
// labels that appear later in the list. Duplicate ids, dangling references
// and inconsistent chains are reported as ErrMalformed.
func FromDocuments(docs []Document) ([]Label, error) {
	all := make([]Label, 0, len(docs))
	byID := make(map[string]Label, len(docs))
	for i := range docs {
		d := &docs[i]
		if err := validate.Struct(d); err != nil {
			return nil, fmt.Errorf("%w: label %d: %v", ErrMalformed, i, err)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate label id %s", ErrMalformed, d.ID)
		}
		var l Label
		if IsEventName(d.Name) {
			l = NewEventLabel(d.ID, d.Name, d.Begin, d.End)
		} else {
			l = NewSubLabel(d.ID, d.Name, d.Begin, d.End)
		}
		byID[d.ID] = l
		all = append(all, l)
	}

	event := func(id string) (*EventLabel, error) {
		e, ok := byID[id].(*EventLabel)
		if !ok {
			return nil, fmt.Errorf("%w: no event label with id %s", ErrMalformed, id)
		}
		return e, nil
	}

	for i := range docs {
		d := &docs[i]
		switch l := byID[d.ID].(type) {
		case *SubLabel:
			if d.Parent == nil {
				continue
			}
			parent, err := event(*d.Parent)
			if err != nil {
				return nil, fmt.Errorf("parent of %s: %w", d.ID, err)
			}
			if l.Parent != nil && l.Parent != parent {
				return nil, fmt.Errorf("%w: %s is claimed by %s and %s", ErrMalformed, d.ID, l.Parent.ID, parent.ID)
			}
			l.Parent = parent
		case *EventLabel:
			for _, cid := range d.Children {
				child, ok := byID[cid].(*SubLabel)
				if !ok {
					return nil, fmt.Errorf("%w: child %s of %s is not a sub-label", ErrMalformed, cid, d.ID)
				}
				if child.Parent != nil && child.Parent != l {
					return nil, fmt.Errorf("%w: %s is claimed by %s and %s", ErrMalformed, cid, child.Parent.ID, l.ID)
				}
				l.Children = append(l.Children, child)
				child.Parent = l
			}
			if d.Successor != nil {
				target, err := event(d.Successor.ID)
				if err != nil {
					return nil, fmt.Errorf("successor of %s: %w", d.ID, err)
				}
				l.SetSuccessor(target, d.Successor.Junctor)
			}
		}
	}

	// a parent given only on the sub-label side still owns the child
	for _, s := range SubLabels(all) {
		if s.Parent != nil && !owns(s.Parent, s) {
			s.Parent.Children = append(s.Parent.Children, s)
		}
	}

	// a predecessor without the matching successor entry is linked from this side
	for i := range docs {
		d := &docs[i]
		e, ok := byID[d.ID].(*EventLabel)
		if !ok || d.Predecessor == nil {
			continue
		}
		if e.Predecessor != nil {
			if e.Predecessor.Origin.ID != d.Predecessor.ID {
				return nil, fmt.Errorf("%w: %s lists predecessor %s but follows %s", ErrMalformed, d.ID, d.Predecessor.ID, e.Predecessor.Origin.ID)
			}
			continue
		}
		origin, err := event(d.Predecessor.ID)
		if err != nil {
			return nil, fmt.Errorf("predecessor of %s: %w", d.ID, err)
		}
		if origin.Successor != nil {
			return nil, fmt.Errorf("%w: predecessor %s of %s is followed by %s", ErrMalformed, origin.ID, d.ID, origin.Successor.Target.ID)
		}
		origin.SetSuccessor(e, d.Predecessor.Junctor)
	}

	if err := ValidateChain(Events(all)); err != nil {
		return nil, err
	}
	return all, nil
}

func owns(e *EventLabel, s *SubLabel) bool {
	for _, c := range e.Children {
		if c == s {
			return true
		}
	}
	return false
}

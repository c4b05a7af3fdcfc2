// Package lookup provides an explicit result type for id-based lookups that
// distinguishes a unique hit from a miss and from an ambiguous match.
package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no candidate matches.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguous is returned when more than one candidate matches.
	ErrAmbiguous = errors.New("ambiguous match")
)

// Match classifies the outcome of a lookup.
type Match int

const (
	NotFound Match = iota
	Unique
	Ambiguous
)

func (m Match) String() string {
	switch m {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not found"
	}
}

// Result holds the outcome of a lookup. Value is the first candidate when
// Match is Unique or Ambiguous; callers decide whether ambiguity is acceptable.
type Result[T any] struct {
	Value      T
	Match      Match
	Candidates int
}

// Find scans items and collects every element satisfying pred.
func Find[T any](items []T, pred func(T) bool) Result[T] {
	var r Result[T]
	for _, it := range items {
		if !pred(it) {
			continue
		}
		if r.Candidates == 0 {
			r.Value = it
		}
		r.Candidates++
	}
	switch {
	case r.Candidates == 1:
		r.Match = Unique
	case r.Candidates > 1:
		r.Match = Ambiguous
	}
	return r
}

// Found reports whether exactly one candidate matched.
func (r Result[T]) Found() bool {
	return r.Match == Unique
}

// Unique returns the value if exactly one candidate matched, an error otherwise.
// what names the looked-up entity in the error message.
func (r Result[T]) Unique(what string) (T, error) {
	var zero T
	switch r.Match {
	case Unique:
		return r.Value, nil
	case Ambiguous:
		return zero, fmt.Errorf("%s: %w (%d candidates)", what, ErrAmbiguous, r.Candidates)
	default:
		return zero, fmt.Errorf("%s: %w", what, ErrNotFound)
	}
}

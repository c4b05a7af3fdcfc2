// Package builder compiles the labels of a causal sentence into a cause-effect graph.
package builder

import (
	"errors"
	"fmt"

	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/logger"
)

// ErrMalformed is returned for label sets that do not describe a causal relationship.
var ErrMalformed = errors.New("malformed labels")

// Builder generates graphs from labeled sentences.
type Builder struct {
	Resolver Resolver
}

// New creates a Builder using the SimpleResolver.
func New() *Builder {
	return &Builder{Resolver: SimpleResolver{}}
}

// Generate builds the cause-effect graph of a sentence from its connected
// labels. The causes are joined by intermediate junctor nodes into a tree
// whose root feeds every effect.
func (b *Builder) Generate(sentence string, all []labels.Label) (*graph.Graph, error) {
	events := labels.Events(all)
	if err := labels.ValidateChain(events); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	g := graph.New()
	var causes, effects []graph.Ref
	for _, group := range groupByName(events) {
		ev := graph.NewEvent(group...)
		b.Resolver.ResolveEvent(ev, sentence)
		r := g.AddEvent(fmt.Sprintf("E%d", len(causes)+len(effects)), ev)
		if ev.IsCause() {
			causes = append(causes, r)
		} else {
			effects = append(effects, r)
		}
	}
	if len(causes) == 0 || len(effects) == 0 {
		return nil, fmt.Errorf("%w: need at least one cause and one effect, got %d and %d", ErrMalformed, len(causes), len(effects))
	}

	if affected := labels.ResolveExceptiveNegations(all); len(affected) > 0 {
		logger.Debug("exceptive negation", "labels", len(affected))
	}

	pairs, err := Junctors(g, causes, all)
	if err != nil {
		return nil, err
	}
	for i, p := range pairs {
		in := g.AddIntermediate(fmt.Sprintf("I%d", i), p.Junctor == labels.And, p.Junctor == labels.POr)
		for _, r := range []graph.Ref{p.First, p.Second} {
			g.AddEdge(r, in, g.Node(r).Event.EffectivelyNegated())
		}
	}

	steps, err := g.Condense()
	for _, s := range steps {
		logger.Debug("condense", "step", s.String())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	isEffect := map[graph.Ref]bool{}
	for _, r := range effects {
		isEffect[r] = true
	}
	var causal []graph.Ref
	for _, r := range g.Nodes() {
		if !isEffect[r] {
			causal = append(causal, r)
		}
	}
	root, err := g.CausalRoot(causal)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	g.Root = root

	single := len(causes) == 1 && g.Node(causes[0]).Event.EffectivelyNegated()
	for _, r := range effects {
		g.AddEdge(root, r, g.Node(r).Event.EffectivelyNegated() != single)
	}

	logger.Debug("graph generated", "graph", g.String())
	return g, nil
}

// groupByName collects the labels of every slot in order of their first occurrence.
func groupByName(events []*labels.EventLabel) [][]*labels.EventLabel {
	ordered := append([]*labels.EventLabel(nil), events...)
	labels.SortByBegin(ordered)

	index := map[string]int{}
	var groups [][]*labels.EventLabel
	for _, e := range ordered {
		i, ok := index[e.Name]
		if !ok {
			i = len(groups)
			index[e.Name] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

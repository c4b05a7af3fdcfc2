// Package cira converts causal requirement sentences into labels, a
// cause-effect graph and a test suite. Classification and labeling are
// provided by collaborators; graph generation and test derivation are
// deterministic.
package cira

import (
	"context"
	"errors"
	"fmt"

	"github.com/JulianFrattini/cira/internal/builder"
	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/testsuite"
)

var (
	// ErrNoClassifier is returned by Classify when the converter has no classifier.
	ErrNoClassifier = errors.New("no classifier configured")
	// ErrNoLabeler is returned by Label and Process when the converter has no labeler.
	ErrNoLabeler = errors.New("no labeler configured")
)

// Classifier decides whether a sentence is causal.
type Classifier interface {
	Classify(ctx context.Context, sentence string) (causal bool, confidence float64, err error)
}

// Labeler produces the labels of a sentence. The labels need not be
// connected; the converter attaches children and chains events itself.
type Labeler interface {
	Label(ctx context.Context, sentence string) ([]labels.Label, error)
}

// Converter runs the pipeline. Either collaborator may be nil when the
// corresponding step is not used.
type Converter struct {
	classifier Classifier
	labeler    Labeler
	builder    *builder.Builder
}

// New creates a converter.
func New(classifier Classifier, labeler Labeler) *Converter {
	return &Converter{
		classifier: classifier,
		labeler:    labeler,
		builder:    builder.New(),
	}
}

// WithLabeler returns a copy of the converter that labels with l.
func (c *Converter) WithLabeler(l Labeler) *Converter {
	clone := *c
	clone.labeler = l
	return &clone
}

// Classify reports whether the sentence is causal and how confident the classifier is.
func (c *Converter) Classify(ctx context.Context, sentence string) (bool, float64, error) {
	if c.classifier == nil {
		return false, 0, ErrNoClassifier
	}
	causal, confidence, err := c.classifier.Classify(ctx, sentence)
	if err != nil {
		return false, 0, fmt.Errorf("failed to classify: %w", err)
	}
	return causal, confidence, nil
}

// Label labels the sentence, recovers unlabeled exceptive clauses and
// connects the result.
func (c *Converter) Label(ctx context.Context, sentence string) ([]labels.Label, error) {
	if c.labeler == nil {
		return nil, ErrNoLabeler
	}
	all, err := c.labeler.Label(ctx, sentence)
	if err != nil {
		return nil, fmt.Errorf("failed to label: %w", err)
	}
	for _, s := range labels.RecoverExceptiveClauses(sentence, all) {
		logger.Debug("recovered exceptive clause", "id", s.ID, "begin", s.Begin)
		all = append(all, s)
	}
	labels.Connect(all)
	return all, nil
}

// Graph generates the cause-effect graph of a labeled sentence.
func (c *Converter) Graph(sentence string, all []labels.Label) (*graph.Graph, error) {
	return c.builder.Generate(sentence, all)
}

// TestSuite derives the test suite of a graph.
func (c *Converter) TestSuite(g *graph.Graph) (*testsuite.Suite, error) {
	return testsuite.Convert(g)
}

// Result is everything the pipeline derives from one sentence.
type Result struct {
	Sentence string
	Labels   []labels.Label
	Graph    *graph.Graph
	Suite    *testsuite.Suite
}

// Process labels the sentence and derives its graph and test suite. The
// sentence is not classified.
func (c *Converter) Process(ctx context.Context, sentence string) (*Result, error) {
	all, err := c.Label(ctx, sentence)
	if err != nil {
		return nil, err
	}
	g, err := c.Graph(sentence, all)
	if err != nil {
		return nil, fmt.Errorf("failed to generate graph: %w", err)
	}
	suite, err := c.TestSuite(g)
	if err != nil {
		return nil, fmt.Errorf("failed to derive test suite: %w", err)
	}
	logger.Info("processed sentence", "labels", len(all), "graph", g.String(), "cases", len(suite.Cases))
	return &Result{Sentence: sentence, Labels: all, Graph: g, Suite: suite}, nil
}

// ResultDocument is the plain form of a Result.
type ResultDocument struct {
	Sentence string            `json:"sentence" yaml:"sentence"`
	Labels   []labels.Document `json:"labels" yaml:"labels"`
	Graph    graph.Document    `json:"graph" yaml:"graph"`
	Suite    *testsuite.Suite  `json:"testsuite" yaml:"testsuite"`
}

// Document converts the result into its plain form.
func (r *Result) Document() ResultDocument {
	return ResultDocument{
		Sentence: r.Sentence,
		Labels:   labels.ToDocuments(r.Labels),
		Graph:    r.Graph.Document(),
		Suite:    r.Suite,
	}
}

package cira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/JulianFrattini/cira/internal/labels"
)

// ErrUnknownSentence is returned by DocumentLabeler for sentences it has no labels for.
var ErrUnknownSentence = errors.New("sentence not annotated")

var validate = validator.New()

// SentenceDocument is a sentence together with its labels.
type SentenceDocument struct {
	Sentence string            `json:"sentence" yaml:"sentence" validate:"required"`
	Labels   []labels.Document `json:"labels" yaml:"labels" validate:"required,min=1"`
}

// ErrEmpty is returned by Decode for blank input.
var ErrEmpty = errors.New("empty document")

// Decode unmarshals a JSON or YAML document into v. Input starting with a
// brace or bracket is read as JSON.
func Decode(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrEmpty
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return json.Unmarshal(trimmed, v)
	}
	return yaml.Unmarshal(trimmed, v)
}

// DecodeSentences reads one sentence document or a list of them, as JSON or YAML.
func DecodeSentences(data []byte) ([]SentenceDocument, error) {
	var docs []SentenceDocument
	if err := Decode(data, &docs); err != nil {
		if errors.Is(err, ErrEmpty) {
			return nil, fmt.Errorf("%w: %v", labels.ErrMalformed, err)
		}
		var single SentenceDocument
		if err := Decode(data, &single); err != nil {
			return nil, fmt.Errorf("failed to decode sentences: %w", err)
		}
		docs = []SentenceDocument{single}
	}

	for i := range docs {
		if err := validate.Struct(&docs[i]); err != nil {
			return nil, fmt.Errorf("%w: sentence %d: %v", labels.ErrMalformed, i, err)
		}
	}
	return docs, nil
}

// DocumentLabeler answers from pre-annotated sentences. It doubles as a
// Classifier that considers exactly the annotated sentences causal.
type DocumentLabeler struct {
	sentences map[string][]labels.Document
}

// NewDocumentLabeler indexes the documents by sentence; later documents
// replace earlier ones for the same sentence.
func NewDocumentLabeler(docs ...SentenceDocument) *DocumentLabeler {
	d := &DocumentLabeler{sentences: make(map[string][]labels.Document, len(docs))}
	for _, doc := range docs {
		d.sentences[doc.Sentence] = doc.Labels
	}
	return d
}

// Label rebuilds the annotated labels of the sentence.
func (d *DocumentLabeler) Label(_ context.Context, sentence string) ([]labels.Label, error) {
	docs, ok := d.sentences[sentence]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSentence, sentence)
	}
	return labels.FromDocuments(docs)
}

// Classify reports annotated sentences as causal with full confidence.
func (d *DocumentLabeler) Classify(_ context.Context, sentence string) (bool, float64, error) {
	if _, ok := d.sentences[sentence]; ok {
		return true, 1, nil
	}
	return false, 1, nil
}

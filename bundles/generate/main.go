// Command generate creates the starter .cira bundle: curated, annotated
// requirement sentences covering the constructs the converter supports.
// Teams can import it via `cira import <file.cira>`.
//
// Usage:
//
//	go run ./bundles/generate [output directory]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JulianFrattini/cira/internal/bundle"
	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/store"
)

// StarterFile is the file name of the generated bundle.
const StarterFile = "starter-requirements.cira"

func main() {
	outputDir := "bundles"
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}

	path, count, err := generate(context.Background(), outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d requirements)\n", path, count)
}

// generate processes the starter sentences and packages them into outputDir.
func generate(ctx context.Context, outputDir string) (string, int, error) {
	docs := starterSentences()
	labeler := cira.NewDocumentLabeler(docs...)
	converter := cira.New(labeler, labeler)

	records := make([]store.Record, 0, len(docs))
	for i, doc := range docs {
		result, err := converter.Process(ctx, doc.Sentence)
		if err != nil {
			return "", 0, fmt.Errorf("%q: %w", doc.Sentence, err)
		}
		r := store.NewRecord(result)
		r.ID = fmt.Sprintf("starter-%02d", i+1)
		r.CreatedAt = time.Now().UTC()
		records = append(records, r)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	manifest := bundle.Manifest{
		ID:          "starter-requirements-v1",
		Name:        "Starter Requirements",
		Description: "Annotated causal requirements: single causes, junctor precedence, negation and exceptive clauses.",
		Author:      "cira",
		CreatedAt:   time.Now().UTC(),
	}
	path := filepath.Join(outputDir, StarterFile)
	if err := bundle.Package(manifest, records, path); err != nil {
		return "", 0, err
	}
	return path, len(records), nil
}

func lbl(id, name string, begin, end int) labels.Document {
	return labels.Document{ID: id, Name: name, Begin: begin, End: end}
}

func starterSentences() []cira.SentenceDocument {
	return []cira.SentenceDocument{
		{
			Sentence: "If the button is pressed then the system shuts down.",
			Labels: []labels.Document{
				lbl("L1", "Cause1", 3, 24),
				lbl("L2", labels.Variable, 3, 13),
				lbl("L3", labels.Condition, 14, 24),
				lbl("L4", "Effect1", 30, 51),
				lbl("L5", labels.Variable, 30, 40),
				lbl("L6", labels.Condition, 41, 51),
			},
		},
		{
			Sentence: "If an error is present or the debugger is active and an exception is triggered then a log entry is written.",
			Labels: []labels.Document{
				lbl("L1", "Cause1", 3, 22),
				lbl("L2", labels.Variable, 3, 11),
				lbl("L3", labels.Condition, 12, 22),
				lbl("L4", labels.Disjunction, 23, 25),
				lbl("L5", "Cause2", 26, 48),
				lbl("L6", labels.Variable, 26, 38),
				lbl("L7", labels.Condition, 39, 48),
				lbl("L8", labels.Conjunction, 49, 52),
				lbl("L9", "Cause3", 53, 78),
				lbl("L10", labels.Variable, 53, 65),
				lbl("L11", labels.Condition, 66, 78),
				lbl("L12", "Effect1", 84, 106),
				lbl("L13", labels.Variable, 84, 95),
				lbl("L14", labels.Condition, 96, 106),
			},
		},
		{
			Sentence: "If A and either B or C then D.",
			Labels: []labels.Document{
				lbl("L1", "Cause1", 3, 4),
				lbl("L2", labels.Variable, 3, 4),
				lbl("L3", labels.Conjunction, 5, 8),
				lbl("L4", labels.Disjunction, 9, 15),
				lbl("L5", "Cause2", 16, 17),
				lbl("L6", labels.Variable, 16, 17),
				lbl("L7", labels.Disjunction, 18, 20),
				lbl("L8", "Cause3", 21, 22),
				lbl("L9", labels.Variable, 21, 22),
				lbl("L10", "Effect1", 28, 29),
				lbl("L11", labels.Variable, 28, 29),
			},
		},
		{
			Sentence: "If the button is not pressed the system shuts down.",
			Labels: []labels.Document{
				lbl("L1", "Cause1", 3, 28),
				lbl("L2", labels.Variable, 3, 13),
				lbl("L3", labels.Condition, 14, 28),
				lbl("L4", labels.Negation, 17, 20),
				lbl("L5", "Effect1", 29, 50),
				lbl("L6", labels.Variable, 29, 39),
				lbl("L7", labels.Condition, 40, 50),
			},
		},
		{
			Sentence: "Unless the door is closed the light is on.",
			Labels: []labels.Document{
				lbl("L1", "Cause1", 7, 25),
				lbl("L2", labels.Variable, 7, 15),
				lbl("L3", labels.Condition, 16, 25),
				lbl("L4", "Effect1", 26, 41),
				lbl("L5", labels.Variable, 26, 35),
				lbl("L6", labels.Condition, 36, 41),
			},
		},
	}
}

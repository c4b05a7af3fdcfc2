// Package cue detects causal cue phrases ("if", "unless", "because", ...) in
// requirement sentences. Its Classifier is a lightweight stand-in for the
// neural sentence classifier.
package cue

import (
	"context"
	"regexp"
	"strings"
)

// Cue is one causal cue found in a sentence.
type Cue struct {
	Name   string  `json:"name" yaml:"name"`
	Clause string  `json:"clause" yaml:"clause"` // the clause introduced by the cue
	Match  string  `json:"match" yaml:"match"`   // the full matched snippet
	Weight float64 `json:"weight" yaml:"weight"`
}

// cuePatterns match causal language; the capture group is the introduced clause.
var cuePatterns = []struct {
	re     *regexp.Regexp
	name   string
	weight float64
}{
	{regexp.MustCompile(`(?i)\bif\s+(.+?)\s*,?\s+then\b`), "if_then", 0.95},
	{regexp.MustCompile(`(?i)\bunless\s+(.+?)(?:,|\.|;|$)`), "unless", 0.9},
	{regexp.MustCompile(`(?i)\b(?:if|in\s+case)\s+(.+?)(?:,|\.|;|$)`), "if", 0.85},
	{regexp.MustCompile(`(?i)\b(?:provided|given)\s+that\s+(.+?)(?:,|\.|;|$)`), "provided_that", 0.85},
	{regexp.MustCompile(`(?i)\bas\s+long\s+as\s+(.+?)(?:,|\.|;|$)`), "as_long_as", 0.8},
	{regexp.MustCompile(`(?i)\bwhen(?:ever)?\s+(.+?)(?:,|\.|;|$)`), "when", 0.75},
	{regexp.MustCompile(`(?i)\bbecause(?:\s+of)?\s+(.+?)(?:\.|,|;|$)`), "because", 0.75},
	{regexp.MustCompile(`(?i)\bdue\s+to\s+(.+?)(?:\.|,|;|$)`), "due_to", 0.7},
	{regexp.MustCompile(`(?i)\bcaused\s+by\s+(.+?)(?:\.|,|;|$)`), "caused_by", 0.7},
	{regexp.MustCompile(`(?i)\b(?:leads?|led)\s+to\s+(.+?)(?:\.|,|;|$)`), "leads_to", 0.7},
	{regexp.MustCompile(`(?i)\bresults?\s+in\s+(.+?)(?:\.|,|;|$)`), "results_in", 0.7},
	{regexp.MustCompile(`(?i)\b(?:after|once)\s+(.+?)(?:,|\.|;|$)`), "after", 0.6},
}

const maxClauseLen = 200
const minClauseLen = 1

// Find returns the causal cues of a sentence in pattern order. A clause is
// reported once, by the first pattern that captures it.
func Find(sentence string) []Cue {
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []Cue
	for _, p := range cuePatterns {
		for _, m := range p.re.FindAllStringSubmatch(sentence, -1) {
			if len(m) < 2 {
				continue
			}
			clause := truncate(m[1], maxClauseLen)
			if len(clause) < minClauseLen {
				continue
			}
			key := strings.ToLower(clause)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Cue{Name: p.name, Clause: clause, Match: strings.TrimSpace(m[0]), Weight: p.weight})
		}
	}
	return out
}

// Classifier considers a sentence causal if it carries at least one cue.
type Classifier struct{}

// Classify reports whether the sentence is causal. The confidence is the
// weight of the strongest cue, or 0.5 when no cue was found.
func (Classifier) Classify(_ context.Context, sentence string) (bool, float64, error) {
	cues := Find(sentence)
	if len(cues) == 0 {
		return false, 0.5, nil
	}
	best := 0.0
	for _, c := range cues {
		if c.Weight > best {
			best = c.Weight
		}
	}
	return true, best, nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max]
}

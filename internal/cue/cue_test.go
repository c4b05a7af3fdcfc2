package cue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_empty(t *testing.T) {
	assert.Nil(t, Find(""))
	assert.Nil(t, Find("   "))
}

func TestFind_ifThen(t *testing.T) {
	cues := Find("If the button is pressed then the system shuts down.")
	require.NotEmpty(t, cues)
	assert.Equal(t, "if_then", cues[0].Name)
	assert.Equal(t, "the button is pressed", cues[0].Clause)
	assert.Equal(t, "If the button is pressed then", cues[0].Match)
}

func TestFind_dedup(t *testing.T) {
	cues := Find("If A, then B.")
	require.Len(t, cues, 1)
	assert.Equal(t, "if_then", cues[0].Name)
	assert.Equal(t, "A", cues[0].Clause)
}

func TestFind_patterns(t *testing.T) {
	tests := []struct {
		sentence string
		name     string
		clause   string
	}{
		{"Unless the door is closed the light is on.", "unless", "the door is closed the light is on"},
		{"The outage was caused by a faulty disk.", "caused_by", "a faulty disk"},
		{"The alarm sounds as long as the door is open.", "as_long_as", "the door is open"},
		{"A refund is issued provided that the order was paid.", "provided_that", "the order was paid"},
		{"The job fails due to a timeout.", "due_to", "a timeout"},
		{"A missing token results in a rejected request.", "results_in", "a rejected request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var found *Cue
			cues := Find(tt.sentence)
			for i := range cues {
				if cues[i].Name == tt.name {
					found = &cues[i]
				}
			}
			require.NotNil(t, found, "cues: %v", cues)
			assert.Equal(t, tt.clause, found.Clause)
		})
	}
}

func TestFind_truncate(t *testing.T) {
	long := "because " + strings.Repeat("word ", 300)
	for _, c := range Find(long) {
		assert.LessOrEqual(t, len(c.Clause), maxClauseLen)
	}
}

func Test_truncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"longer than ten", 10, "longer tha"},
		{"  trimmed  ", 5, "trimm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.s, tt.max))
	}
}

func TestClassifier_Classify(t *testing.T) {
	ctx := context.Background()

	causal, confidence, err := Classifier{}.Classify(ctx, "If the button is pressed then the system shuts down.")
	require.NoError(t, err)
	assert.True(t, causal)
	assert.InDelta(t, 0.95, confidence, 1e-9)

	causal, confidence, err = Classifier{}.Classify(ctx, "The system shall log all events.")
	require.NoError(t, err)
	assert.False(t, causal)
	assert.InDelta(t, 0.5, confidence, 1e-9)
}

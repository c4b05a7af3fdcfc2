package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/store"
	"github.com/JulianFrattini/cira/internal/testsuite"
)

const buttonExpression = "[the button].(is pressed) ===> [the system].(shuts down)"

func TestGraphCmd_json(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "graph", writeFile(t, "button.json", buttonDocument))
	require.NoError(t, err)

	var doc graph.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	g, err := graph.FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, buttonExpression, g.String())
}

func TestGraphCmd_yaml(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "graph", writeFile(t, "button.json", buttonDocument), "--format", "yaml")
	require.NoError(t, err)

	var doc graph.Document
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Edges, 1)
}

func TestGraphCmd_expression(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "graph", writeFile(t, "button.json", buttonDocument), "-e")
	require.NoError(t, err)
	assert.Equal(t, buttonExpression+"\n", out)
}

func TestGraphCmd_severalSentences(t *testing.T) {
	setupDataDir(t)
	input := "[" + buttonDocument + "]"
	out, err := execute(t, input, "graph", "-")
	require.NoError(t, err)

	var docs []graph.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 1)
}

func TestGraphCmd_errors(t *testing.T) {
	setupDataDir(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"graph", "does-not-exist.json"}},
		{name: "no arguments", args: []string{"graph"}},
		{name: "no labels", args: []string{"graph", writeFile(t, "empty.yaml", "sentence: If A then B.\nlabels: []\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestTestSuiteCmd_stdin(t *testing.T) {
	setupDataDir(t)
	graphOut, err := execute(t, "", "graph", writeFile(t, "button.json", buttonDocument))
	require.NoError(t, err)

	out, err := execute(t, graphOut, "testsuite", "-")
	require.NoError(t, err)

	var suite testsuite.Suite
	require.NoError(t, json.Unmarshal([]byte(out), &suite))
	require.Len(t, suite.Conditions, 1)
	require.Len(t, suite.Expected, 1)
	assert.Equal(t, "the button", suite.Conditions[0].Variable)
	assert.Equal(t, []testsuite.Case{
		{"P0": true, "P1": true},
		{"P0": false, "P1": false},
	}, suite.Cases)
}

func TestTestSuiteCmd_malformedGraph(t *testing.T) {
	setupDataDir(t)
	_, err := execute(t, `{"nodes": [], "edges": []}`, "testsuite", "-")
	assert.ErrorIs(t, err, graph.ErrMalformed)
}

func TestTestSuiteCmd_cyclicGraph(t *testing.T) {
	setupDataDir(t)
	cyclic := `{
  "nodes": [
    {"id": "E0", "variable": "A", "condition": "is present"},
    {"id": "E1", "variable": "B", "condition": "is present"},
    {"id": "I0", "conjunction": true},
    {"id": "I1", "conjunction": false}
  ],
  "root": "I0",
  "edges": [
    {"origin": "E0", "target": "I0"},
    {"origin": "I1", "target": "I0"},
    {"origin": "I0", "target": "I1"},
    {"origin": "I0", "target": "E1"}
  ]
}`
	_, err := execute(t, cyclic, "testsuite", "-")
	assert.ErrorIs(t, err, graph.ErrMalformed)
}

func TestProcessCmd(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "process", writeFile(t, "or.yaml", orDocument), "--format", "yaml")
	require.NoError(t, err)

	var doc cira.ResultDocument
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "If A or B then C.", doc.Sentence)
	assert.Len(t, doc.Labels, 4)
	require.NotNil(t, doc.Suite)
	assert.Len(t, doc.Suite.Conditions, 2)
	assert.NotEmpty(t, doc.Suite.Cases)

	status, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Requirements: 0")
}

func TestProcessCmd_save(t *testing.T) {
	setupDataDir(t)
	path := writeFile(t, "button.json", buttonDocument)

	out, err := execute(t, "", "process", path, "--save")
	require.NoError(t, err)
	var first store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.NotEmpty(t, first.ID)
	assert.Len(t, first.Suite.Cases, 2)

	out, err = execute(t, "", "process", path, "--save")
	require.NoError(t, err)
	var second store.Record
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, first.ID, second.ID)

	status, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, status, "Total Requirements: 1")
}

func TestClassifyCmd(t *testing.T) {
	setupDataDir(t)
	out, err := execute(t, "", "classify", "Unless the door is closed the light is on.")
	require.NoError(t, err)

	var result classification
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Causal)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	require.Len(t, result.Cues, 1)
	assert.Equal(t, "unless", result.Cues[0].Name)

	out, err = execute(t, "", "classify", "The", "system", "logs", "events.")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "The system logs events.", result.Sentence)
	assert.False(t, result.Causal)
	assert.Empty(t, result.Cues)
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/cue"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/store"
)

const buttonSentence = "If the button is pressed then the system shuts down."

func strptr(s string) *string { return &s }

func buttonLabels() []labels.Document {
	return []labels.Document{
		{ID: "L1", Name: "Cause1", Begin: 3, End: 24},
		{ID: "L2", Name: labels.Variable, Begin: 3, End: 13, Parent: strptr("L1")},
		{ID: "L3", Name: labels.Condition, Begin: 14, End: 24, Parent: strptr("L1")},
		{ID: "L4", Name: "Effect1", Begin: 30, End: 51},
		{ID: "L5", Name: labels.Variable, Begin: 30, End: 40, Parent: strptr("L4")},
		{ID: "L6", Name: labels.Condition, Begin: 41, End: 51, Parent: strptr("L4")},
	}
}

// setupTestServer creates a server with a temporary store whose labeler
// knows the button sentence. Responses are written to the returned buffer.
func setupTestServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()

	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	labeler := cira.NewDocumentLabeler(cira.SentenceDocument{Sentence: buttonSentence, Labels: buttonLabels()})
	out := &bytes.Buffer{}
	return NewServer(st, cira.New(labeler, labeler), strings.NewReader(""), out), out
}

// call sends one request and decodes the single response line.
func call(t *testing.T, s *Server, out *bytes.Buffer, method string, params interface{}) JSONRPCResponse {
	t.Helper()
	out.Reset()

	req := &JSONRPCRequest{JSONRPC: "2.0", ID: 1, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = raw
	}
	s.handleRequest(context.Background(), req)

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
	return resp
}

// toolText calls a tool and returns the text content and the error flag.
func toolText(t *testing.T, s *Server, out *bytes.Buffer, name string, args interface{}) (string, bool) {
	t.Helper()
	resp := call(t, s, out, "tools/call", map[string]interface{}{"name": name, "arguments": args})
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]interface{})
	require.Len(t, content, 1)
	isError, _ := result["isError"].(bool)
	return content[0].(map[string]interface{})["text"].(string), isError
}

func TestHandleInitialize(t *testing.T) {
	s, out := setupTestServer(t)
	resp := call(t, s, out, "initialize", nil)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "cira-mcp", info["name"])
}

func TestHandleToolsList(t *testing.T) {
	s, out := setupTestServer(t)
	resp := call(t, s, out, "tools/list", nil)
	require.Nil(t, resp.Error)

	var names []string
	for _, tool := range resp.Result.(map[string]interface{})["tools"].([]interface{}) {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"classify", "graph", "testsuite", "process", "history", "forget"}, names)
}

func TestUnknownMethod(t *testing.T) {
	s, out := setupTestServer(t)
	resp := call(t, s, out, "prompts/list", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestToolCall_invalid(t *testing.T) {
	s, out := setupTestServer(t)

	resp := call(t, s, out, "tools/call", map[string]interface{}{"name": "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = call(t, s, out, "tools/call", map[string]interface{}{"name": "graph", "arguments": map[string]interface{}{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = call(t, s, out, "tools/call", map[string]interface{}{"name": "graph", "arguments": map[string]interface{}{"sentence": 42}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)

	resp = call(t, s, out, "tools/call", map[string]interface{}{"name": "testsuite"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestToolClassify(t *testing.T) {
	s, out := setupTestServer(t)

	text, isError := toolText(t, s, out, "classify", map[string]interface{}{"sentence": buttonSentence})
	require.False(t, isError, text)

	var result struct {
		Causal     bool      `json:"causal"`
		Confidence float64   `json:"confidence"`
		Cues       []cue.Cue `json:"cues"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.True(t, result.Causal)
	assert.Equal(t, 1.0, result.Confidence)
	require.NotEmpty(t, result.Cues)
	assert.Equal(t, "if_then", result.Cues[0].Name)

	text, isError = toolText(t, s, out, "classify", map[string]interface{}{"sentence": "The system logs all events."})
	require.False(t, isError, text)
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.False(t, result.Causal)
	assert.Empty(t, result.Cues)

	resp := call(t, s, out, "tools/call", map[string]interface{}{"name": "classify", "arguments": map[string]interface{}{}})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestToolGraph(t *testing.T) {
	s, out := setupTestServer(t)

	text, isError := toolText(t, s, out, "graph", map[string]interface{}{"sentence": buttonSentence})
	require.False(t, isError, text)

	var result struct {
		Expression string `json:"expression"`
		Graph      struct {
			Root  string        `json:"root"`
			Nodes []interface{} `json:"nodes"`
		} `json:"graph"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "[the button].(is pressed) ===> [the system].(shuts down)", result.Expression)
	assert.Equal(t, "E0", result.Graph.Root)
	assert.Len(t, result.Graph.Nodes, 2)
}

func TestToolGraph_inlineLabels(t *testing.T) {
	s, out := setupTestServer(t)
	sentence := "If A or B then C."
	args := map[string]interface{}{
		"sentence": sentence,
		"labels": []labels.Document{
			{ID: "L1", Name: "Cause1", Begin: 3, End: 4},
			{ID: "L2", Name: labels.Disjunction, Begin: 5, End: 7},
			{ID: "L3", Name: "Cause2", Begin: 8, End: 9},
			{ID: "L4", Name: "Effect1", Begin: 15, End: 16},
		},
	}

	text, isError := toolText(t, s, out, "graph", args)
	require.False(t, isError, text)
	var result struct {
		Expression string `json:"expression"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "([it].(is present) || [it].(is present)) ===> [it].(is present)", result.Expression)
}

func TestToolGraph_unknownSentence(t *testing.T) {
	s, out := setupTestServer(t)
	text, isError := toolText(t, s, out, "graph", map[string]interface{}{"sentence": "The sky is blue."})
	assert.True(t, isError)
	assert.Contains(t, text, "not annotated")
}

func TestToolTestSuite(t *testing.T) {
	s, out := setupTestServer(t)
	doc := map[string]interface{}{
		"nodes": []map[string]interface{}{
			{"id": "E0", "variable": "the button", "condition": "is pressed"},
			{"id": "E1", "variable": "the system", "condition": "shuts down"},
		},
		"root":  "E0",
		"edges": []map[string]interface{}{{"origin": "E0", "target": "E1", "negated": true}},
	}

	text, isError := toolText(t, s, out, "testsuite", map[string]interface{}{"graph": doc})
	require.False(t, isError, text)

	var suite struct {
		Conditions []map[string]string `json:"conditions"`
		Cases      []map[string]bool   `json:"cases"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &suite))
	require.Len(t, suite.Conditions, 1)
	assert.Equal(t, []map[string]bool{{"P0": true, "P1": false}, {"P0": false, "P1": true}}, suite.Cases)

	text, isError = toolText(t, s, out, "testsuite", map[string]interface{}{"graph": map[string]interface{}{"nodes": []interface{}{}, "root": "X"}})
	assert.True(t, isError, text)

	doc["edges"] = []map[string]interface{}{
		{"origin": "E0", "target": "E1", "negated": false},
		{"origin": "E1", "target": "E0", "negated": false},
	}
	text, isError = toolText(t, s, out, "testsuite", map[string]interface{}{"graph": doc})
	assert.True(t, isError, text)
	assert.Contains(t, text, "malformed graph document")
}

func TestToolProcess_saveAndHistory(t *testing.T) {
	s, out := setupTestServer(t)

	text, isError := toolText(t, s, out, "process", map[string]interface{}{"sentence": buttonSentence})
	require.False(t, isError, text)
	assert.Contains(t, text, `"testsuite"`)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRequirements, "not saved without save flag")
	assert.Equal(t, "never", stats.LastActivity)

	text, isError = toolText(t, s, out, "process", map[string]interface{}{"sentence": buttonSentence, "save": true})
	require.False(t, isError, text)
	var saved store.Record
	require.NoError(t, json.Unmarshal([]byte(text), &saved))
	require.NotEmpty(t, saved.ID)
	assert.Len(t, saved.Suite.Cases, 2)

	text, isError = toolText(t, s, out, "history", nil)
	require.False(t, isError, text)
	var list []summary
	require.NoError(t, json.Unmarshal([]byte(text), &list))
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Cases)

	text, isError = toolText(t, s, out, "history", map[string]interface{}{"id": saved.ID})
	require.False(t, isError, text)
	assert.Contains(t, text, buttonSentence)

	text, isError = toolText(t, s, out, "forget", map[string]interface{}{"id": saved.ID})
	require.False(t, isError, text)

	text, isError = toolText(t, s, out, "history", map[string]interface{}{"id": saved.ID})
	assert.True(t, isError, text)
	assert.Contains(t, text, "not found")
}

func TestResources(t *testing.T) {
	s, out := setupTestServer(t)

	resp := call(t, s, out, "resources/list", nil)
	require.Nil(t, resp.Error)
	assert.Len(t, resp.Result.(map[string]interface{})["resources"], 2)

	resp = call(t, s, out, "resources/read", map[string]string{"uri": "cira://requirements/stats"})
	require.Nil(t, resp.Error)
	contents := resp.Result.(map[string]interface{})["contents"].([]interface{})
	assert.Contains(t, contents[0].(map[string]interface{})["text"], `"total_requirements": 0`)

	resp = call(t, s, out, "resources/read", map[string]string{"uri": "cira://nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestStart(t *testing.T) {
	st, err := store.New(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n")
	out := &bytes.Buffer{}
	s := NewServer(st, cira.New(nil, nil), strings.NewReader(in), out)
	require.NoError(t, s.Start(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var parseErr JSONRPCResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &parseErr))
	require.NotNil(t, parseErr.Error)
	assert.Equal(t, codeParseError, parseErr.Error.Code)
}

func TestNoStore(t *testing.T) {
	out := &bytes.Buffer{}
	s := NewServer(nil, cira.New(nil, nil), strings.NewReader(""), out)

	text, isError := toolText(t, s, out, "history", nil)
	assert.True(t, isError)
	assert.Contains(t, text, "no requirement store")

	resp := call(t, s, out, "resources/read", map[string]string{"uri": "cira://requirements/recent"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInternalError, resp.Error.Code)
}

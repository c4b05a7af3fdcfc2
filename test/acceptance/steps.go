package acceptance

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cucumber/godog"

	"github.com/JulianFrattini/cira/internal/bundle"
	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/mcp"
	"github.com/JulianFrattini/cira/internal/store"
	"github.com/JulianFrattini/cira/internal/testsuite"
)

// TestContext holds state between steps
type TestContext struct {
	ctx     context.Context
	dataDir string
	store   *store.Store

	sentence string
	labels   []labels.Document

	result     *cira.Result
	processErr error

	// MCP state
	serverRunning bool
	lastResponse  map[string]interface{}
	requestID     int
}

func newTestContext() *TestContext {
	return &TestContext{ctx: context.Background()}
}

// cleanup closes the store and removes the scenario's data directory.
func (tc *TestContext) cleanup() {
	if tc.store != nil {
		tc.store.Close()
		tc.store = nil
	}
	if tc.dataDir != "" {
		os.RemoveAll(tc.dataDir)
		tc.dataDir = ""
	}
}

// openStore lazily opens the scenario's requirement store.
func (tc *TestContext) openStore() (*store.Store, error) {
	if tc.store != nil {
		return tc.store, nil
	}
	if tc.dataDir == "" {
		dir, err := os.MkdirTemp("", "cira-test-*")
		if err != nil {
			return nil, err
		}
		tc.dataDir = dir
	}
	st, err := store.New(filepath.Join(tc.dataDir, "store"))
	if err != nil {
		return nil, err
	}
	tc.store = st
	return st, nil
}

// path resolves a file name inside the scenario's data directory.
func (tc *TestContext) path(name string) (string, error) {
	if _, err := tc.openStore(); err != nil {
		return "", err
	}
	return filepath.Join(tc.dataDir, name), nil
}

func (tc *TestContext) converter() *cira.Converter {
	labeler := cira.NewDocumentLabeler(cira.SentenceDocument{Sentence: tc.sentence, Labels: tc.labels})
	return cira.New(labeler, labeler)
}

// Conversion steps

func (tc *TestContext) theSentence(sentence string) error {
	tc.sentence = sentence
	return nil
}

func (tc *TestContext) theSentenceIsLabeled(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("label table needs a header and at least one row")
	}

	columns := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		columns[cell.Value] = i
	}
	for _, name := range []string{"id", "name", "begin", "end"} {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("label table misses column %q", name)
		}
	}

	tc.labels = nil
	for _, row := range table.Rows[1:] {
		cell := func(name string) string { return row.Cells[columns[name]].Value }
		begin, err := strconv.Atoi(cell("begin"))
		if err != nil {
			return fmt.Errorf("begin of %s: %w", cell("id"), err)
		}
		end, err := strconv.Atoi(cell("end"))
		if err != nil {
			return fmt.Errorf("end of %s: %w", cell("id"), err)
		}
		tc.labels = append(tc.labels, labels.Document{ID: cell("id"), Name: cell("name"), Begin: begin, End: end})
	}
	return nil
}

func (tc *TestContext) processTheSentence() error {
	tc.result, tc.processErr = tc.converter().Process(tc.ctx, tc.sentence)
	return nil
}

func (tc *TestContext) processed() error {
	if tc.processErr != nil {
		return fmt.Errorf("processing failed: %w", tc.processErr)
	}
	if tc.result == nil {
		return fmt.Errorf("the sentence was not processed")
	}
	return nil
}

func (tc *TestContext) graphExpressionShouldBe(expected string) error {
	if err := tc.processed(); err != nil {
		return err
	}
	if got := tc.result.Graph.String(); got != expected {
		return fmt.Errorf("expected expression %q, got %q", expected, got)
	}
	return nil
}

func sameVariables(kind string, expected string, got []string) error {
	want := strings.Split(expected, ",")
	for i := range want {
		want[i] = strings.TrimSpace(want[i])
	}
	if len(want) != len(got) {
		return fmt.Errorf("expected %s %v, got %v", kind, want, got)
	}
	remaining := map[string]int{}
	for _, v := range got {
		remaining[v]++
	}
	for _, v := range want {
		if remaining[v] == 0 {
			return fmt.Errorf("expected %s %v, got %v", kind, want, got)
		}
		remaining[v]--
	}
	return nil
}

func (tc *TestContext) suiteConditions(expected string) error {
	if err := tc.processed(); err != nil {
		return err
	}
	var got []string
	for _, p := range tc.result.Suite.Conditions {
		got = append(got, p.Variable)
	}
	return sameVariables("conditions", expected, got)
}

func (tc *TestContext) suiteExpected(expected string) error {
	if err := tc.processed(); err != nil {
		return err
	}
	var got []string
	for _, p := range tc.result.Suite.Expected {
		got = append(got, p.Variable)
	}
	return sameVariables("expected outcomes", expected, got)
}

func (tc *TestContext) suiteCaseCount(count int) error {
	if err := tc.processed(); err != nil {
		return err
	}
	if got := len(tc.result.Suite.Cases); got != count {
		return fmt.Errorf("expected %d test cases, got %d", count, got)
	}
	return nil
}

func ids(params []testsuite.Parameter) []string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		out = append(out, p.ID)
	}
	return out
}

func (tc *TestContext) everyCaseAssignsAllParameters() error {
	if err := tc.processed(); err != nil {
		return err
	}
	suite := tc.result.Suite
	if len(suite.Cases) == 0 {
		return fmt.Errorf("test suite has no cases")
	}
	params := append(append([]string{}, ids(suite.Conditions)...), ids(suite.Expected)...)
	for i, c := range suite.Cases {
		if len(c) != len(params) {
			return fmt.Errorf("case %d assigns %d of %d parameters", i, len(c), len(params))
		}
		for _, id := range params {
			if _, ok := c[id]; !ok {
				return fmt.Errorf("case %d misses parameter %s", i, id)
			}
		}
	}
	return nil
}

func (tc *TestContext) processingShouldFail() error {
	if tc.processErr == nil {
		return fmt.Errorf("expected processing to fail, got %q", tc.result.Graph.String())
	}
	return nil
}

// History and bundle steps

func (tc *TestContext) processAndSave() error {
	if err := tc.processTheSentence(); err != nil {
		return err
	}
	if err := tc.processed(); err != nil {
		return err
	}
	st, err := tc.openStore()
	if err != nil {
		return err
	}
	_, err = st.Save(tc.ctx, store.NewRecord(tc.result))
	return err
}

func (tc *TestContext) storeShouldHold(count int) error {
	st, err := tc.openStore()
	if err != nil {
		return err
	}
	got, err := st.Count(tc.ctx)
	if err != nil {
		return err
	}
	if got != count {
		return fmt.Errorf("expected %d stored requirements, got %d", count, got)
	}
	return nil
}

func (tc *TestContext) exportTo(name string) error {
	st, err := tc.openStore()
	if err != nil {
		return err
	}
	path, err := tc.path(name)
	if err != nil {
		return err
	}
	stored, err := st.List(tc.ctx, 0)
	if err != nil {
		return err
	}
	records := make([]store.Record, 0, len(stored))
	for _, r := range stored {
		records = append(records, *r)
	}
	manifest, err := bundle.NewManifest(strings.TrimSuffix(name, ".cira"), records)
	if err != nil {
		return err
	}
	return bundle.Package(manifest, records, path)
}

func (tc *TestContext) bundleShouldContain(name string, count int) error {
	path, err := tc.path(name)
	if err != nil {
		return err
	}
	manifest, err := bundle.Inspect(path)
	if err != nil {
		return err
	}
	if manifest.RequirementCount != count {
		return fmt.Errorf("expected %d requirements in manifest, got %d", count, manifest.RequirementCount)
	}
	return nil
}

// importInto adds the requirements of a bundle to the store in dir.
func (tc *TestContext) importInto(dir, name string) (int, error) {
	path, err := tc.path(name)
	if err != nil {
		return 0, err
	}
	payload, err := bundle.Unpack(path)
	if err != nil {
		return 0, err
	}
	st, err := store.New(dir)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	added := 0
	for _, r := range payload.Requirements {
		ok, err := st.Add(tc.ctx, r)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (tc *TestContext) freshStoreDir() (string, error) {
	if _, err := tc.openStore(); err != nil {
		return "", err
	}
	return filepath.Join(tc.dataDir, "fresh"), nil
}

func (tc *TestContext) importShouldAdd(name string, count int) error {
	dir, err := tc.freshStoreDir()
	if err != nil {
		return err
	}
	added, err := tc.importInto(dir, name)
	if err != nil {
		return err
	}
	if added != count {
		return fmt.Errorf("expected %d imported requirements, got %d", count, added)
	}
	return nil
}

func (tc *TestContext) invalidBundle(name string) error {
	path, err := tc.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte("this is not a bundle"), 0600)
}

func (tc *TestContext) importShouldFailWithInvalidFormat(name string) error {
	dir, err := tc.freshStoreDir()
	if err != nil {
		return err
	}
	_, err = tc.importInto(dir, name)
	if !errors.Is(err, bundle.ErrFormat) {
		return fmt.Errorf("expected an invalid format error, got %v", err)
	}
	return nil
}

// MCP steps

func (tc *TestContext) mcpServerRunning() error {
	if _, err := tc.openStore(); err != nil {
		return err
	}
	tc.serverRunning = true
	return nil
}

// sendRequest runs one request through a server on the scenario's store.
func (tc *TestContext) sendRequest(method string, params interface{}) error {
	if !tc.serverRunning {
		return fmt.Errorf("MCP server not running")
	}
	tc.requestID++
	request := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      tc.requestID,
		"method":  method,
	}
	if params != nil {
		request["params"] = params
	}
	line, err := json.Marshal(request)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	server := mcp.NewServer(tc.store, cira.New(nil, cira.NewDocumentLabeler()), bytes.NewReader(append(line, '\n')), &out)
	if err := server.Start(tc.ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(&out)
	if !scanner.Scan() {
		return fmt.Errorf("no response to %s", method)
	}
	tc.lastResponse = nil
	return json.Unmarshal(scanner.Bytes(), &tc.lastResponse)
}

func (tc *TestContext) sendMCPInitialize() error {
	return tc.sendRequest("initialize", map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo":      map[string]interface{}{"name": "acceptance", "version": "1.0.0"},
	})
}

func (tc *TestContext) requestToolsList() error {
	return tc.sendRequest("tools/list", nil)
}

func (tc *TestContext) callMCPMethod(method string) error {
	return tc.sendRequest(method, nil)
}

func (tc *TestContext) callMCPToolForSentence(tool string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name":      tool,
		"arguments": map[string]interface{}{"sentence": tc.sentence, "labels": tc.labels},
	})
}

func (tc *TestContext) callMCPToolWithSentence(tool, sentence string) error {
	return tc.sendRequest("tools/call", map[string]interface{}{
		"name":      tool,
		"arguments": map[string]interface{}{"sentence": sentence},
	})
}

func (tc *TestContext) rpcResult() (map[string]interface{}, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("no response received")
	}
	if rpcErr, ok := tc.lastResponse["error"]; ok {
		return nil, fmt.Errorf("received error response: %v", rpcErr)
	}
	result, ok := tc.lastResponse["result"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("response has no result")
	}
	return result, nil
}

// toolText returns the text content of a tool result.
func (tc *TestContext) toolText() (string, bool, error) {
	result, err := tc.rpcResult()
	if err != nil {
		return "", false, err
	}
	content, ok := result["content"].([]interface{})
	if !ok || len(content) == 0 {
		return "", false, fmt.Errorf("tool result has no content")
	}
	first, _ := content[0].(map[string]interface{})
	text, _ := first["text"].(string)
	isError, _ := result["isError"].(bool)
	return text, isError, nil
}

func (tc *TestContext) checkServerName(name string) error {
	result, err := tc.rpcResult()
	if err != nil {
		return err
	}
	info, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("response has no serverInfo")
	}
	if info["name"] != name {
		return fmt.Errorf("expected server name %q, got %v", name, info["name"])
	}
	return nil
}

func (tc *TestContext) checkListContains(name string) error {
	result, err := tc.rpcResult()
	if err != nil {
		return err
	}
	for _, key := range []string{"tools", "resources"} {
		items, _ := result[key].([]interface{})
		for _, item := range items {
			m, _ := item.(map[string]interface{})
			if m["name"] == name || m["uri"] == name {
				return nil
			}
		}
	}
	return fmt.Errorf("list does not contain %q", name)
}

func (tc *TestContext) checkSuccessResponse() error {
	text, isError, err := tc.toolText()
	if err != nil {
		return err
	}
	if isError {
		return fmt.Errorf("tool failed: %s", text)
	}
	return nil
}

func (tc *TestContext) checkToolError() error {
	_, isError, err := tc.toolText()
	if err != nil {
		return err
	}
	if !isError {
		return fmt.Errorf("expected the tool to fail")
	}
	return nil
}

func (tc *TestContext) checkToolResultContains(s string) error {
	text, _, err := tc.toolText()
	if err != nil {
		return err
	}
	if !strings.Contains(text, s) {
		return fmt.Errorf("tool result does not contain %q: %s", s, text)
	}
	return nil
}

func (tc *TestContext) checkErrorResponse() error {
	if tc.lastResponse == nil {
		return fmt.Errorf("no response received")
	}
	if _, ok := tc.lastResponse["error"]; !ok {
		return fmt.Errorf("expected error response, got %v", tc.lastResponse)
	}
	return nil
}

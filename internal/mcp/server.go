// Package mcp implements the Model Context Protocol server for cira
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JulianFrattini/cira/internal/cira"
	"github.com/JulianFrattini/cira/internal/cue"
	"github.com/JulianFrattini/cira/internal/graph"
	"github.com/JulianFrattini/cira/internal/labels"
	"github.com/JulianFrattini/cira/internal/logger"
	"github.com/JulianFrattini/cira/internal/store"
)

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Server implements the MCP protocol over a line-delimited stream
type Server struct {
	store     *store.Store
	converter *cira.Converter
	scanner   *bufio.Scanner

	mu  sync.Mutex
	out io.Writer
}

// Stats contains statistics about the requirement store
type Stats struct {
	TotalRequirements int    `json:"total_requirements"`
	DatabaseSize      string `json:"database_size"`
	LastActivity      string `json:"last_activity"`
}

// NewServer creates a new MCP server reading requests from in and writing
// responses to out. The store may be nil, which disables history tools.
func NewServer(st *store.Store, converter *cira.Converter, in io.Reader, out io.Writer) *Server {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Server{
		store:     st,
		converter: converter,
		scanner:   scanner,
		out:       out,
	}
}

// Start runs the server loop until the input ends or ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	logger.Info("cira MCP server ready")

	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var request JSONRPCRequest
		if err := json.Unmarshal(line, &request); err != nil {
			s.sendError(nil, codeParseError, "Parse error", err.Error())
			continue
		}

		s.handleRequest(ctx, &request)
	}

	return s.scanner.Err()
}

// Stats returns statistics about the requirement store
func (s *Server) Stats(ctx context.Context) (Stats, error) {
	if s.store == nil {
		return Stats{}, errNoStore
	}
	return ReadStats(ctx, s.store)
}

// ReadStats collects the statistics of a requirement store
func ReadStats(ctx context.Context, st *store.Store) (Stats, error) {
	count, err := st.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	size, _ := st.Size()
	lastActivity, _ := st.LastActivity(ctx)

	lastActivityStr := "never"
	if !lastActivity.IsZero() {
		lastActivityStr = lastActivity.Format(time.RFC3339)
	}

	return Stats{
		TotalRequirements: count,
		DatabaseSize:      size,
		LastActivity:      lastActivityStr,
	}, nil
}

var errNoStore = errors.New("no requirement store configured")

func (s *Server) handleRequest(ctx context.Context, req *JSONRPCRequest) {
	logger.Debug("mcp request", "method", req.Method)

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolCall(ctx, req)
	case "resources/list":
		s.handleResourcesList(req)
	case "resources/read":
		s.handleResourceRead(ctx, req)
	default:
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) {
	result := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "cira-mcp",
			"version": "0.1.0",
		},
	}
	s.sendResult(req.ID, result)
}

var labelsSchema = map[string]interface{}{
	"type":        "array",
	"description": "Optional labels of the sentence ({id, name, begin, end, parent} or {id, name, begin, end, children, predecessor, successor}); without them the configured labeler is asked",
	"items":       map[string]interface{}{"type": "object"},
}

func (s *Server) handleToolsList(req *JSONRPCRequest) {
	tools := []map[string]interface{}{
		{
			"name":        "classify",
			"description": "Decide whether a sentence is causal and list its causal cues",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sentence": map[string]interface{}{
						"type":        "string",
						"description": "The sentence to classify",
					},
				},
				"required": []string{"sentence"},
			},
		},
		{
			"name":        "graph",
			"description": "Generate the cause-effect graph of a causal sentence",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sentence": map[string]interface{}{
						"type":        "string",
						"description": "The causal sentence",
					},
					"labels": labelsSchema,
				},
				"required": []string{"sentence"},
			},
		},
		{
			"name":        "testsuite",
			"description": "Derive a minimal test suite from a cause-effect graph document",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"graph": map[string]interface{}{
						"type":        "object",
						"description": "Graph document {nodes, root, edges}",
					},
				},
				"required": []string{"graph"},
			},
		},
		{
			"name":        "process",
			"description": "Label a causal sentence and derive its graph and test suite",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sentence": map[string]interface{}{
						"type":        "string",
						"description": "The causal sentence",
					},
					"labels": labelsSchema,
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Store the result in the requirement history",
					},
				},
				"required": []string{"sentence"},
			},
		},
		{
			"name":        "history",
			"description": "List processed requirements, or show one by ID",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "ID of the requirement to show",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of requirements to list (default: 10)",
					},
				},
			},
		},
		{
			"name":        "forget",
			"description": "Delete a processed requirement by ID",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "The ID of the requirement to forget",
					},
				},
				"required": []string{"id"},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

// errInvalidArguments marks tool calls whose arguments cannot be used
var errInvalidArguments = errors.New("invalid arguments")

func (s *Server) handleToolCall(ctx context.Context, req *JSONRPCRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	var result interface{}
	var err error

	switch params.Name {
	case "classify":
		result, err = s.toolClassify(ctx, params.Arguments)
	case "graph":
		result, err = s.toolGraph(ctx, params.Arguments)
	case "testsuite":
		result, err = s.toolTestSuite(ctx, params.Arguments)
	case "process":
		result, err = s.toolProcess(ctx, params.Arguments)
	case "history":
		result, err = s.toolHistory(ctx, params.Arguments)
	case "forget":
		result, err = s.toolForget(ctx, params.Arguments)
	default:
		s.sendError(req.ID, codeInvalidParams, "Unknown tool", params.Name)
		return
	}

	if errors.Is(err, errInvalidArguments) {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}
	if err != nil {
		logger.Warn("tool failed", "tool", params.Name, "error", err)
		s.sendResult(req.ID, map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Error: %v", err)},
			},
			"isError": true,
		})
		return
	}

	text, _ := json.MarshalIndent(result, "", "  ")
	s.sendResult(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	})
}

func decodeArguments(raw json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

type sentenceArguments struct {
	Sentence string            `json:"sentence"`
	Labels   []labels.Document `json:"labels"`
	Save     bool              `json:"save"`
}

// converterFor answers from the inline labels when the call carries any.
func (s *Server) converterFor(args sentenceArguments) (*cira.Converter, error) {
	if args.Sentence == "" {
		return nil, fmt.Errorf("%w: sentence is required", errInvalidArguments)
	}
	if len(args.Labels) == 0 {
		return s.converter, nil
	}
	return s.converter.WithLabeler(cira.NewDocumentLabeler(cira.SentenceDocument{
		Sentence: args.Sentence,
		Labels:   args.Labels,
	})), nil
}

func (s *Server) toolClassify(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args sentenceArguments
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	if args.Sentence == "" {
		return nil, fmt.Errorf("%w: sentence is required", errInvalidArguments)
	}

	causal, confidence, err := s.converter.Classify(ctx, args.Sentence)
	if err != nil {
		return nil, err
	}
	cues := cue.Find(args.Sentence)
	if cues == nil {
		cues = []cue.Cue{}
	}
	return map[string]interface{}{
		"sentence":   args.Sentence,
		"causal":     causal,
		"confidence": confidence,
		"cues":       cues,
	}, nil
}

func (s *Server) toolGraph(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args sentenceArguments
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	converter, err := s.converterFor(args)
	if err != nil {
		return nil, err
	}

	all, err := converter.Label(ctx, args.Sentence)
	if err != nil {
		return nil, err
	}
	g, err := converter.Graph(args.Sentence, all)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"graph":      g.Document(),
		"expression": g.String(),
	}, nil
}

func (s *Server) toolTestSuite(_ context.Context, raw json.RawMessage) (interface{}, error) {
	var args struct {
		Graph *graph.Document `json:"graph"`
	}
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	if args.Graph == nil {
		return nil, fmt.Errorf("%w: graph is required", errInvalidArguments)
	}

	g, err := graph.FromDocument(*args.Graph)
	if err != nil {
		return nil, err
	}
	return s.converter.TestSuite(g)
}

func (s *Server) toolProcess(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args sentenceArguments
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	converter, err := s.converterFor(args)
	if err != nil {
		return nil, err
	}

	result, err := converter.Process(ctx, args.Sentence)
	if err != nil {
		return nil, err
	}
	if !args.Save {
		return result.Document(), nil
	}

	if s.store == nil {
		return nil, errNoStore
	}
	saved, err := s.store.Save(ctx, store.NewRecord(result))
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Server) toolHistory(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args struct {
		ID    string `json:"id"`
		Limit int    `json:"limit"`
	}
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, errNoStore
	}

	if args.ID != "" {
		return s.store.Get(ctx, args.ID)
	}
	if args.Limit <= 0 {
		args.Limit = 10
	}
	return s.summaries(ctx, args.Limit)
}

// summary is the short form of a stored requirement used in listings
type summary struct {
	ID        string `json:"id"`
	Sentence  string `json:"sentence"`
	Cases     int    `json:"cases"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) summaries(ctx context.Context, limit int) ([]summary, error) {
	records, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]summary, 0, len(records))
	for _, r := range records {
		out = append(out, summary{
			ID:        r.ID,
			Sentence:  r.Sentence,
			Cases:     len(r.Suite.Cases),
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

func (s *Server) toolForget(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArguments(raw, &args); err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, fmt.Errorf("%w: id is required", errInvalidArguments)
	}
	if s.store == nil {
		return nil, errNoStore
	}
	if err := s.store.Forget(ctx, args.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"forgotten": args.ID}, nil
}

func (s *Server) handleResourcesList(req *JSONRPCRequest) {
	resources := []map[string]interface{}{
		{
			"uri":         "cira://requirements/recent",
			"name":        "Recent Requirements",
			"description": "Most recently processed requirements",
			"mimeType":    "application/json",
		},
		{
			"uri":         "cira://requirements/stats",
			"name":        "Requirement Statistics",
			"description": "Statistics about the requirement store",
			"mimeType":    "application/json",
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"resources": resources})
}

func (s *Server) handleResourceRead(ctx context.Context, req *JSONRPCRequest) {
	var params struct {
		URI string `json:"uri"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}

	var content interface{}
	var err error

	switch params.URI {
	case "cira://requirements/recent":
		if s.store == nil {
			err = errNoStore
			break
		}
		content, err = s.summaries(ctx, 10)
	case "cira://requirements/stats":
		content, err = s.Stats(ctx)
	default:
		s.sendError(req.ID, codeInvalidParams, "Unknown resource", params.URI)
		return
	}

	if err != nil {
		s.sendError(req.ID, codeInternalError, "Internal error", err.Error())
		return
	}

	text, _ := json.MarshalIndent(content, "", "  ")
	s.sendResult(req.ID, map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"uri":      params.URI,
				"mimeType": "application/json",
				"text":     string(text),
			},
		},
	})
}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (s *Server) send(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("failed to encode response", "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(data))
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	s.send(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendError(id interface{}, code int, message, data string) {
	s.send(JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

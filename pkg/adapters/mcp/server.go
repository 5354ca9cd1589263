package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/aretw0/bifrost/pkg/runner"
	"github.com/aretw0/bifrost/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DefaultSessionID is used by tools called without a session_id.
const DefaultSessionID = "default"

// HistoryURI exposes the default session history.
const HistoryURI = "bifrost://history"

// EvaluateInput defines the parameters of evaluate_expression.
type EvaluateInput struct {
	Expression string `json:"expression" jsonschema_description:"Expression in device syntax, e.g. sqrt(2)*3"`
}

// EvaluateOutput is returned by evaluate_expression.
type EvaluateOutput struct {
	Expression string `json:"expression"`
	Result     string `json:"result" jsonschema_description:"Device reply, six decimals for fractional values"`
	Numeric    bool   `json:"numeric"`
}

// SessionInput selects a keypad session.
type SessionInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema_description:"Session to use (default: shared default session)"`
}

// InsertInput defines the parameters of insert_tokens.
type InsertInput struct {
	SessionID string `json:"session_id,omitempty"`
	Tokens    string `json:"tokens" jsonschema_description:"Space separated keypad labels, e.g. \"1 + sin 2\""`
	Evaluate  bool   `json:"evaluate,omitempty" jsonschema_description:"Evaluate after inserting"`
}

// HistoryInput defines the parameters of select_history.
type HistoryInput struct {
	SessionID string `json:"session_id,omitempty"`
	Index     int    `json:"index" jsonschema_description:"History index, 0 is the most recent"`
}

// StateOutput is returned by every session tool.
type StateOutput struct {
	SessionID string          `json:"session_id"`
	State     domain.Snapshot `json:"state"`
	Result    string          `json:"result,omitempty"`
}

// Server exposes the calculator as an MCP Server.
type Server struct {
	sessions  *session.Manager
	evaluator ports.ExpressionEvaluator
	channel   domain.ChannelConfig
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithEvaluator enables evaluate_expression on cfg.
func WithEvaluator(evaluator ports.ExpressionEvaluator, cfg domain.ChannelConfig) Option {
	return func(s *Server) {
		s.evaluator = evaluator
		s.channel = cfg.WithDefaults()
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("bifrost-mcp", strings.TrimSpace(bifrost.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	if s.evaluator != nil {
		s.mcpServer.AddTool(mcp.NewTool("evaluate_expression",
			mcp.WithDescription("Send a raw expression to the calculator device and return its reply. Does not touch any session."),
			mcp.WithString("expression", mcp.Required(), mcp.Description("Expression in device syntax, e.g. sqrt(2)*3")),
			mcp.WithOutputSchema[EvaluateOutput](),
		), mcp.NewTypedToolHandler(s.handleEvaluateExpression))
	}

	s.mcpServer.AddTool(mcp.NewTool("insert_tokens",
		mcp.WithDescription("Press keypad keys in a session, optionally evaluating afterwards."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithString("tokens", mcp.Required(), mcp.Description("Space separated keypad labels: digits, . (), + - * / % ^, sin cos tan log ln sqrt, pi, ans")),
		mcp.WithBoolean("evaluate", mcp.DefaultBool(false), mcp.Description("Evaluate after inserting")),
		mcp.WithOutputSchema[StateOutput](),
	), mcp.NewTypedToolHandler(s.handleInsert))

	s.mcpServer.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Evaluate the session buffer on the device and record the result."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithOutputSchema[StateOutput](),
	), mcp.NewTypedToolHandler(s.handleEvaluate))

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the session buffer, caret, last result and history."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithOutputSchema[StateOutput](),
	), mcp.NewTypedToolHandler(s.handleGetState))

	s.mcpServer.AddTool(mcp.NewTool("select_history",
		mcp.WithDescription("Insert the result of a history entry at the caret."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("History index, 0 is the most recent")),
		mcp.WithOutputSchema[StateOutput](),
	), mcp.NewTypedToolHandler(s.handleSelectHistory))

	s.mcpServer.AddTool(mcp.NewTool("clear",
		mcp.WithDescription("Clear the session buffer and history."),
		mcp.WithString("session_id", mcp.Description("Session to use (optional)")),
		mcp.WithOutputSchema[StateOutput](),
	), mcp.NewTypedToolHandler(s.handleClear))
}

func (s *Server) handleEvaluateExpression(ctx context.Context, _ mcp.CallToolRequest, in EvaluateInput) (*mcp.CallToolResult, error) {
	expr, err := runner.SanitizeExpression(in.Expression)
	if err != nil {
		s.logger.Warn("MCP evaluate_expression: input rejected", "error", err, "size", len(in.Expression))
		return mcp.NewToolResultError(fmt.Sprintf("INVALID_INPUT: %v", err)), nil
	}

	value, err := s.evaluator.Evaluate(ctx, expr, s.channel)
	if err != nil {
		return toolError(err), nil
	}

	out := EvaluateOutput{Expression: expr, Result: value.Text, Numeric: value.Numeric}
	return mcp.NewToolResultStructured(out, fmt.Sprintf("%s = %s", expr, value.Text)), nil
}

func (s *Server) handleInsert(ctx context.Context, _ mcp.CallToolRequest, in InsertInput) (*mcp.CallToolResult, error) {
	clean, err := runner.SanitizeInput(in.Tokens)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("INVALID_INPUT: %v", err)), nil
	}
	var ids []domain.TokenID
	for _, label := range strings.Fields(clean) {
		id, err := domain.ParseToken(label)
		if err != nil {
			return toolError(err), nil
		}
		ids = append(ids, id)
	}

	return s.withSession(ctx, in.SessionID, func(ctx context.Context, c ports.Calculator) (string, error) {
		for _, id := range ids {
			if err := c.Insert(ctx, id); err != nil {
				return "", err
			}
		}
		if !in.Evaluate {
			return "", nil
		}
		value, err := c.Evaluate(ctx)
		return value.Text, err
	})
}

func (s *Server) handleEvaluate(ctx context.Context, _ mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, in.SessionID, func(ctx context.Context, c ports.Calculator) (string, error) {
		value, err := c.Evaluate(ctx)
		return value.Text, err
	})
}

func (s *Server) handleGetState(ctx context.Context, _ mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, in.SessionID, func(context.Context, ports.Calculator) (string, error) {
		return "", nil
	})
}

func (s *Server) handleSelectHistory(ctx context.Context, _ mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, in.SessionID, func(_ context.Context, c ports.Calculator) (string, error) {
		return "", c.SelectHistory(in.Index)
	})
}

func (s *Server) handleClear(ctx context.Context, _ mcp.CallToolRequest, in SessionInput) (*mcp.CallToolResult, error) {
	return s.withSession(ctx, in.SessionID, func(_ context.Context, c ports.Calculator) (string, error) {
		c.Clear()
		return "", nil
	})
}

// withSession runs fn under the session lock, creating the session on first use.
func (s *Server) withSession(ctx context.Context, id string, fn func(context.Context, ports.Calculator) (string, error)) (*mcp.CallToolResult, error) {
	if id == "" {
		id = DefaultSessionID
	}
	calc := s.sessions.GetOrCreate(id)

	var result string
	err := s.sessions.WithLock(ctx, id, func(ctx context.Context, c ports.Calculator) error {
		var err error
		result, err = fn(ctx, c)
		return err
	})
	if err != nil {
		s.logger.Debug("MCP session tool failed", "session_id", id, "kind", domain.ErrorKind(err), "err", err)
		return toolError(err), nil
	}

	out := StateOutput{SessionID: id, State: calc.Snapshot(), Result: result}
	fallback := fmt.Sprintf("[%s]", runner.CaretView(out.State))
	if result != "" {
		fallback = "= " + result + " " + fallback
	}
	return mcp.NewToolResultStructured(out, fallback), nil
}

// toolError reports err to the agent with its kind as a prefix.
func toolError(err error) *mcp.CallToolResult {
	kind := strings.ToUpper(domain.ErrorKind(err))
	if errors.Is(err, context.DeadlineExceeded) {
		kind = "TIMEOUT"
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(HistoryURI, "Evaluation history of the default session",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		calc := s.sessions.GetOrCreate(DefaultSessionID)
		history := calc.Snapshot().History
		if history == nil {
			history = []string{}
		}
		data, err := json.Marshal(history)
		if err != nil {
			return nil, fmt.Errorf("failed to encode history: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      HistoryURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

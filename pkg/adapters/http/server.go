package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/aretw0/bifrost/pkg/runner"
	"github.com/aretw0/bifrost/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AsyncEvaluator is implemented by calculators that can evaluate off the request.
type AsyncEvaluator interface {
	EvaluateAsync(ctx context.Context) (<-chan bifrost.Outcome, error)
}

// Server exposes keypad sessions and raw evaluation over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	evaluator ports.ExpressionEvaluator
	channel   domain.ChannelConfig
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithEvaluator enables POST /evaluate for raw expressions on cfg.
func WithEvaluator(evaluator ports.ExpressionEvaluator, cfg domain.ChannelConfig) Option {
	return func(s *Server) {
		s.evaluator = evaluator
		s.channel = cfg.WithDefaults()
	}
}

// WithMetrics serves g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server over sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.evaluator != nil {
		r.Post("/evaluate", s.EvaluateExpression)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/insert", s.Insert)
			r.Post("/delete", s.mutate(func(_ context.Context, c ports.Calculator) error { c.Delete(); return nil }))
			r.Post("/clear", s.mutate(func(_ context.Context, c ports.Calculator) error { c.Clear(); return nil }))
			r.Post("/reset", s.mutate(func(_ context.Context, c ports.Calculator) error { c.Reset(); return nil }))
			r.Put("/caret", s.SetCaret)
			r.Put("/selection", s.Select)
			r.Post("/history/{index}", s.SelectHistory)
			r.Post("/evaluate", s.Evaluate)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	ID     string          `json:"id"`
	State  domain.Snapshot `json:"state"`
	Result string          `json:"result,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// InsertRequest carries keypad labels ("7", "+", "sin", "ans").
type InsertRequest struct {
	Tokens []string `json:"tokens"`
}

// CaretRequest is the body of PUT /caret.
type CaretRequest struct {
	Position int `json:"position"`
}

// SelectionRequest is the body of PUT /selection.
type SelectionRequest struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is returned by POST /evaluate.
type EvaluateResponse struct {
	Expression string                 `json:"expression"`
	Value      domain.NormalizedValue `json:"value"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{
		"app":     "bifrost-http",
		"version": strings.TrimSpace(bifrost.Version),
	}
	if s.evaluator != nil {
		info["channel"] = s.channel.Name
	}
	writeJSON(w, http.StatusOK, info)
}

// EvaluateExpression handles POST /evaluate: a stateless raw expression.
func (s *Server) EvaluateExpression(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	expr, err := runner.SanitizeExpression(body.Expression)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	value, err := s.evaluator.Evaluate(r.Context(), expr, s.channel)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Expression: expr, Value: value})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, calc := s.Sessions.Create()
	s.logger.Info("Session created", "session_id", id)
	writeJSON(w, http.StatusCreated, SessionResponse{ID: id, State: calc.Snapshot()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	calc, err := s.Sessions.Get(id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, State: calc.Snapshot()})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Sessions.Delete(id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.Streams.Close(id)
	w.WriteHeader(http.StatusNoContent)
}

// Insert handles POST /sessions/{id}/insert.
// Tokens are applied in order; the first unknown label stops the request.
func (s *Server) Insert(w http.ResponseWriter, r *http.Request) {
	var body InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	ids := make([]domain.TokenID, 0, len(body.Tokens))
	for _, label := range body.Tokens {
		id, err := domain.ParseToken(label)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		ids = append(ids, id)
	}

	s.mutate(func(ctx context.Context, c ports.Calculator) error {
		for _, id := range ids {
			if err := c.Insert(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})(w, r)
}

// SetCaret handles PUT /sessions/{id}/caret.
func (s *Server) SetCaret(w http.ResponseWriter, r *http.Request) {
	var body CaretRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.mutate(func(_ context.Context, c ports.Calculator) error {
		c.SetCaret(body.Position)
		return nil
	})(w, r)
}

// Select handles PUT /sessions/{id}/selection.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.mutate(func(_ context.Context, c ports.Calculator) error {
		c.Select(body.Start, body.Length)
		return nil
	})(w, r)
}

// SelectHistory handles POST /sessions/{id}/history/{index}.
func (s *Server) SelectHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", domain.ErrHistoryOutOfRange, chi.URLParam(r, "index")))
		return
	}
	s.mutate(func(_ context.Context, c ports.Calculator) error {
		return c.SelectHistory(index)
	})(w, r)
}

// Evaluate handles POST /sessions/{id}/evaluate.
// With ?async=true it answers 202 at once and publishes the outcome on the
// session's event stream.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		s.evaluateAsync(w, r, id)
		return
	}

	var result string
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, c ports.Calculator) error {
		value, err := c.Evaluate(ctx)
		result = value.Text
		return err
	})
	s.respond(w, id, result, err)
}

func (s *Server) evaluateAsync(w http.ResponseWriter, r *http.Request, id string) {
	calc, err := s.Sessions.Get(id)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	async, ok := calc.(AsyncEvaluator)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, errors.New("session does not support asynchronous evaluation"))
		return
	}

	outcomes, err := async.EvaluateAsync(context.WithoutCancel(r.Context()))
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	go func() {
		for o := range outcomes {
			ev := StreamEvent{Type: "result", State: calc.Snapshot(), Result: o.Value.Text}
			if o.Err != nil {
				ev.Type = "error"
				ev.Result = ""
				ev.Error = &ErrorResponse{Error: o.Err.Error(), Kind: domain.ErrorKind(o.Err)}
			}
			s.Streams.Publish(id, ev)
		}
	}()

	writeJSON(w, http.StatusAccepted, SessionResponse{ID: id, State: calc.Snapshot()})
}

// mutate runs fn under the session lock, publishes the new state and answers with it.
func (s *Server) mutate(fn func(context.Context, ports.Calculator) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := s.Sessions.WithLock(r.Context(), id, fn)
		s.respond(w, id, "", err)
	}
}

func (s *Server) respond(w http.ResponseWriter, id, result string, err error) {
	calc, gerr := s.Sessions.Get(id)
	if gerr != nil {
		s.writeError(w, statusFor(gerr), gerr)
		return
	}
	state := calc.Snapshot()

	if err != nil {
		s.logger.Debug("Session request failed", "session_id", id, "kind", domain.ErrorKind(err), "err", err)
		s.writeError(w, statusFor(err), err)
		return
	}

	ev := StreamEvent{Type: "state", State: state}
	if result != "" {
		ev.Type, ev.Result = "result", result
	}
	s.Streams.Publish(id, ev)
	writeJSON(w, http.StatusOK, SessionResponse{ID: id, State: state, Result: result})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownToken),
		errors.Is(err, domain.ErrHistoryOutOfRange),
		errors.Is(err, runner.ErrEmptyInput),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSyntax):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEvaluationInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrWriteFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrChannelUnavailable), errors.Is(err, domain.ErrUnknownScheme):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("Request failed", "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: domain.ErrorKind(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

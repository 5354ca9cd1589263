package bifrost

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/bridge"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/editor"
	"github.com/aretw0/bifrost/pkg/ports"
)

// Calculator is the high-level entry point of the library.
// It binds an editor, its session and a channel configuration to an evaluator.
type Calculator struct {
	mu      sync.Mutex
	editor  *editor.Editor
	session *domain.Session
	channel domain.ChannelConfig

	evaluator ports.ExpressionEvaluator
	locker    ports.DistributedLocker
	inflight  chan struct{}

	hooks   domain.EvaluationHooks
	onFocus func()
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Calculator.
type Option func(*Calculator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// WithChannel sets the channel used by Evaluate (default: domain.DefaultChannelConfig).
func WithChannel(cfg domain.ChannelConfig) Option {
	return func(c *Calculator) {
		c.channel = cfg.WithDefaults()
	}
}

// WithHooks registers observability hooks for evaluations and insertions.
func WithHooks(hooks domain.EvaluationHooks) Option {
	return func(c *Calculator) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithLocker serializes device access across calculators and processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Calculator) {
		c.locker = locker
	}
}

// WithEvaluator replaces the bridge entirely. The opener passed to New is ignored.
func WithEvaluator(evaluator ports.ExpressionEvaluator) Option {
	return func(c *Calculator) {
		c.evaluator = evaluator
	}
}

// WithSession shares an existing session (last result and history).
func WithSession(session *domain.Session) Option {
	return func(c *Calculator) {
		c.session = session
	}
}

// WithFocusHandler registers the callback invoked when the buffer wants input focus.
// It runs with the Calculator locked and must not call back into it.
func WithFocusHandler(fn func()) Option {
	return func(c *Calculator) {
		c.onFocus = fn
	}
}

// New creates a Calculator that reaches the device through opener.
func New(opener ports.Opener, opts ...Option) *Calculator {
	c := &Calculator{
		channel:  domain.DefaultChannelConfig(),
		inflight: make(chan struct{}, 1),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = domain.NewSession()
	}

	c.editor = editor.New(c.session,
		editor.WithLogger(c.logger),
		editor.WithFocusHandler(c.focus),
	)

	if c.evaluator == nil {
		bridgeOpts := []bridge.Option{
			bridge.WithLogger(c.logger),
			bridge.WithHooks(c.hooks),
		}
		if c.locker != nil {
			bridgeOpts = append(bridgeOpts, bridge.WithLocker(c.locker))
		}
		c.evaluator = bridge.New(opener, bridgeOpts...)
	}
	return c
}

var _ ports.Calculator = (*Calculator)(nil)

// Insert applies one keypad token to the buffer.
func (c *Calculator) Insert(ctx context.Context, id domain.TokenID) error {
	c.mu.Lock()
	err := c.editor.Insert(id)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if c.hooks.OnTokenInserted != nil {
		tok, _ := domain.Lookup(id)
		c.hooks.OnTokenInserted(ctx, &domain.TokenEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTokenInserted},
			Token:     id,
			Class:     tok.Class,
		})
	}
	return nil
}

// Delete removes the selection, or the character before the caret.
func (c *Calculator) Delete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Delete()
}

// Clear empties the buffer and the history. The last result is kept.
func (c *Calculator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Clear()
}

// Reset empties the buffer, the history and the last result.
func (c *Calculator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Clear()
	c.session.Reset()
}

// SetCaret moves the caret. Negative positions are logged and ignored.
func (c *Calculator) SetCaret(pos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.SetCaret(pos)
}

// Select sets the buffer selection.
func (c *Calculator) Select(start, length int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editor.Select(start, length)
}

// SelectHistory inserts the result of history entry index (0 is the most recent).
func (c *Calculator) SelectHistory(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.SelectHistory(index)
}

// Channel returns the configured channel.
func (c *Calculator) Channel() domain.ChannelConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// SetChannel changes the channel used by subsequent evaluations.
func (c *Calculator) SetChannel(cfg domain.ChannelConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channel = cfg.WithDefaults()
}

// Evaluate sends the buffer to the device and blocks until the reply is read.
// On success the result is recorded in the history and the buffer is cleared,
// unless it was edited while the request was in flight.
// On failure the buffer is left untouched.
func (c *Calculator) Evaluate(ctx context.Context) (domain.NormalizedValue, error) {
	if !c.acquire() {
		return domain.NormalizedValue{}, domain.ErrEvaluationInFlight
	}
	defer c.release()

	c.mu.Lock()
	expr := c.editor.Text()
	cfg := c.channel
	revision := c.editor.Revision()
	c.mu.Unlock()

	value, err := c.evaluator.Evaluate(ctx, expr, cfg)
	if err != nil {
		c.logger.Debug("Evaluation rejected", "channel", cfg.Name, "kind", domain.ErrorKind(err), "err", err)
		return value, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(expr, value.Text, revision)
	return value, nil
}

// Snapshot returns the current presentation state.
func (c *Calculator) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, length := c.editor.Selection()
	return domain.Snapshot{
		Text:            c.editor.Text(),
		Caret:           c.editor.Caret(),
		SelectionStart:  start,
		SelectionLength: length,
		LastResult:      c.session.LastResult,
		History:         c.session.Lines(),
		Evaluating:      len(c.inflight) > 0,
	}
}

// History returns a copy of the history entries, most recent first.
func (c *Calculator) History() []domain.HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.HistoryEntry(nil), c.session.History...)
}

func (c *Calculator) acquire() bool {
	select {
	case c.inflight <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *Calculator) release() {
	<-c.inflight
}

// record stores a successful evaluation. Callers hold c.mu.
func (c *Calculator) record(expr, result string, revision uint64) {
	c.session.Record(expr, result)
	if c.editor.Revision() != revision {
		c.logger.Debug("Buffer edited during evaluation, keeping it", "channel", c.channel.Name)
		return
	}
	c.editor.ClearBuffer()
}

func (c *Calculator) focus() {
	if c.onFocus != nil {
		c.onFocus()
	}
}

package bridge

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

// DefaultLockTTL bounds how long a device lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Bridge sends expressions to the evaluator device.
// It holds no state across calls besides its configuration and is safe for concurrent use;
// exclusive device access is provided by the optional locker.
type Bridge struct {
	opener  ports.Opener
	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.EvaluationHooks
	logger  *slog.Logger
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithLocker serializes access to each channel name through locker.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bridge) {
		b.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(b *Bridge) {
		b.lockTTL = ttl
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.EvaluationHooks) Option {
	return func(b *Bridge) {
		b.hooks = hooks
	}
}

// New creates a Bridge that opens channels through opener.
func New(opener ports.Opener, opts ...Option) *Bridge {
	b := &Bridge{
		opener:  opener,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ ports.ExpressionEvaluator = (*Bridge)(nil)

// Evaluate sends expression over the channel described by cfg and normalizes the reply.
func (b *Bridge) Evaluate(ctx context.Context, expression string, cfg domain.ChannelConfig) (value domain.NormalizedValue, err error) {
	cfg = cfg.WithDefaults()
	request := strings.ToLower(strings.TrimSpace(expression))
	logger := b.logger.With("channel", cfg.Name, "baud", cfg.Baud)

	ev := &domain.EvaluationEvent{
		Channel:    cfg.Name,
		Expression: request,
		Phase:      domain.PhaseIdle,
	}
	start := time.Now()
	b.emit(ctx, b.hooks.OnEvaluationStart, ev, domain.EventEvaluationStart)

	defer func() {
		ev.Duration = time.Since(start)
		ev.Err = err
		ev.Result = value.Text
		if err != nil {
			b.phase(ctx, ev, domain.PhaseFailed)
			logger.Debug("Evaluation failed", "kind", domain.ErrorKind(err), "err", err)
		} else {
			b.phase(ctx, ev, domain.PhaseSucceeded)
			logger.Debug("Evaluation succeeded", "result", value.Text)
		}
		b.emit(ctx, b.hooks.OnEvaluationEnd, ev, domain.EventEvaluationEnd)
	}()

	if b.locker != nil {
		unlock, lerr := b.locker.Lock(ctx, cfg.Name, b.lockTTL)
		if lerr != nil {
			return value, domain.NewEvalError(domain.ErrChannelUnavailable, "device busy", lerr)
		}
		defer func() {
			if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
				logger.Warn("Failed to release device lock (will expire via TTL)", "err", uerr)
			}
		}()
	}

	b.phase(ctx, ev, domain.PhaseOpening)
	ch, oerr := b.opener.Open(ctx, cfg)
	if oerr != nil {
		return value, domain.NewEvalError(domain.ErrChannelUnavailable, cfg.Name, oerr)
	}

	closed := false
	closeChannel := func() {
		if closed {
			return
		}
		closed = true
		b.phase(ctx, ev, domain.PhaseClosing)
		if cerr := ch.Close(); cerr != nil {
			logger.Warn("Failed to close channel", "err", cerr)
		}
	}
	defer closeChannel()

	response, xerr := b.exchange(ctx, ev, ch, request, cfg, logger)
	closeChannel()
	if xerr != nil {
		return value, xerr
	}

	ev.Response = response
	return NormalizeResponse(response)
}

func (b *Bridge) exchange(ctx context.Context, ev *domain.EvaluationEvent, ch ports.Channel, request string, cfg domain.ChannelConfig, logger *slog.Logger) (string, error) {
	b.phase(ctx, ev, domain.PhaseWriting)
	payload := []byte(request + "\n")
	n, err := ch.Write(payload)
	if err == nil && n < len(payload) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return "", domain.NewEvalError(domain.ErrWriteFailed, cfg.Name, err)
	}

	b.phase(ctx, ev, domain.PhaseReading)
	reply := readReply(ctx, ch, domain.ReadBudget, cfg.Timeouts, logger)
	return string(reply), nil
}

func (b *Bridge) phase(ctx context.Context, ev *domain.EvaluationEvent, p domain.Phase) {
	ev.Phase = p
	b.emit(ctx, b.hooks.OnPhase, ev, domain.EventPhase)
}

func (b *Bridge) emit(ctx context.Context, hook func(context.Context, *domain.EvaluationEvent), ev *domain.EvaluationEvent, typ domain.EventType) {
	if hook == nil {
		return
	}
	ev.Timestamp = time.Now()
	ev.Type = typ
	hook(ctx, ev)
}

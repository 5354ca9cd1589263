package bridge_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bifrost/pkg/bridge"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel replays scripted reply chunks and records what was written.
type fakeChannel struct {
	mu       sync.Mutex
	written  bytes.Buffer
	chunks   []string
	readErr  error
	writeErr error
	short    bool
	closed   int
}

func (c *fakeChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.chunks) == 0 {
		if c.readErr != nil {
			return 0, c.readErr
		}
		return 0, nil
	}
	n := copy(p, c.chunks[0])
	c.chunks[0] = c.chunks[0][n:]
	if c.chunks[0] == "" {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *fakeChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.short {
		return c.written.Write(p[:len(p)-1])
	}
	return c.written.Write(p)
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

type phaseRecorder struct {
	mu     sync.Mutex
	phases []domain.Phase
	end    *domain.EvaluationEvent
}

func (r *phaseRecorder) hooks() domain.EvaluationHooks {
	return domain.EvaluationHooks{
		OnPhase: func(_ context.Context, e *domain.EvaluationEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.phases = append(r.phases, e.Phase)
		},
		OnEvaluationEnd: func(_ context.Context, e *domain.EvaluationEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			copied := *e
			r.end = &copied
		},
	}
}

func fastConfig() domain.ChannelConfig {
	return domain.ChannelConfig{
		Name: "fake0",
		Baud: 9600,
		Timeouts: domain.Timeouts{
			ReadInterval:      2 * time.Millisecond,
			ReadTotalConstant: 40 * time.Millisecond,
		},
	}
}

func newBridge(ch *fakeChannel, rec *phaseRecorder) *bridge.Bridge {
	opener := ports.OpenerFunc(func(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
		return ch, nil
	})
	return bridge.New(opener, bridge.WithHooks(rec.hooks()))
}

func TestEvaluate_IntegerReply(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"10\r\n"}}
	rec := &phaseRecorder{}

	value, err := newBridge(ch, rec).Evaluate(context.Background(), "  5*2 ", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, "10", value.Text)
	assert.Equal(t, 10.0, value.Value)
	assert.True(t, value.Numeric)

	assert.Equal(t, "5*2\n", ch.written.String())
	assert.Equal(t, 1, ch.closed)
	assert.Equal(t, []domain.Phase{
		domain.PhaseOpening, domain.PhaseWriting, domain.PhaseReading,
		domain.PhaseClosing, domain.PhaseSucceeded,
	}, rec.phases)
	require.NotNil(t, rec.end)
	assert.Equal(t, "10", rec.end.Result)
	assert.Equal(t, "10\r\n", rec.end.Response)
}

func TestEvaluate_LowerCasesRequest(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"0"}}
	_, err := newBridge(ch, &phaseRecorder{}).Evaluate(context.Background(), "SIN(0)+LN(1)", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, "sin(0)+ln(1)\n", ch.written.String())
}

func TestEvaluate_FractionalReply(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"3.", "5\n"}}
	value, err := newBridge(ch, &phaseRecorder{}).Evaluate(context.Background(), "7/2", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, "3.500000", value.Text)
}

func TestEvaluate_SyntaxError(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"ERR nan at NaN\n"}}
	rec := &phaseRecorder{}

	_, err := newBridge(ch, rec).Evaluate(context.Background(), "1+*2", fastConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSyntax)

	var evalErr *domain.EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "ERR  at", evalErr.Detail)
	assert.NotContains(t, strings.ToLower(evalErr.Detail), "nan")

	assert.Equal(t, 1, ch.closed)
	assert.Equal(t, domain.PhaseFailed, rec.phases[len(rec.phases)-1])
	assert.Contains(t, rec.phases, domain.PhaseClosing)
}

func TestEvaluate_ChannelUnavailable(t *testing.T) {
	rec := &phaseRecorder{}
	opener := ports.OpenerFunc(func(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
		return nil, errors.New("no such file or directory")
	})
	b := bridge.New(opener, bridge.WithHooks(rec.hooks()))

	_, err := b.Evaluate(context.Background(), "1+1", fastConfig())
	assert.ErrorIs(t, err, domain.ErrChannelUnavailable)
	assert.Equal(t, []domain.Phase{domain.PhaseOpening, domain.PhaseFailed}, rec.phases,
		"no write, read or close is attempted")
}

func TestEvaluate_WriteFailed(t *testing.T) {
	cases := map[string]*fakeChannel{
		"Error":      {writeErr: errors.New("device disconnected"), chunks: []string{"2"}},
		"ShortWrite": {short: true, chunks: []string{"2"}},
	}
	for name, ch := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &phaseRecorder{}
			_, err := newBridge(ch, rec).Evaluate(context.Background(), "1+1", fastConfig())
			assert.ErrorIs(t, err, domain.ErrWriteFailed)
			assert.Equal(t, 1, ch.closed)
			assert.Equal(t, []domain.Phase{
				domain.PhaseOpening, domain.PhaseWriting, domain.PhaseClosing, domain.PhaseFailed,
			}, rec.phases)
		})
	}
	assert.ErrorIs(t, errors.Unwrap(domain.NewEvalError(domain.ErrWriteFailed, "", io.ErrShortWrite)), io.ErrShortWrite)
}

func TestEvaluate_ReadErrorKeepsPartialReply(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"4"}, readErr: errors.New("framing error")}
	value, err := newBridge(ch, &phaseRecorder{}).Evaluate(context.Background(), "2+2", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, "4", value.Text)
	assert.Equal(t, 1, ch.closed)
}

func TestEvaluate_EmptyReplyIsNotAnError(t *testing.T) {
	ch := &fakeChannel{}
	start := time.Now()
	value, err := newBridge(ch, &phaseRecorder{}).Evaluate(context.Background(), "2+2", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, "", value.Text)
	assert.False(t, value.Numeric)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond, "waits out the total read budget")
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	fail  error
	freed int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

func TestEvaluate_LocksChannel(t *testing.T) {
	ch := &fakeChannel{chunks: []string{"1"}}
	locker := &recordingLocker{}
	opener := ports.OpenerFunc(func(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
		return ch, nil
	})

	b := bridge.New(opener, bridge.WithLocker(locker))
	_, err := b.Evaluate(context.Background(), "1", fastConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"fake0"}, locker.keys)
	assert.Equal(t, 1, locker.freed)
}

func TestEvaluate_LockFailure(t *testing.T) {
	opened := false
	opener := ports.OpenerFunc(func(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
		opened = true
		return &fakeChannel{}, nil
	})
	b := bridge.New(opener, bridge.WithLocker(&recordingLocker{fail: context.DeadlineExceeded}))

	_, err := b.Evaluate(context.Background(), "1", fastConfig())
	assert.ErrorIs(t, err, domain.ErrChannelUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, opened)
}

func TestEvaluate_DefaultsChannelConfig(t *testing.T) {
	var got domain.ChannelConfig
	opener := ports.OpenerFunc(func(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
		got = cfg
		return nil, errors.New("offline")
	})
	_, _ = bridge.New(opener).Evaluate(context.Background(), "1", domain.ChannelConfig{Name: "COM4"})
	assert.Equal(t, domain.DefaultBaud, got.Baud)
	assert.Equal(t, domain.DefaultTimeouts(), got.Timeouts)
}

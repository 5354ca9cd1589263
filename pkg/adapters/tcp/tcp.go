// Package tcp reaches an evaluator device exposed by a TCP serial server (ser2net and similar).
// Channel names have the form "tcp://host:port".
package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

// Scheme prefixes channel names handled by this adapter.
const Scheme = "tcp://"

// DefaultDialTimeout bounds connection setup.
const DefaultDialTimeout = 2 * time.Second

// Opener implements ports.Opener over TCP.
type Opener struct {
	dialTimeout time.Duration
	logger      *slog.Logger
}

// Option configures the Opener.
type Option func(*Opener)

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) Option {
	return func(o *Opener) {
		o.dialTimeout = d
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		o.logger = logger
	}
}

// New creates a TCP Opener.
func New(opts ...Option) *Opener {
	o := &Opener{
		dialTimeout: DefaultDialTimeout,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ ports.Opener = (*Opener)(nil)

// Open dials the address in cfg.Name.
func (o *Opener) Open(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
	cfg = cfg.WithDefaults()
	addr := strings.TrimPrefix(cfg.Name, Scheme)

	d := net.Dialer{Timeout: o.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	o.logger.Debug("TCP channel connected", "channel", addr)
	return &channel{conn: conn, timeouts: cfg.Timeouts}, nil
}

// channel applies the serial timeout composition through connection deadlines.
type channel struct {
	conn     net.Conn
	timeouts domain.Timeouts
	once     sync.Once
	err      error
}

func (c *channel) Read(p []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeouts.ReadInterval)); err != nil {
		return 0, err
	}
	return c.conn.Read(p)
}

func (c *channel) Write(p []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeouts.WriteTotal(len(p)))); err != nil {
		return 0, err
	}
	return c.conn.Write(p)
}

func (c *channel) Close() error {
	c.once.Do(func() {
		c.err = c.conn.Close()
	})
	return c.err
}

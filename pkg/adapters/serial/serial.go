// Package serial reaches the evaluator device over a local serial port.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/tarm/serial"
)

// PortOpener opens a serial port. It allows replacing the driver in tests.
type PortOpener func(cfg *serial.Config) (io.ReadWriteCloser, error)

// OpenPort is the default PortOpener backed by github.com/tarm/serial.
func OpenPort(cfg *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(cfg)
}

// Opener implements ports.Opener for serial ports (8 data bits, no parity, one stop bit).
type Opener struct {
	open   PortOpener
	logger *slog.Logger
}

// Option configures the Opener.
type Option func(*Opener)

// WithPortOpener replaces the serial driver.
func WithPortOpener(open PortOpener) Option {
	return func(o *Opener) {
		o.open = open
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		o.logger = logger
	}
}

// New creates a serial Opener.
func New(opts ...Option) *Opener {
	o := &Opener{
		open:   OpenPort,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ ports.Opener = (*Opener)(nil)

// PortConfig maps a channel configuration onto driver settings.
// The driver read timeout is the inter-byte interval; the bridge enforces the total.
func PortConfig(cfg domain.ChannelConfig) *serial.Config {
	cfg = cfg.WithDefaults()
	return &serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.Timeouts.ReadInterval,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}
}

// Open opens the port named by cfg.Name.
func (o *Opener) Open(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pc := PortConfig(cfg)
	port, err := o.open(pc)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s at %d baud: %w", pc.Name, pc.Baud, err)
	}
	o.logger.Debug("Serial port opened", "channel", pc.Name, "baud", pc.Baud)
	return &channel{ReadWriteCloser: port}, nil
}

type channel struct {
	io.ReadWriteCloser
	once sync.Once
	err  error
}

// Read reports an idle port as an empty read. On POSIX the driver returns io.EOF
// when the read timeout elapses with no data, which is not end-of-stream.
func (c *channel) Read(b []byte) (int, error) {
	n, err := c.ReadWriteCloser.Read(b)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

func (c *channel) Close() error {
	c.once.Do(func() {
		c.err = c.ReadWriteCloser.Close()
	})
	return c.err
}

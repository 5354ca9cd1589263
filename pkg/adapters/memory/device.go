package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

// Responder computes the device reply for one request line (without the newline).
type Responder func(request string) string

// Replies returns a Responder answering with replies in order; the last one repeats.
func Replies(replies ...string) Responder {
	var mu sync.Mutex
	next := 0
	return func(string) string {
		mu.Lock()
		defer mu.Unlock()
		if len(replies) == 0 {
			return ""
		}
		r := replies[next]
		if next < len(replies)-1 {
			next++
		}
		return r
	}
}

// Device is a scripted evaluator device. It implements ports.Opener; every Open
// returns a fresh channel that answers each request line through the Responder.
// Safe for concurrent use.
type Device struct {
	mu       sync.Mutex
	respond  Responder
	latency  time.Duration
	openErr  error
	requests []string
	opens    int
	closes   int
}

// DeviceOption configures a Device.
type DeviceOption func(*Device)

// WithLatency delays every reply by d.
func WithLatency(d time.Duration) DeviceOption {
	return func(dev *Device) {
		dev.latency = d
	}
}

// WithOpenError makes every Open fail with err.
func WithOpenError(err error) DeviceOption {
	return func(dev *Device) {
		dev.openErr = err
	}
}

// NewDevice creates a scripted device.
func NewDevice(respond Responder, opts ...DeviceOption) *Device {
	d := &Device{respond: respond}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ ports.Opener = (*Device)(nil)

// Open returns a channel to the device.
func (d *Device) Open(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opens++
	return &channel{device: d, interval: cfg.WithDefaults().Timeouts.ReadInterval}, nil
}

// Requests returns the request lines received so far, oldest first.
func (d *Device) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

// Opens returns the number of successful opens.
func (d *Device) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Closes returns the number of closed channels.
func (d *Device) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

func (d *Device) answer(request string) string {
	d.mu.Lock()
	d.requests = append(d.requests, request)
	respond := d.respond
	d.mu.Unlock()
	if respond == nil {
		return ""
	}
	return respond(request)
}

type channel struct {
	mu       sync.Mutex
	device   *Device
	interval time.Duration
	line     bytes.Buffer
	reply    bytes.Buffer
	readyAt  time.Time
	closed   bool
}

func (c *channel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, domain.ErrChannelUnavailable
	}
	for _, b := range p {
		if b != '\n' {
			c.line.WriteByte(b)
			continue
		}
		c.reply.WriteString(c.device.answer(c.line.String()))
		c.line.Reset()
		c.readyAt = time.Now().Add(c.device.latency)
	}
	return len(p), nil
}

// Read behaves like a serial port with an interval timeout: it waits at most one
// interval for data and returns (0, nil) when none arrived.
func (c *channel) Read(p []byte) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, domain.ErrChannelUnavailable
	}
	wait := time.Until(c.readyAt)
	if c.reply.Len() == 0 {
		wait = c.interval
	}
	if wait > 0 {
		c.mu.Unlock()
		time.Sleep(min(wait, c.interval))
		c.mu.Lock()
		if time.Now().Before(c.readyAt) || c.reply.Len() == 0 {
			c.mu.Unlock()
			return 0, nil
		}
	}
	defer c.mu.Unlock()
	return c.reply.Read(p)
}

func (c *channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.device.mu.Lock()
	c.device.closes++
	c.device.mu.Unlock()
	return nil
}

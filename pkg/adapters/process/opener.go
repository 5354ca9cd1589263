package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

// Scheme prefixes channel names handled by this adapter.
const Scheme = "exec:"

// ExitGrace is how long Close waits for the device to exit after stdin is closed.
const ExitGrace = time.Second

// ErrDeviceNotRegistered is returned when the channel names no registered device.
var ErrDeviceNotRegistered = errors.New("process device not registered")

// Opener starts registered device programs.
// It follows a strict registry pattern: only allow-listed commands can be started.
type Opener struct {
	mu       sync.RWMutex
	registry map[string]DeviceConfig
	baseDir  string
	logger   *slog.Logger
}

// Option configures the Opener.
type Option func(*Opener)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(devices map[string]DeviceConfig) Option {
	return func(o *Opener) {
		for name, dev := range devices {
			dev.Name = name
			o.registry[name] = dev
		}
	}
}

// WithBaseDir sets the working directory for device processes.
func WithBaseDir(dir string) Option {
	return func(o *Opener) {
		o.baseDir = dir
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Opener) {
		o.logger = logger
	}
}

// New creates a process Opener.
func New(opts ...Option) *Opener {
	o := &Opener{
		registry: make(map[string]DeviceConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var _ ports.Opener = (*Opener)(nil)

// Register adds a trusted device program to the allow-list.
func (o *Opener) Register(name, command string, args ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry[name] = DeviceConfig{Name: name, Command: command, Args: args}
}

// Devices returns the registered device names in order.
func (o *Opener) Devices() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.registry))
	for name := range o.registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open starts the device named by cfg.Name (with or without the "exec:" prefix).
func (o *Opener) Open(ctx context.Context, cfg domain.ChannelConfig) (ports.Channel, error) {
	cfg = cfg.WithDefaults()
	name := strings.TrimPrefix(cfg.Name, Scheme)

	o.mu.RLock()
	dev, ok := o.registry[name]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotRegistered, name)
	}

	cmd := exec.Command(dev.Command, dev.Args...)
	cmd.Dir = o.baseDir
	cmd.Env = append(cmd.Environ(),
		"BIFROST_CHANNEL="+name,
		"BIFROST_BAUD="+strconv.Itoa(cfg.Baud),
	)
	for k, v := range dev.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start device %s: %w", name, err)
	}
	o.logger.Debug("Device process started", "device", name, "pid", cmd.Process.Pid)

	ch := &channel{
		cmd:      cmd,
		stdin:    stdin,
		data:     make(chan []byte, 16),
		interval: cfg.Timeouts.ReadInterval,
		logger:   o.logger.With("device", name),
	}
	go ch.pump(stdout)
	return ch, nil
}

type channel struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	data     chan []byte
	pending  []byte
	interval time.Duration
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// pump moves stdout into data until the process closes it.
func (c *channel) pump(r io.Reader) {
	defer close(c.data)
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.data <- chunk
		}
		if err != nil {
			return
		}
	}
}

func (c *channel) Write(p []byte) (int, error) {
	return c.stdin.Write(p)
}

// Read waits at most one interval for output and returns (0, nil) when none arrived.
func (c *channel) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		timer := time.NewTimer(c.interval)
		defer timer.Stop()
		select {
		case chunk, ok := <-c.data:
			if !ok {
				return 0, io.EOF
			}
			c.pending = chunk
		case <-timer.C:
			return 0, nil
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Close closes stdin and reaps the process, killing it after ExitGrace.
func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		_ = c.stdin.Close()

		done := make(chan error, 1)
		go func() {
			// drain so the pump can observe EOF
			for range c.data {
			}
			done <- c.cmd.Wait()
		}()

		select {
		case err := <-done:
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				c.closeErr = err
			}
		case <-time.After(ExitGrace):
			c.logger.Warn("Device did not exit, killing it", "grace", ExitGrace)
			_ = c.cmd.Process.Kill()
			<-done
		}
	})
	return c.closeErr
}

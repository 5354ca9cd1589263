package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/internal/config"
	"github.com/aretw0/bifrost/pkg/adapters"
	"github.com/aretw0/bifrost/pkg/adapters/process"
	redisadapter "github.com/aretw0/bifrost/pkg/adapters/redis"
	"github.com/aretw0/bifrost/pkg/adapters/serial"
	"github.com/aretw0/bifrost/pkg/adapters/tcp"
	"github.com/aretw0/bifrost/pkg/bridge"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/observability"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/aretw0/bifrost/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Stack holds the dependencies shared by every command: the transport
// router, the optional Redis lock, metrics and logging hooks.
type Stack struct {
	Config   config.Config
	Logger   *slog.Logger
	Router   *adapters.Router
	Devices  *process.Opener
	Locker   ports.DistributedLocker
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Hooks    domain.EvaluationHooks

	closers []func() error
}

// NewStack wires the stack for opts.Config.
// A devices file that fails to load is logged and leaves the exec: route empty.
func NewStack(opts Options) (*Stack, error) {
	cfg := opts.Config
	logger := createLogger(opts.Debug, cfg.LogLevel)

	devices, err := process.LoadDevices(cfg.Devices)
	if err != nil {
		logger.Warn("Failed to load devices config", "path", cfg.Devices, "error", err)
	}
	proc := process.New(
		process.WithRegistry(devices),
		process.WithBaseDir(filepath.Dir(cfg.Devices)),
		process.WithLogger(logger),
	)

	s := &Stack{
		Config:  cfg,
		Logger:  logger,
		Devices: proc,
		Router: adapters.NewRouter(
			adapters.WithRoute(process.Scheme, proc),
			adapters.WithRoute(tcp.Scheme, tcp.New(tcp.WithLogger(logger))),
			adapters.WithFallback(serial.New(serial.WithLogger(logger))),
		),
		Registry: prometheus.NewRegistry(),
	}

	s.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.Metrics = observability.NewMetrics(s.Registry)
	s.Hooks = s.Metrics.Hooks().Merge(observability.LogHooks(logger))

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		s.Locker = redisadapter.NewLocker(client, cfg.Redis.Prefix)
		s.closers = append(s.closers, client.Close)
		logger.Info("Distributed channel lock enabled", "addr", cfg.Redis.Addr)
	}

	return s, nil
}

// NewCalculator creates a Calculator on the configured channel.
func (s *Stack) NewCalculator(opts ...bifrost.Option) *bifrost.Calculator {
	base := []bifrost.Option{
		bifrost.WithLogger(s.Logger),
		bifrost.WithChannel(s.Config.ChannelConfig()),
		bifrost.WithHooks(s.Hooks),
	}
	if s.Locker != nil {
		base = append(base, bifrost.WithLocker(s.Locker))
	}
	return bifrost.New(s.Router, append(base, opts...)...)
}

// NewBridge creates a stateless bridge for raw expressions.
func (s *Stack) NewBridge() *bridge.Bridge {
	opts := []bridge.Option{
		bridge.WithLogger(s.Logger),
		bridge.WithHooks(s.Hooks),
	}
	if s.Locker != nil {
		opts = append(opts, bridge.WithLocker(s.Locker))
	}
	return bridge.New(s.Router, opts...)
}

// NewSessionManager creates a session registry of calculators.
func (s *Stack) NewSessionManager() *session.Manager {
	opts := []session.Option{session.WithLogger(s.Logger)}
	if s.Locker != nil {
		opts = append(opts, session.WithLocker(s.Locker))
	}
	return session.NewManager(func(string) ports.Calculator {
		return s.NewCalculator()
	}, opts...)
}

// Close releases the stack's connections.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

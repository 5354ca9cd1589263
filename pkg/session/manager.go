package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Factory builds the calculator for a new session.
type Factory func(id string) ports.Calculator

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the calculators of all sessions and serializes access to each of them.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	factory Factory

	mu       sync.RWMutex
	sessions map[string]ports.Calculator

	locksMu sync.Mutex
	locks   map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking of sessions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session Manager that builds calculators with factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		sessions: make(map[string]ports.Calculator),
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new session with a random ID.
func (m *Manager) Create() (string, ports.Calculator) {
	id := uuid.NewString()
	calc := m.factory(id)

	m.mu.Lock()
	m.sessions[id] = calc
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", id)
	return id, calc
}

// Get returns the calculator of a session.
func (m *Manager) Get(id string) (ports.Calculator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calc, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return calc, nil
}

// GetOrCreate returns the calculator of a session, creating it under the given ID if needed.
func (m *Manager) GetOrCreate(id string) ports.Calculator {
	m.mu.Lock()
	defer m.mu.Unlock()
	calc, ok := m.sessions[id]
	if !ok {
		calc = m.factory(id)
		m.sessions[id] = calc
		m.logger.Debug("Session created", "session_id", id)
	}
	return calc
}

// Delete removes a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns the session IDs in lexical order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock runs fn on the session calculator while holding the session lock.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context, ports.Calculator) error) error {
	calc, err := m.Get(id)
	if err != nil {
		return err
	}

	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "session:"+id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx, calc)
}

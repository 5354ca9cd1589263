package session_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/pkg/adapters/memory"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/aretw0/bifrost/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(opts ...session.Option) (*session.Manager, *memory.Device) {
	dev := memory.NewDevice(func(req string) string { return strconv.Itoa(len(req)) })
	cfg := domain.ChannelConfig{
		Name:     "mem",
		Timeouts: domain.Timeouts{ReadInterval: time.Millisecond, ReadTotalConstant: 100 * time.Millisecond},
	}
	return session.NewManager(func(string) ports.Calculator {
		return bifrost.New(dev, bifrost.WithChannel(cfg))
	}, opts...), dev
}

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := newManager()

	id, calc := m.Create()
	require.NotEmpty(t, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, calc, got)

	assert.Equal(t, []string{id}, m.List())

	require.NoError(t, m.Delete(id))
	_, err = m.Get(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(id), domain.ErrSessionNotFound)
}

func TestManager_GetOrCreate(t *testing.T) {
	m, _ := newManager()
	a := m.GetOrCreate("desk")
	b := m.GetOrCreate("desk")
	assert.Same(t, a, b)
	assert.Equal(t, []string{"desk"}, m.List())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m, _ := newManager()
	idA, calcA := m.Create()
	_, calcB := m.Create()

	require.NoError(t, calcA.Insert(context.Background(), domain.TokenSeven))
	assert.Equal(t, "7", calcA.Snapshot().Text)
	assert.Empty(t, calcB.Snapshot().Text)

	err := m.WithLock(context.Background(), idA, func(ctx context.Context, calc ports.Calculator) error {
		_, err := calc.Evaluate(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"7 = 1"}, calcA.Snapshot().History)
	assert.Empty(t, calcB.Snapshot().History)
}

func TestManager_WithLockSerializes(t *testing.T) {
	m, _ := newManager()
	id, _ := m.Create()

	var mu sync.Mutex
	active, peak := 0, 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithLock(context.Background(), id, func(ctx context.Context, calc ports.Calculator) error {
				mu.Lock()
				active++
				peak = max(peak, active)
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return calc.Insert(ctx, domain.TokenOne)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
	calc, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "1111111111", calc.Snapshot().Text)
}

func TestManager_WithDistributedLocker(t *testing.T) {
	locker := memory.NewLocker()
	m, _ := newManager(session.WithLocker(locker))
	id, _ := m.Create()

	// another replica holds the session
	unlock, err := locker.Lock(context.Background(), "session:"+id, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = m.WithLock(ctx, id, func(context.Context, ports.Calculator) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(context.Background()))
	err = m.WithLock(context.Background(), id, func(context.Context, ports.Calculator) error { return nil })
	assert.NoError(t, err)
}

func TestManager_UnknownSession(t *testing.T) {
	m, _ := newManager()
	err := m.WithLock(context.Background(), "nope", func(context.Context, ports.Calculator) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a DistributedLocker implementation
// adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-port-" + time.Now().Format("20060102150405")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock should not return error")
		require.NotNil(t, unlock)

		require.NoError(t, unlock(ctx), "Unlock should not return error")
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)

		ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()

		_, err = locker.Lock(ctxTimeout, key, 5*time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "second Lock should block until the deadline")

		require.NoError(t, unlock(ctx))

		unlock2, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err, "Lock should succeed after release")
		require.NoError(t, unlock2(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		unlockA, err := locker.Lock(ctx, key+"-a", 5*time.Second)
		require.NoError(t, err)
		defer unlockA(ctx)

		ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
		defer cancel()

		unlockB, err := locker.Lock(ctxTimeout, key+"-b", 5*time.Second)
		require.NoError(t, err, "different keys must not contend")
		require.NoError(t, unlockB(ctx))
	})
}

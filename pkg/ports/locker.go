package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for exclusive access to an evaluator channel.
// It allows several sessions or processes to share one device without interleaving requests.
type DistributedLocker interface {
	// Lock attempts to acquire the lock for the given key (e.g., a port name).
	// It blocks until the lock is acquired, the context is canceled, or the TTL expires (implementation specific).
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}

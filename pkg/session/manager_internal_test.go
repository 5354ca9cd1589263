package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/bifrost/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(func(string) ports.Calculator { return nil })
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("session-%d", i)
		mgr.GetOrCreate(id)
		_ = mgr.WithLock(ctx, id, func(context.Context, ports.Calculator) error { return nil })
		_ = mgr.Delete(id)
	}

	assert.Empty(t, mgr.locks, "lock entries are released with their last user")
	assert.Empty(t, mgr.sessions)
}

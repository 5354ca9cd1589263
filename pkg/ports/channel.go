package ports

import (
	"context"
	"io"

	"github.com/aretw0/bifrost/pkg/domain"
)

// Channel is an open byte-stream session to the evaluator device.
// Read returns (0, nil) or a timeout error when the configured interval elapses
// without data; Close must be safe to call more than once.
type Channel interface {
	io.ReadWriteCloser
}

// Opener opens a Channel for the given configuration.
type Opener interface {
	Open(ctx context.Context, cfg domain.ChannelConfig) (Channel, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, cfg domain.ChannelConfig) (Channel, error)

// Open calls f(ctx, cfg).
func (f OpenerFunc) Open(ctx context.Context, cfg domain.ChannelConfig) (Channel, error) {
	return f(ctx, cfg)
}

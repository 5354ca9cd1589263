package ports

import (
	"context"

	"github.com/aretw0/bifrost/pkg/domain"
)

// Calculator is the driving port used by the presentation adapters (runner, HTTP, MCP).
// It mirrors the editor input surface plus the evaluate event.
type Calculator interface {
	// Insert applies one keypad token to the buffer.
	Insert(ctx context.Context, id domain.TokenID) error

	// Delete removes the selection or the rune before the caret.
	Delete()

	// Clear empties the buffer and the history.
	Clear()

	// Reset empties the buffer, the history and the last result.
	Reset()

	// SetCaret moves the caret; negative positions are dropped.
	SetCaret(pos int)

	// Select sets the buffer selection.
	Select(start, length int)

	// SelectHistory inserts the result of a history entry at the caret.
	SelectHistory(index int) error

	// Evaluate sends the buffer to the device and records the result.
	Evaluate(ctx context.Context) (domain.NormalizedValue, error)

	// Snapshot returns the current presentation state.
	Snapshot() domain.Snapshot
}

// ExpressionEvaluator sends a finished expression to the device.
// It is implemented by the bridge and is stateless across calls.
type ExpressionEvaluator interface {
	Evaluate(ctx context.Context, expression string, cfg domain.ChannelConfig) (domain.NormalizedValue, error)
}

package runner

import (
	"context"

	"github.com/aretw0/bifrost/pkg/domain"
)

// Frame is what the runner emits after each command.
type Frame struct {
	State domain.Snapshot `json:"state"`
	// Result is set after a successful evaluation.
	Result string `json:"result,omitempty"`
	// Error and Kind are set when the command failed.
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
	// ShowHistory asks text renderers to include the history.
	ShowHistory bool `json:"-"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Input reads one command line.
	Input(ctx context.Context) (string, error)

	// Output presents the state after a command.
	Output(ctx context.Context, frame Frame) error

	// SystemOutput presents a meta-message (help, banners).
	SystemOutput(ctx context.Context, msg string) error
}

// FrameRenderer transforms a frame into display text.
// This allows rich terminal rendering without coupling the core package.
type FrameRenderer func(Frame) (string, error)

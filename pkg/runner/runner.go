package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/aretw0/bifrost/pkg/ports"
)

// DefaultGreeting is printed when an interactive session starts.
const DefaultGreeting = `Type keys separated by spaces and "=" to evaluate. "help" lists the commands.`

// Runner reads commands from its handler and applies them to a Calculator.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Headless suppresses the greeting and the initial frame.
	Headless bool

	// Greeting overrides DefaultGreeting.
	Greeting string
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:   logging.NewNop(),
		Greeting: DefaultGreeting,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// Run executes the command loop until the input ends, a quit command is read
// or ctx is canceled. Command failures are reported in frames and do not stop the loop.
func (r *Runner) Run(ctx context.Context, calc ports.Calculator) error {
	if !r.Headless {
		if err := r.Handler.SystemOutput(ctx, r.Greeting); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if err := r.Handler.Output(ctx, Frame{State: calc.Snapshot()}); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	for {
		line, err := r.Handler.Input(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				r.Logger.Debug("Runner input: context done", "err", ctx.Err())
				return nil
			case errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
				if oerr := r.Handler.Output(ctx, Frame{State: calc.Snapshot(), Error: err.Error(), Kind: "input"}); oerr != nil {
					return fmt.Errorf("output error: %w", oerr)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			if oerr := r.Handler.Output(ctx, Frame{State: calc.Snapshot(), Error: err.Error(), Kind: "input"}); oerr != nil {
				return fmt.Errorf("output error: %w", oerr)
			}
			continue
		}

		switch cmd.Kind {
		case CommandQuit:
			return nil
		case CommandHelp:
			if err := r.Handler.SystemOutput(ctx, Help); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}

		frame := Execute(ctx, calc, cmd)
		if frame.Error != "" {
			r.Logger.Debug("Command failed", "kind", frame.Kind, "err", frame.Error)
		}
		if err := r.Handler.Output(ctx, frame); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// Execute applies a command to calc and returns the resulting frame.
// Help and quit are handled by the caller and produce a plain state frame.
func Execute(ctx context.Context, calc ports.Calculator, cmd Command) Frame {
	var (
		result string
		err    error
	)

	switch cmd.Kind {
	case CommandInsert:
		for _, id := range cmd.Tokens {
			if err = calc.Insert(ctx, id); err != nil {
				break
			}
		}
		if err == nil && cmd.Evaluate {
			result, err = evaluate(ctx, calc)
		}
	case CommandEvaluate:
		result, err = evaluate(ctx, calc)
	case CommandDelete:
		calc.Delete()
	case CommandClear:
		calc.Clear()
	case CommandReset:
		calc.Reset()
	case CommandCaret:
		calc.SetCaret(cmd.Args[0])
	case CommandSelect:
		calc.Select(cmd.Args[0], cmd.Args[1])
	case CommandHistory:
		err = calc.SelectHistory(cmd.Args[0])
	}

	frame := Frame{
		State:       calc.Snapshot(),
		Result:      result,
		ShowHistory: cmd.Kind == CommandState,
	}
	if err != nil {
		frame.Error = err.Error()
		frame.Kind = domain.ErrorKind(err)
	}
	return frame
}

func evaluate(ctx context.Context, calc ports.Calculator) (string, error) {
	value, err := calc.Evaluate(ctx)
	if err != nil {
		return "", err
	}
	return value.Text, nil
}

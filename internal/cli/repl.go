package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/bifrost"
	"github.com/aretw0/bifrost/internal/presentation/tui"
	"github.com/aretw0/bifrost/pkg/runner"
)

// RunRepl runs an interactive keypad session until the input ends, the user
// quits or a signal arrives.
func RunRepl(ctx context.Context, opts Options) error {
	opts = opts.withDefaults()
	quiet := opts.JSON || opts.Headless

	stack, err := NewStack(opts)
	if err != nil {
		return err
	}
	defer stack.Close()

	if !quiet {
		tui.PrintBanner(opts.Out, bifrost.Version)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	calc := stack.NewCalculator()
	stack.Logger.Info("Session started", "channel", calc.Channel().Name, "baud", calc.Channel().Baud)
	if !quiet {
		printSystemMessage(opts.Out, "Channel %s at %d baud.", calc.Channel().Name, calc.Channel().Baud)
	}

	r := runner.NewRunner(createRunnerOptions(stack.Logger, opts)...)
	runErr := r.Run(sigCtx, calc)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(opts.Out, runErr, quiet, sigCtx.Signal())
	if err := handleExecutionError(runErr); err != nil {
		return fmt.Errorf("session failed: %w", err)
	}
	return nil
}

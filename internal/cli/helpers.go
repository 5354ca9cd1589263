package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/bifrost/internal/logging"
	"github.com/aretw0/bifrost/internal/presentation/tui"
	"github.com/aretw0/bifrost/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on Stderr, keeping Stdout
// for the session. Without --debug or a configured level it is silent.
func createLogger(debug bool, level string) *slog.Logger {
	switch {
	case debug:
		return logging.New(slog.LevelDebug)
	case level != "":
		return logging.New(logging.ParseLevel(level))
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(logger *slog.Logger, opts Options) []runner.Option {
	ropts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
	}

	if opts.JSON {
		return append(ropts, runner.WithInputHandler(runner.NewJSONHandler(opts.In, opts.Out)))
	}

	var handlerOpts []runner.TextHandlerOption
	if f, ok := opts.Out.(*os.File); ok && tui.IsTerminal(f) && !opts.Headless {
		if render, err := tui.NewFrameRenderer(); err == nil {
			handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(render))
		} else {
			logger.Debug("Falling back to plain frames", "err", err)
		}
	}
	return append(ropts, runner.WithInputHandler(runner.NewTextHandler(opts.In, opts.Out, handlerOpts...)))
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return err
}

func logCompletion(w io.Writer, err error, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	switch {
	case err != nil && !isInterrupted(err):
		return
	case sig == os.Interrupt:
		fmt.Fprintln(w, "[CTRL+C]")
		printSystemMessage(w, "Interrupted.")
	case sig != nil:
		fmt.Fprintln(w)
		printSystemMessage(w, "Terminated.")
	default:
		printSystemMessage(w, "Bye.")
	}
}

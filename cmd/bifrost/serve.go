package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/bifrost/internal/cli"
	httpAdapter "github.com/aretw0/bifrost/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves keypad sessions, raw evaluation and Prometheus metrics over HTTP.
Every session shares the configured channel; with --redis the channel is
also locked across processes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			opts.Config.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}
		if opts.Config.LogLevel == "" {
			opts.Config.LogLevel = "info"
		}

		stack, err := cli.NewStack(opts)
		if err != nil {
			return err
		}
		defer stack.Close()

		handler := httpAdapter.NewHandler(stack.NewSessionManager(),
			httpAdapter.WithEvaluator(stack.NewBridge(), stack.Config.ChannelConfig()),
			httpAdapter.WithMetrics(stack.Registry),
			httpAdapter.WithLogger(stack.Logger),
		)

		srv := &http.Server{
			Addr:              opts.Config.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		g, ctx := errgroup.WithContext(sigCtx)
		g.Go(func() error {
			stack.Logger.Info("Starting Bifrost Server", "addr", srv.Addr, "channel", stack.Config.Channel)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			stack.Logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			timeout := opts.Config.HTTP.ShutdownTimeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				stack.Logger.Warn("Graceful shutdown did not complete", "timeout", timeout, "err", err)
				return srv.Close()
			}
			stack.Logger.Info("Bifrost Server stopped gracefully")
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
}

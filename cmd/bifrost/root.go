package main

import (
	"fmt"
	"os"

	"github.com/aretw0/bifrost/internal/cli"
	"github.com/aretw0/bifrost/internal/config"
	"github.com/aretw0/bifrost/pkg/domain"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bifrost",
	Short: "Bifrost drives a serial calculator from a keypad session",
	Long: `Bifrost edits expressions with calculator keys and sends them to an
evaluator device over a serial port, a TCP serial server (tcp://host:port)
or a local device program (exec:<name>).`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	registerPersistentFlags(rootCmd)
}

// registerPersistentFlags adds the flags available to all commands.
func registerPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./"+config.DefaultPath+" when present)")
	flags.String("channel", "", "Evaluator channel: COM4, /dev/ttyUSB0, tcp://host:port or exec:<device>")
	flags.String("baud", "", "Baud rate (invalid values fall back to 9600)")
	flags.String("devices", "", "Devices file for exec: channels")
	flags.String("redis", "", "Redis address for the cross-process channel lock")
	flags.String("log-level", "", "Log level on stderr: debug, info, warn, error")
	flags.Bool("debug", false, "Enable debug logging on stderr")
}

// loadOptions resolves the configuration: file, then BIFROST_* variables, then flags.
func loadOptions(cmd *cobra.Command) (cli.Options, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cli.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("channel") {
		cfg.Channel, _ = flags.GetString("channel")
	}
	if flags.Changed("baud") {
		baud, _ := flags.GetString("baud")
		cfg.Baud = domain.ParseBaud(baud)
	}
	if flags.Changed("devices") {
		cfg.Devices, _ = flags.GetString("devices")
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	debug, _ := flags.GetBool("debug")
	return cli.Options{Config: cfg, Debug: debug}, nil
}

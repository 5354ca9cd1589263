package main

import (
	"github.com/aretw0/bifrost/internal/cli"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive keypad session",
	Long: `Reads keypad commands from stdin: keys separated by spaces, "=" to evaluate,
and "help" for the editing commands. With --json every line is a command and
every answer is one JSON frame.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		return cli.RunRepl(cmd.Context(), opts)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().Bool("headless", false, "Run in headless mode (no banner, no greeting)")
	replCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")

	// 'repl' is the default command
	rootCmd.Flags().AddFlagSet(replCmd.Flags())
	rootCmd.RunE = replCmd.RunE
}

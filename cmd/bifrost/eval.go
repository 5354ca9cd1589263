package main

import (
	"strings"

	"github.com/aretw0/bifrost/internal/cli"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <expression>...",
	Short: "Evaluate one raw expression on the device",
	Example: `  bifrost eval "sqrt(2)*3"
  bifrost eval --channel tcp://lab:4001 --json 1/3`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		opts.JSON, _ = cmd.Flags().GetBool("json")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.RunEval(sigCtx, opts, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Bool("json", false, "Print the result as JSON")
}

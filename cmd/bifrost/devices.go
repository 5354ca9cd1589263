package main

import (
	"github.com/aretw0/bifrost/internal/cli"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the exec: devices of the devices file",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		return cli.ListDevices(opts)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

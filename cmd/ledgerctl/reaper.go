package main

import (
	"github.com/fastprodman/arcadeledger/internal/services/reaper"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reaperCmd)
	reaperCmd.AddCommand(reaperSweepCmd)
}

var reaperCmd = &cobra.Command{
	Use:   "reaper",
	Short: "Inactivity reaper operations",
}

var reaperSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one inactivity sweep now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		n, err := reaper.New(deps.games, deps.cfg.Reaper).Sweep(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(cmd, map[string]int{"expired": n})
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tubesync/internal/lock"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a run is in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			state, err := lock.Inspect(cfg.Paths.LockFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("tubesync", colorize) {
				fmt.Fprintln(out, line)
			}
			kind, message := lockStatus(state)
			fmt.Fprintln(out, renderStatusLine("Run", kind, message, colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, cfg.Paths.LockFile, colorize))
			fmt.Fprintln(out, renderStatusLine("Queue file", statusInfo, cfg.Paths.QueueFile, colorize))
			fmt.Fprintln(out, renderStatusLine("Destination", statusInfo, cfg.Relocate.Destination, colorize))
			return nil
		},
	}
}

func lockStatus(state lock.State) (statusKind, string) {
	switch state {
	case lock.StateHeld:
		return statusOK, "Running"
	case lock.StateStale:
		return statusWarn, "Stale lock marker (no live holder); remove it or enable lock.reclaim_stale"
	default:
		return statusInfo, "Idle"
	}
}

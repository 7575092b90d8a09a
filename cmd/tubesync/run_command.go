package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tubesync/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue once (default action)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, ctx)
		},
	}
}

func runBatch(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runner, err := workflow.New(cfg, logger)
	if err != nil {
		return err
	}
	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	if ctx.verboseEnabled() && !summary.Deferred {
		fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %d processed, %d skipped\n",
			summary.Entries, summary.Processed, summary.Skipped)
	}
	return nil
}

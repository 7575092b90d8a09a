package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tubesync/internal/preflight"
	"tubesync/internal/workflow"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the environment without processing the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			clients, err := workflow.NewClients(cfg, nil, logger)
			if err != nil {
				return err
			}
			validator := preflight.NewValidator(cfg, clients.Relocator, logger)
			caps, results, runErr := validator.Run(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				resultRows(results),
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			colorize := shouldColorize(out)
			if runErr != nil {
				fmt.Fprintln(out, renderStatusLine("Environment", statusError, "not ready", colorize))
				return runErr
			}
			fmt.Fprintln(out, renderStatusLine("Environment", statusOK, "ready", colorize))
			fmt.Fprintln(out, renderStatusLine("xattrs", xattrKind(cfg.Fetch.XAttrs, caps.XAttrs), yesNo(caps.XAttrs), colorize))
			return nil
		},
	}
}

func resultRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "OK"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return rows
}

func xattrKind(requested, available bool) statusKind {
	switch {
	case available:
		return statusOK
	case requested:
		return statusWarn
	default:
		return statusInfo
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

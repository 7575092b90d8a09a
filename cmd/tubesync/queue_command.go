package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tubesync/internal/queuefile"
	"tubesync/internal/services"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List the queue entries the next run will process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := queuefile.ReadAll(cfg.Paths.QueueFile)
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "queue", "read", cfg.Paths.QueueFile, err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Queue is empty (%s)\n", cfg.Paths.QueueFile)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{strconv.Itoa(entry.Line), entry.URL})
			}
			fmt.Fprintln(out, renderTable([]string{"Line", "URL"}, rows, []columnAlignment{alignRight, alignLeft}))
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), cfg.Paths.QueueFile)
			return nil
		},
	}
}

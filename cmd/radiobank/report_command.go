package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"radiobank/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show the most recent fill run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := report.Open(cfg.Paths.ReportDB)
			if err != nil {
				return fmt.Errorf("open report database: %w", err)
			}
			defer store.Close()

			lastRun, rows, err := store.LastRun(cmd.Context())
			if err != nil {
				return fmt.Errorf("read report database: %w", err)
			}

			out := cmd.OutOrStdout()
			if lastRun == nil {
				fmt.Fprintln(out, "No fill runs recorded yet.")
				return nil
			}

			fmt.Fprintf(out, "Run %s into %s\n", lastRun.ID, lastRun.TargetDir)
			fmt.Fprintf(out, "Catalog: %s\n", lastRun.CatalogDesc)
			fmt.Fprintf(out, "Layout: %d banks x %d stations, seed %d\n", lastRun.Banks, lastRun.Stations, lastRun.Seed)
			fmt.Fprintf(out, "Started: %s\n", lastRun.StartedAt.Local().Format(time.RFC1123))
			if lastRun.FinishedAt != nil {
				fmt.Fprintf(out, "Finished: %s\n", lastRun.FinishedAt.Local().Format(time.RFC1123))
			} else {
				fmt.Fprintln(out, "Finished: still running or interrupted")
			}

			tableRows := make([]table.Row, 0, len(rows))
			for _, row := range rows {
				detail := row.OutputPath
				if row.Error != "" {
					detail = row.Error
				}
				tableRows = append(tableRows, table.Row{
					stationLabel(row.Bank, row.Station),
					string(row.Outcome),
					row.ClipCount,
					formatDuration(time.Duration(row.FillSeconds * float64(time.Second))),
					detail,
				})
			}
			fmt.Fprintln(out, renderTable(table.Row{"Station", "Outcome", "Clips", "Filled", "Detail"}, tableRows, 3, 4))
			return nil
		},
	}
}

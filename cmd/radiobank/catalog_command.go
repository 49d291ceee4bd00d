package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"radiobank/internal/catalog"
	"radiobank/internal/services/sox"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the configured catalog",
	}

	catalogCmd.AddCommand(newCatalogSectionsCommand(ctx))

	return catalogCmd
}

func newCatalogSectionsCommand(ctx *commandContext) *cobra.Command {
	var catalogFlag string
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List catalog sections with clip counts and total durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if catalogFlag != "" {
				cfg.Catalog.Source = catalogFlag
			}
			if dirFlag != "" {
				cfg.Catalog.LocalDir = dirFlag
			}

			encoder := sox.NewCLI(sox.WithBinary(cfg.Audio.SoxBinary))
			source, err := buildCatalogSource(cfg, encoder, logger)
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cmd.Context(), logger, source.source)
			if err != nil {
				return err
			}

			rows := make([]table.Row, 0, cat.SectionCount())
			for _, section := range cat.Sections() {
				rows = append(rows, table.Row{
					section.ID,
					section.Name,
					len(section.Clips),
					formatDuration(section.TotalDuration()),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Catalog %s: %d sections, %d clips\n", source.desc, cat.SectionCount(), cat.ClipCount())
			fmt.Fprintln(out, renderTable(table.Row{"Section", "Name", "Clips", "Duration"}, rows, 3, 4))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFlag, "catalog", "", "Catalog source (ubuweb or dir)")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Local catalog directory for the dir source")

	return cmd
}

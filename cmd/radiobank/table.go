package main

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"radiobank/internal/report"
)

// renderTable renders rows in the CLI house style. Columns listed in numeric
// (1-based) hold counts or durations and are right aligned.
func renderTable(headers table.Row, rows []table.Row, numeric ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	tw.AppendRows(rows)

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, column := range numeric {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderOutcomeCounts tallies stations per outcome in a stable order.
func renderOutcomeCounts(counts map[report.Outcome]int) string {
	outcomes := make([]report.Outcome, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })

	rows := make([]table.Row, 0, len(outcomes))
	for _, outcome := range outcomes {
		rows = append(rows, table.Row{string(outcome), counts[outcome]})
	}
	return renderTable(table.Row{"Outcome", "Stations"}, rows, 2)
}

// stationLabel formats a bank/station pair the way files are laid out on the
// card.
func stationLabel(bank, station int) string {
	return fmt.Sprintf("%02d/%02d", bank, station)
}

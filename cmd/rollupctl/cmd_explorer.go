package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
	"github.com/rollups-terminal/rollupsx/pkg/rollup"
)

// explorerCmd fetches one explorer bundle
var explorerCmd = &cobra.Command{
	Use:   "explorer <baseURL>",
	Short: "Fetch the explorer metrics of one chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		return writeExplorerMetrics(cmd.OutOrStdout(), c.Explorer.FetchMetrics(cmd.Context(), args[0]))
	},
}

func init() {
	rootCmd.AddCommand(explorerCmd)
}

func writeExplorerMetrics(w io.Writer, m rollup.ExplorerMetrics) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range []struct {
		label string
		v     metric.Value
	}{
		{"total addresses", m.TotalAddresses},
		{"total transactions", m.TotalTransactions},
		{"transactions today", m.TransactionsToday},
		{"transactions (30d)", m.Last30DaysTxCount},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", f.label, metric.FormatForDisplay(f.v))
	}
	return tw.Flush()
}

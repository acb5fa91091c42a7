package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rollups-terminal/rollupsx/pkg/dashboard"
)

// snapshotCmd runs the pipeline once
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Load, enrich and print every tracked chain",
	Long: `Run the pipeline once and print the filtered rows.

Examples:
  rollupctl snapshot
  rollupctl snapshot --provider Conduit --range 1M
  rollupctl snapshot --sort totalTransactions --json`,
	RunE: runSnapshot,
}

var snapshotFlags = map[string]*string{
	"name":      new(string),
	"provider":  new(string),
	"framework": new(string),
	"da":        new(string),
	"vertical":  new(string),
	"layer":     new(string),
	"range":     new(string),
	"min":       new(string),
	"max":       new(string),
	"sort":      new(string),
	"order":     new(string),
}

var snapshotJSON bool

func init() {
	rootCmd.AddCommand(snapshotCmd)

	for name, p := range snapshotFlags {
		snapshotCmd.Flags().StringVar(p, name, "", "Filter or sort by "+name)
	}
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "Print the full dashboard view as JSON")
}

// snapshotQuery turns the flags into URL parameters so the CLI and the API validate identically.
func snapshotQuery() (dashboard.Query, error) {
	v := url.Values{}
	for name, p := range snapshotFlags {
		if *p != "" {
			v.Set(name, *p)
		}
	}
	return dashboard.ParseQuery(v)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	q, err := snapshotQuery()
	if err != nil {
		return fmt.Errorf("invalid snapshot parameters: %w", err)
	}

	c, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	snap, err := c.Pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	view := dashboard.Build(snap, q, c.Palette, time.Now())
	if snapshotJSON {
		return writeViewJSON(cmd.OutOrStdout(), view)
	}
	return writeViewTable(cmd.OutOrStdout(), view)
}

func writeViewJSON(w io.Writer, view dashboard.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func writeViewTable(w io.Writer, view dashboard.View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "NAME\tPROVIDER\tLAYER\tLAUNCHED\tADDRESSES\tTXS\tTXS TODAY\tTXS 30D\tTVL"
	if view.HasL3 {
		header += "\tSETTLEMENT"
	}
	fmt.Fprintln(tw, header)
	for _, r := range view.Rows {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s",
			r.Name, r.Provider, r.Layer, r.LaunchDate,
			r.Display.TotalAddresses, r.Display.TotalTransactions, r.Display.TransactionsToday,
			r.Display.Last30DaysTxCount, r.Display.TotalValueLocked)
		if view.HasL3 {
			line += "\t" + r.Settlement
		}
		fmt.Fprintln(tw, line)
	}
	fmt.Fprintf(tw, "\n%d chains\t\t\t\t%s\t%s\t\t\t%s\n",
		view.Totals.Chains, view.Totals.TotalAddresses, view.Totals.TotalTransactions, view.Totals.TotalValueLocked)
	return tw.Flush()
}

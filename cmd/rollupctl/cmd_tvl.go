package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rollups-terminal/rollupsx/pkg/metric"
)

var tvlRaw bool

// tvlCmd resolves one project's TVL
var tvlCmd = &cobra.Command{
	Use:   "tvl <projectId>",
	Short: "Resolve the TVL of one project",
	Long: `Resolve a project's TVL through TVL_ENDPOINT, or with --raw print the
upstream chart payload the proxy would relay.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		if tvlRaw {
			body, err := c.Proxy.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return err
		}

		v := c.Resolver.Resolve(cmd.Context(), args[0])
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", args[0], v, metric.FormatForDisplay(v))
		return err
	},
}

func init() {
	rootCmd.AddCommand(tvlCmd)
	tvlCmd.Flags().BoolVar(&tvlRaw, "raw", false, "Print the raw upstream payload")
}

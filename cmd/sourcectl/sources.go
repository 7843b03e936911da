package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/injector"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the enabled sources and their trust tiers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		agg, cleanup, err := injector.InitializeAggregator(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}
		defer cleanup()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tTIER")
		for _, s := range agg.Sources() {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, s.Name, s.Tier)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

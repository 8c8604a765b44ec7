package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyashahama/management-diagnostic/internal/config"
	"github.com/nyashahama/management-diagnostic/internal/store"
)

var leadsCmd = &cobra.Command{
	Use:   "leads <email>",
	Short: "List ledger entries for an email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("leads: DATABASE_URL is not set")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		pool, queries, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()

		leads, err := store.New(pool, queries).Q().ListLeadsByEmail(ctx, args[0])
		if err != nil {
			return fmt.Errorf("list leads: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(leads) == 0 {
			fmt.Fprintf(out, "no leads for %s\n", args[0])
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COMPLETED\tNAME\tCOMPANY\tVARIANT\tSCORE\tID")
		for _, l := range leads {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%g/%g\t%s\n",
				l.CompletedAt.Format(time.RFC3339), l.Name, l.Company, l.Variant,
				l.OverallScore, l.OverallMax, l.ID)
		}
		return tw.Flush()
	},
}

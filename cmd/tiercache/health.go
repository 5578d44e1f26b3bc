package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/health"
)

// healthFlags holds the flags for the health command.
type healthFlags struct {
	warn     float64
	critical float64
}

func newHealthCmd(root *rootFlags) *cobra.Command {
	var opts healthFlags
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the store and the byte budget",
		Long:  `Check the store and the byte budget. Exits 1 when any check is unhealthy.`,
		Args:  cobra.NoArgs,
		RunE: withSession(root, func(cmd *cobra.Command, _ []string, s *session) error {
			agg := health.NewAggregator()
			agg.Register("sqlite", health.NewPingChecker("sqlite", s.db))
			agg.Register("budget", health.NewBudgetChecker(s.cache, health.BudgetCheckerConfig{
				WarningThreshold:  opts.warn,
				CriticalThreshold: opts.critical,
			}))

			report := agg.Report(cmd.Context())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range report.Results {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Result.Status, r.Result.Message)
			}
			fmt.Fprintf(tw, "overall\t%s\t\n", report.Status)
			if err := tw.Flush(); err != nil {
				return err
			}

			if report.Status == health.StatusUnhealthy {
				return fmt.Errorf("%w: cache is unhealthy", health.ErrCheckFailed)
			}
			return nil
		}),
	}
	cmd.Flags().Float64Var(&opts.warn, "warn", 0.8, "Budget usage fraction reported as degraded")
	cmd.Flags().Float64Var(&opts.critical, "critical", 0.95, "Budget usage fraction reported as unhealthy")
	return cmd
}

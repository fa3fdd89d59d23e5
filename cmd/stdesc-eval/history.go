package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-stdesc/internal/history"
	"github.com/jamesainslie/go-stdesc/report"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [sequence]",
		Short: "List recorded runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			showMetrics, _ := cmd.Flags().GetBool("metrics")

			var sequence string
			if len(args) == 1 {
				sequence = args[0]
			}

			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			runs, err := store.Runs(ctx, sequence, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs recorded")
				return nil
			}

			fmt.Fprintf(out, "%-19s  %-10s  %-11s  %-11s  %-9s  %-6s  %s\n",
				"Generated", "Sequence", "Scans", "Predictions", "Best", "F1", "Run")
			fmt.Fprintln(out, strings.Repeat("-", 100))
			for _, r := range runs {
				best, f1 := "-", "-"
				if r.Evaluated {
					best = report.FormatThreshold(r.BestThreshold)
					f1 = fmt.Sprintf("%.4f", r.BestF1)
				}
				fmt.Fprintf(out, "%-19s  %-10s  %-11s  %-11d  %-9s  %-6s  %s\n",
					r.GeneratedAt.Local().Format(report.TimestampLayout), r.SequenceID,
					fmt.Sprintf("%d-%d", r.First, r.Last), r.Predictions, best, f1, r.ID)

				if showMetrics && r.Evaluated {
					ms, err := store.Metrics(ctx, r.ID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out)
					if err := report.WriteTable(out, "", ms, report.StylePlain); err != nil {
						return err
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum runs to list (0 = all)")
	cmd.Flags().Bool("metrics", false, "print per-threshold metrics for each run")

	return cmd
}

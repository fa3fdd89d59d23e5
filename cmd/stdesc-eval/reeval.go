package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-stdesc/dataset"
	"github.com/jamesainslie/go-stdesc/internal/logger"
	"github.com/jamesainslie/go-stdesc/report"
)

func reevalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reeval <run-dir|archive>",
		Short: "Evaluate archived closures against a ground truth",
		Long: `Load the predicted closures of an earlier run and evaluate them against a
(possibly different) ground-truth file without running the detector again.

The argument is a run directory, a "latest" alias or a predicted_closures.pb
file. With --persist the evaluation is written as a new run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gtPath, _ := cmd.Flags().GetString("ground-truth")
			boxed, _ := cmd.Flags().GetBool("box")
			persist, _ := cmd.Flags().GetBool("persist")

			path := args[0]
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				path = filepath.Join(path, report.ArchiveFile)
			}
			archive, err := report.LoadArchive(path)
			if err != nil {
				return err
			}

			gt, err := dataset.LoadGroundTruth(gtPath)
			if err != nil {
				return err
			}

			res, err := archive.Results(gt)
			if err != nil {
				return err
			}
			if err := res.ComputeMetrics(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			style := report.StylePlain
			if boxed {
				style = report.StyleBox
			}
			if err := report.WriteTable(out, res.SequenceID(), res.Metrics(), style); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := report.WriteSummary(out, res); err != nil {
				return err
			}

			if persist {
				log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
				dir, err := report.NewReporter(cfg.ResultsDir, report.WithLogger(log)).
					Persist(res, report.RunInfo{ID: uuid.NewString(), GeneratedAt: time.Now()})
				if err != nil {
					return err
				}
				res.Seal()
				fmt.Fprintf(out, "Results: %s\n", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringP("ground-truth", "g", "", "ground-truth file (required)")
	cmd.Flags().Bool("box", false, "draw the table with borders")
	cmd.Flags().Bool("persist", false, "write the evaluation as a new run")
	_ = cmd.MarkFlagRequired("ground-truth")

	return cmd
}

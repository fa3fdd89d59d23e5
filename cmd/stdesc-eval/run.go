package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	stdesc "github.com/jamesainslie/go-stdesc"
	"github.com/jamesainslie/go-stdesc/dataset"
	"github.com/jamesainslie/go-stdesc/internal/config"
	"github.com/jamesainslie/go-stdesc/internal/history"
	"github.com/jamesainslie/go-stdesc/internal/logger"
	"github.com/jamesainslie/go-stdesc/matcher"
	"github.com/jamesainslie/go-stdesc/report"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dataset-dir]",
		Short: "Run the detector over a sequence and evaluate it",
		Long: `Feed every scan of the sequence to the detector in order, accumulate its
predicted closures per confidence threshold, evaluate them when ground truth
is available and persist the results.

The detector is either a gRPC service (--matcher) or a recorded detection log
(--replay).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, args, cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("sequence", "", "sequence name (default: dataset directory name)")
	cmd.Flags().String("ground-truth", "", "ground-truth file (default: <dataset>/loop_closures.txt)")
	cmd.Flags().Int("first", 0, "first scan index")
	cmd.Flags().Int("last", -1, "end scan index, exclusive (-1 = all)")
	cmd.Flags().Float64Slice("thresholds", nil, "explicit confidence thresholds")
	cmd.Flags().String("matcher", "", "detector gRPC address")
	cmd.Flags().String("replay", "", "recorded detection log to replay")
	cmd.Flags().String("params", "", "detector parameter file (YAML)")
	cmd.Flags().String("record", "", "write the detections to this log")
	cmd.Flags().Bool("no-history", false, "do not record the run in the history database")

	return cmd
}

func applyRunFlags(cmd *cobra.Command, args []string, cfg *config.Config) error {
	flags := cmd.Flags()
	if len(args) == 1 {
		cfg.Dataset.Path = args[0]
	}
	if flags.Changed("sequence") {
		cfg.Dataset.Sequence, _ = flags.GetString("sequence")
	}
	if flags.Changed("ground-truth") {
		cfg.Dataset.GroundTruth, _ = flags.GetString("ground-truth")
	}
	if flags.Changed("first") {
		cfg.Dataset.First, _ = flags.GetInt("first")
	}
	if flags.Changed("last") {
		cfg.Dataset.Last, _ = flags.GetInt("last")
	}
	if flags.Changed("thresholds") {
		cfg.Sweep.Thresholds, _ = flags.GetFloat64Slice("thresholds")
	}
	if flags.Changed("matcher") {
		cfg.Matcher.Address, _ = flags.GetString("matcher")
	}
	if flags.Changed("replay") {
		cfg.Matcher.Replay, _ = flags.GetString("replay")
	}
	if flags.Changed("params") {
		cfg.Matcher.ParamsFile, _ = flags.GetString("params")
	}
	if flags.Changed("record") {
		cfg.Matcher.Record, _ = flags.GetString("record")
	}
	if noHistory, _ := flags.GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}

	if cfg.Dataset.Path == "" {
		return errors.New("no dataset: pass a directory or set dataset.path")
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, stdout io.Writer) (err error) {
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	var dsOpts []dataset.Option
	if cfg.Dataset.Sequence != "" {
		dsOpts = append(dsOpts, dataset.WithSequenceID(cfg.Dataset.Sequence))
	}
	if cfg.Dataset.GroundTruth != "" {
		dsOpts = append(dsOpts, dataset.WithGroundTruthFile(cfg.Dataset.GroundTruth))
	}
	ds, err := dataset.Open(cfg.Dataset.Path, dsOpts...)
	if err != nil {
		return err
	}

	sweep, err := cfg.Thresholds()
	if err != nil {
		return err
	}

	params, err := matcher.LoadParams(cfg.Matcher.ParamsFile)
	if err != nil {
		return err
	}

	m, closeMatcher, err := openMatcher(ctx, cfg.Matcher, params, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeMatcher()) }()

	if cfg.Matcher.Record != "" {
		f, createErr := os.Create(cfg.Matcher.Record)
		if createErr != nil {
			return fmt.Errorf("creating detection log: %w", createErr)
		}
		rec := matcher.NewRecorder(m, f)
		m = rec
		defer func() { err = errors.Join(err, rec.Flush(), f.Close()) }()
	}

	var persister stdesc.Persister = report.NewReporter(cfg.ResultsDir,
		report.WithLogger(log),
		report.WithParams(params),
	)
	if cfg.History.Enabled {
		store, openErr := history.Open(cfg.HistoryPath())
		if openErr != nil {
			return openErr
		}
		defer func() { err = errors.Join(err, store.Close()) }()
		persister = history.RecordingPersister{Next: persister, Store: store}
	}

	p, err := stdesc.New(ds, m, cfg.ResultsDir,
		stdesc.WithRange(cfg.Dataset.First, cfg.Dataset.Last),
		stdesc.WithSweep(sweep),
		stdesc.WithLogger(log),
		stdesc.WithPersister(persister),
	)
	if err != nil {
		return err
	}

	out, err := p.Run(ctx)
	if err != nil {
		return err
	}
	return printOutcome(stdout, out)
}

// openMatcher builds the configured detector and a func releasing it.
func openMatcher(ctx context.Context, cfg config.MatcherConfig, params matcher.Params, log *slog.Logger) (stdesc.Matcher, func() error, error) {
	noop := func() error { return nil }

	switch {
	case cfg.Replay != "":
		rp, err := matcher.LoadReplay(cfg.Replay)
		if err != nil {
			return nil, noop, err
		}
		log.Info("replaying detections", "path", cfg.Replay, "detections", rp.Len())
		return rp, noop, nil
	case cfg.Address != "":
		r, err := matcher.DialRemote(ctx, cfg.Address, params, matcher.WithCallTimeout(cfg.Timeout))
		if err != nil {
			return nil, noop, err
		}
		log.Info("connected to matcher", "addr", cfg.Address, "params", len(params))
		return r, r.Close, nil
	default:
		return nil, noop, errors.New("no matcher: set --matcher or --replay")
	}
}

func printOutcome(w io.Writer, out *stdesc.Outcome) error {
	res := out.Results
	if res.Evaluated() {
		if err := report.WriteTable(w, res.SequenceID(), res.Metrics(), report.StylePlain); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if err := report.WriteSummary(w, res); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Results: %s\n", out.Dir)
	return err
}

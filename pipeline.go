package stdesc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/go-stdesc/evaluation"
	"github.com/jamesainslie/go-stdesc/pointcloud"
	"github.com/jamesainslie/go-stdesc/report"
)

// NoMatch is the matcher sentinel for "no closure detected".
const NoMatch = -1

// Dataset is an ordered, indexable scan sequence.
type Dataset interface {
	Len() int
	Scan(i int) (pointcloud.Cloud, error)
	SequenceID() string
	// GroundTruth returns closure index pairs in either order, or ok=false
	// when the sequence has no ground truth.
	GroundTruth() (pairs [][2]int, ok bool)
}

// Matcher is a stateful place-recognition engine. It must see every scan
// exactly once, in strictly increasing index order, and returns the best
// earlier candidate (or NoMatch) with a confidence score.
type Matcher interface {
	ProcessNewScan(ctx context.Context, cloud pointcloud.Cloud, scanIndex int) (matchIndex int, score float64, err error)
}

// Persister writes finished results to durable storage and returns the
// directory it wrote.
type Persister interface {
	Persist(res *evaluation.Results, run report.RunInfo) (string, error)
}

// Outcome is what a completed run hands back to the caller.
type Outcome struct {
	RunID       string
	Results     *evaluation.Results
	Dir         string
	GeneratedAt time.Time
	First, Last int
}

// Pipeline drives a Matcher over a Dataset and evaluates its predictions.
type Pipeline struct {
	dataset   Dataset
	matcher   Matcher
	first     int
	last      int
	sweep     evaluation.Sweep
	persister Persister
	now       func() time.Time
	logger    *slog.Logger
	progress  int
	ran       bool
}

// New creates a Pipeline writing under resultsDir.
func New(ds Dataset, m Matcher, resultsDir string, opts ...Option) (*Pipeline, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	if m == nil {
		return nil, ErrNilMatcher
	}
	if err := report.ValidateSequenceID(ds.SequenceID()); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	n := ds.Len()
	last := cfg.last
	if last < 0 {
		last = n
	}
	if cfg.first < 0 || cfg.first > last || last > n {
		return nil, fmt.Errorf("%w: [%d, %d) of %d scans", ErrInvalidRange, cfg.first, last, n)
	}

	persister := cfg.persister
	if persister == nil {
		persister = report.NewReporter(resultsDir, report.WithLogger(cfg.logger))
	}

	return &Pipeline{
		dataset:   ds,
		matcher:   m,
		first:     cfg.first,
		last:      last,
		sweep:     cfg.sweep,
		persister: persister,
		now:       cfg.now,
		logger:    cfg.logger,
		progress:  cfg.progressEvery,
	}, nil
}

// Run processes every scan in range, evaluates the predictions when ground
// truth is available and persists the results. A Pipeline runs once.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if p.ran {
		return nil, ErrAlreadyRun
	}
	p.ran = true

	gt, hasGT := p.dataset.GroundTruth()
	if !hasGT {
		gt = nil
	} else if gt == nil {
		gt = [][2]int{}
	}

	seq := p.dataset.SequenceID()
	res, err := evaluation.NewResults(seq, gt, p.sweep)
	if err != nil {
		return nil, fmt.Errorf("creating results: %w", err)
	}

	logger := p.logger.With("sequence", seq)
	logger.Info("run started", "first", p.first, "last", p.last, "thresholds", p.sweep.Len(), "ground_truth", hasGT)

	started := time.Now()
	if err := p.process(ctx, res, logger); err != nil {
		return nil, err
	}
	logger.Info("scans processed",
		"scans", p.last-p.first,
		"predictions", len(res.Predictions()),
		"elapsed", time.Since(started).Round(time.Millisecond))

	if hasGT {
		if err := res.ComputeMetrics(); err != nil {
			return nil, fmt.Errorf("computing metrics: %w", err)
		}
		if best, ok := evaluation.Best(res.Metrics()); ok {
			logger.Info("evaluation complete", "best_threshold", best.Threshold, "best_f1", best.F1)
		}
	} else {
		logger.Info("no ground truth; skipping evaluation")
	}

	run := report.RunInfo{
		ID:          uuid.NewString(),
		GeneratedAt: p.now(),
		First:       p.first,
		Last:        p.last,
	}
	dir, err := p.persister.Persist(res, run)
	if err != nil {
		return nil, fmt.Errorf("persisting results: %w", err)
	}
	res.Seal()
	logger.Info("results persisted", "dir", dir, "run_id", run.ID)

	return &Outcome{
		RunID:       run.ID,
		Results:     res,
		Dir:         dir,
		GeneratedAt: run.GeneratedAt,
		First:       p.first,
		Last:        p.last,
	}, nil
}

// process feeds scans to the matcher one at a time, in index order.
func (p *Pipeline) process(ctx context.Context, res *evaluation.Results, logger *slog.Logger) error {
	for i := p.first; i < p.last; i++ {
		cloud, err := p.dataset.Scan(i)
		if err != nil {
			return fmt.Errorf("loading scan %d: %w", i, err)
		}

		match, score, err := p.matcher.ProcessNewScan(ctx, cloud, i)
		if err != nil {
			return fmt.Errorf("matching scan %d: %w", i, err)
		}

		if match != NoMatch {
			if err := res.Ingest(i, match, score); err != nil {
				return fmt.Errorf("ingesting scan %d: %w", i, err)
			}
			logger.Debug("closure candidate", "query", i, "match", match, "score", score)
		}

		if p.progress > 0 && (i-p.first+1)%p.progress == 0 {
			logger.Info("progress", "scan", i+1, "of", p.last)
		}
	}
	return nil
}

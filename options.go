package stdesc

import (
	"log/slog"
	"time"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

// Option configures a Pipeline.
type Option func(*config)

type config struct {
	first, last   int // last < 0 means dataset length
	sweep         evaluation.Sweep
	logger        *slog.Logger
	now           func() time.Time
	persister     Persister
	progressEvery int
}

func defaultConfig() config {
	return config{
		first:         0,
		last:          -1,
		sweep:         evaluation.DefaultSweep(),
		logger:        slog.Default(),
		now:           time.Now,
		progressEvery: 100,
	}
}

// WithRange restricts the run to scans [first, last). A negative last means
// the dataset length (default: the whole dataset).
func WithRange(first, last int) Option {
	return func(c *config) {
		c.first = first
		c.last = last
	}
}

// WithSweep sets the confidence thresholds (default: 0.1, 0.2, ..., 0.9).
func WithSweep(s evaluation.Sweep) Option {
	return func(c *config) {
		if s.Len() > 0 {
			c.sweep = s
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source for the results directory timestamp
// (default: time.Now).
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPersister replaces the filesystem reporter.
func WithPersister(p Persister) Option {
	return func(c *config) {
		if p != nil {
			c.persister = p
		}
	}
}

// WithProgressEvery logs progress every n scans (default: 100, 0 disables).
func WithProgressEvery(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.progressEvery = n
		}
	}
}

package report

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

// RunInfo identifies one evaluation run.
type RunInfo struct {
	ID          string
	GeneratedAt time.Time
	First, Last int
}

// Reporter persists results into a versioned directory tree:
//
//	<root>/stdesc_results/<sequence>/<timestamp>/
//	    predicted_closures.pb
//	    manifest.json
//	    metrics.txt    (evaluated runs only)
//	    metrics.xlsx   (evaluated runs only, unless disabled)
//	<root>/stdesc_results/<sequence>/latest -> <timestamp>
type Reporter struct {
	root     string
	logger   *slog.Logger
	params   map[string]float64
	workbook bool
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithParams records the matcher parameters in each run manifest.
func WithParams(params map[string]float64) ReporterOption {
	return func(r *Reporter) {
		r.params = params
	}
}

// WithoutWorkbook skips writing metrics.xlsx.
func WithoutWorkbook() ReporterOption {
	return func(r *Reporter) {
		r.workbook = false
	}
}

// NewReporter creates a Reporter writing under root.
func NewReporter(root string, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		root:     root,
		logger:   slog.Default(),
		workbook: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Persist writes res into a new run directory named after run.GeneratedAt,
// then repoints the latest alias at it. Metrics files are written only when
// res has been evaluated; the closures archive and manifest always are.
// Metrics files left in the directory by an earlier run that this one does
// not rewrite are removed.
func (r *Reporter) Persist(res *evaluation.Results, run RunInfo) (string, error) {
	if err := ValidateSequenceID(res.SequenceID()); err != nil {
		return "", err
	}
	seqDir := SequenceDir(r.root, res.SequenceID())
	dir := RunDir(r.root, res.SequenceID(), run.GeneratedAt)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	metricsPath := filepath.Join(dir, MetricsFile)
	workbookPath := filepath.Join(dir, WorkbookFile)
	if res.Evaluated() {
		if err := writeFile(metricsPath, func(f *os.File) error {
			return WriteReport(f, res)
		}); err != nil {
			return "", err
		}
	} else if err := removeStale(metricsPath); err != nil {
		return "", err
	}
	if res.Evaluated() && r.workbook {
		if err := WriteWorkbook(workbookPath, res); err != nil {
			return "", err
		}
	} else if err := removeStale(workbookPath); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(dir, ArchiveFile), func(f *os.File) error {
		return WriteArchive(f, res)
	}); err != nil {
		return "", err
	}

	if err := WriteManifest(filepath.Join(dir, ManifestFile), NewManifest(res, run, r.params)); err != nil {
		return "", err
	}

	if err := UpdateLatest(seqDir, dir); err != nil {
		return "", err
	}

	r.logger.Debug("run persisted", "dir", dir, "evaluated", res.Evaluated())
	return dir, nil
}

func writeFile(path string, fn func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale %s: %w", filepath.Base(path), err)
	}
	return nil
}

package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ResultsSubdir is the directory created under the results root.
	ResultsSubdir = "stdesc_results"
	// LatestLink names the alias pointing at the newest run of a sequence.
	LatestLink = "latest"
	// TimestampLayout formats run directory names.
	TimestampLayout = "2006-01-02_15-04-05"
)

// Output file names inside a run directory.
const (
	MetricsFile  = "metrics.txt"
	WorkbookFile = "metrics.xlsx"
	ArchiveFile  = "predicted_closures.pb"
	ManifestFile = "manifest.json"
)

// ErrLatestNotLink indicates that the latest alias exists but is not a
// symbolic link, so it will not be replaced.
var ErrLatestNotLink = errors.New("report: latest alias is not a symlink")

// ErrInvalidSequenceID indicates a sequence id that cannot name a single
// directory under the results root.
var ErrInvalidSequenceID = errors.New("report: invalid sequence id")

// ValidateSequenceID rejects ids that are empty, "." or "..", or that
// contain a path separator.
func ValidateSequenceID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSequenceID, id)
	}
	return nil
}

// SequenceDir returns <root>/stdesc_results/<sequence>.
func SequenceDir(root, sequenceID string) string {
	return filepath.Join(root, ResultsSubdir, sequenceID)
}

// RunDir returns the directory for a run of sequenceID generated at t.
func RunDir(root, sequenceID string, t time.Time) string {
	return filepath.Join(SequenceDir(root, sequenceID), t.Format(TimestampLayout))
}

// UpdateLatest points <seqDir>/latest at the run directory named target.
// The link is relative and replaced atomically, so readers see either the
// previous run or the new one.
func UpdateLatest(seqDir, target string) error {
	link := filepath.Join(seqDir, LatestLink)

	if fi, err := os.Lstat(link); err == nil && fi.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%w: %s", ErrLatestNotLink, link)
	}

	tmp := filepath.Join(seqDir, fmt.Sprintf(".%s-%d", LatestLink, os.Getpid()))
	_ = os.Remove(tmp)
	if err := os.Symlink(filepath.Base(target), tmp); err != nil {
		return fmt.Errorf("creating latest link: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing latest link: %w", err)
	}
	return nil
}

// ResolveLatest returns the run directory the latest alias points at.
func ResolveLatest(root, sequenceID string) (string, error) {
	seqDir := SequenceDir(root, sequenceID)
	target, err := os.Readlink(filepath.Join(seqDir, LatestLink))
	if err != nil {
		return "", fmt.Errorf("reading latest link: %w", err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(seqDir, target)
	}
	return target, nil
}

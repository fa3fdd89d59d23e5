// Package dataset provides on-disk scan sequences for the evaluation pipeline.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/go-stdesc/pointcloud"
)

// ErrNoScans indicates a dataset directory without any .bin scans.
var ErrNoScans = errors.New("dataset: no scans found")

// DefaultGroundTruthFile is looked up in the dataset root when no explicit
// ground-truth path is given.
const DefaultGroundTruthFile = "loop_closures.txt"

// Option configures a Dir.
type Option func(*options)

type options struct {
	sequenceID string
	gtPath     string
}

// WithSequenceID overrides the sequence name (default: base name of the root).
func WithSequenceID(id string) Option {
	return func(o *options) {
		if id != "" {
			o.sequenceID = id
		}
	}
}

// WithGroundTruthFile sets the ground-truth file. The file must exist.
func WithGroundTruthFile(path string) Option {
	return func(o *options) {
		o.gtPath = path
	}
}

// Dir is a KITTI-style scan sequence: <root>/velodyne/*.bin (or <root>/*.bin),
// ordered by file name, with optional loop-closure ground truth.
type Dir struct {
	root        string
	sequenceID  string
	scans       []string
	groundTruth [][2]int
	hasGT       bool
}

// Open indexes the scans under root and loads ground truth if present.
func Open(root string, opts ...Option) (*Dir, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	scanDir := filepath.Join(root, "velodyne")
	if info, err := os.Stat(scanDir); err != nil || !info.IsDir() {
		scanDir = root
	}
	scans, err := listScans(scanDir)
	if err != nil {
		return nil, err
	}
	if len(scans) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoScans, scanDir)
	}

	d := &Dir{
		root:       root,
		sequenceID: o.sequenceID,
		scans:      scans,
	}
	if d.sequenceID == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolving dataset root: %w", err)
		}
		d.sequenceID = filepath.Base(abs)
	}

	gtPath := o.gtPath
	if gtPath == "" {
		candidate := filepath.Join(root, DefaultGroundTruthFile)
		if _, err := os.Stat(candidate); err == nil {
			gtPath = candidate
		}
	}
	if gtPath != "" {
		gt, err := LoadGroundTruth(gtPath)
		if err != nil {
			return nil, err
		}
		d.groundTruth = gt
		d.hasGT = true
	}

	return d, nil
}

func listScans(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var scans []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".bin" {
			continue
		}
		scans = append(scans, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(scans)
	return scans, nil
}

// Len returns the number of scans.
func (d *Dir) Len() int { return len(d.scans) }

// SequenceID returns the sequence name.
func (d *Dir) SequenceID() string { return d.sequenceID }

// Scan loads the i-th scan.
func (d *Dir) Scan(i int) (pointcloud.Cloud, error) {
	if i < 0 || i >= len(d.scans) {
		return nil, fmt.Errorf("scan index %d out of range [0, %d)", i, len(d.scans))
	}
	return pointcloud.LoadKITTI(d.scans[i])
}

// GroundTruth returns the closure pairs, or ok=false when the sequence has none.
func (d *Dir) GroundTruth() (pairs [][2]int, ok bool) {
	if !d.hasGT {
		return nil, false
	}
	out := make([][2]int, len(d.groundTruth))
	copy(out, d.groundTruth)
	return out, true
}

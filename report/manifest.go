package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jamesainslie/go-stdesc/evaluation"
)

// Manifest describes a persisted run.
type Manifest struct {
	RunID          string             `json:"run_id"`
	SequenceID     string             `json:"sequence_id"`
	GeneratedAt    time.Time          `json:"generated_at"`
	First          int                `json:"first_scan"`
	Last           int                `json:"last_scan"`
	Thresholds     []float64          `json:"thresholds"`
	ClosureCounts  []int              `json:"closure_counts"`
	Predictions    int                `json:"predictions"`
	GroundTruth    *int               `json:"ground_truth_pairs,omitempty"`
	BestThreshold  *float64           `json:"best_threshold,omitempty"`
	BestF1         *float64           `json:"best_f1,omitempty"`
	MatcherParams  map[string]float64 `json:"matcher_params,omitempty"`
	ArchiveVersion int                `json:"archive_version"`
}

// NewManifest summarizes res for run.
func NewManifest(res *evaluation.Results, run RunInfo, params map[string]float64) Manifest {
	closures := res.Closures()
	counts := make([]int, len(closures))
	for i, c := range closures {
		counts[i] = len(c)
	}

	m := Manifest{
		RunID:          run.ID,
		SequenceID:     res.SequenceID(),
		GeneratedAt:    run.GeneratedAt.UTC(),
		First:          run.First,
		Last:           run.Last,
		Thresholds:     res.Sweep().Thresholds(),
		ClosureCounts:  counts,
		Predictions:    len(res.Predictions()),
		MatcherParams:  params,
		ArchiveVersion: ArchiveVersion,
	}
	if res.HasGroundTruth() {
		n := len(res.GroundTruth())
		m.GroundTruth = &n
	}
	if best, ok := evaluation.Best(res.Metrics()); ok {
		m.BestThreshold = &best.Threshold
		m.BestF1 = &best.F1
	}
	return m
}

// WriteManifest writes m as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest %s: %w", path, err)
	}
	return m, nil
}

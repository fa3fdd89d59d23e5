package evaluation

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGroundTruth indicates metrics were requested for a run without ground truth.
	ErrNoGroundTruth = errors.New("evaluation: no ground truth")

	// ErrResultsSealed indicates a mutation after results were persisted.
	ErrResultsSealed = errors.New("evaluation: results already persisted")
)

// State is the lifecycle stage of a Results value.
type State int

const (
	StateEmpty State = iota
	StatePopulated
	StateEvaluated
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateEvaluated:
		return "evaluated"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Prediction is one raw matcher output that was ingested.
type Prediction struct {
	Query     int
	Candidate int
	Score     float64
}

// Results accumulates predicted closures per threshold and the metrics
// derived from them. It is not safe for concurrent use.
type Results struct {
	sequenceID  string
	sweep       Sweep
	groundTruth PairSet // nil when the dataset has none
	buckets     []PairSet
	predictions []Prediction
	metrics     []Metrics
	state       State
}

// NewResults creates empty results for one sequence. groundTruth may be nil,
// in which case metrics are never computed. Pairs are canonicalized, so
// (a,b) and (b,a) in the input collapse into one closure.
func NewResults(sequenceID string, groundTruth [][2]int, sweep Sweep) (*Results, error) {
	if sweep.Len() == 0 {
		return nil, ErrEmptySweep
	}

	r := &Results{
		sequenceID: sequenceID,
		sweep:      sweep,
		buckets:    make([]PairSet, sweep.Len()),
	}
	for i := range r.buckets {
		r.buckets[i] = make(PairSet)
	}
	if groundTruth != nil {
		r.groundTruth = NewPairSet(groundTruth)
	}
	return r, nil
}

// Restore rebuilds results from previously archived buckets, typically to
// evaluate them against a different ground truth. buckets must have one
// entry per sweep threshold.
func Restore(sequenceID string, groundTruth [][2]int, sweep Sweep, buckets [][]Pair, predictions []Prediction) (*Results, error) {
	r, err := NewResults(sequenceID, groundTruth, sweep)
	if err != nil {
		return nil, err
	}
	if len(buckets) != sweep.Len() {
		return nil, fmt.Errorf("restore: %d buckets for %d thresholds", len(buckets), sweep.Len())
	}

	for i, pairs := range buckets {
		for _, p := range pairs {
			r.buckets[i].Add(p)
		}
	}
	r.predictions = append(r.predictions, predictions...)
	r.state = StatePopulated
	return r, nil
}

// Ingest records one prediction. The canonical pair (candidate, query) is
// added to the bucket of every threshold strictly below score. Scores are
// compared as given and never range-checked.
func (r *Results) Ingest(query, candidate int, score float64) error {
	if r.state == StatePersisted {
		return ErrResultsSealed
	}

	pair := NewPair(candidate, query)
	n := r.sweep.accepted(score)
	for i := 0; i < n; i++ {
		r.buckets[i].Add(pair)
	}
	r.predictions = append(r.predictions, Prediction{Query: query, Candidate: candidate, Score: score})

	// New data invalidates earlier metrics.
	r.metrics = nil
	r.state = StatePopulated
	return nil
}

// ComputeMetrics derives confusion metrics for every threshold. Calling it
// again without further ingestion yields identical metrics.
func (r *Results) ComputeMetrics() error {
	if r.groundTruth == nil {
		return ErrNoGroundTruth
	}
	if r.state == StatePersisted {
		return ErrResultsSealed
	}

	gt := r.groundTruth.Len()
	metrics := make([]Metrics, len(r.buckets))
	for i, bucket := range r.buckets {
		tp := bucket.IntersectLen(r.groundTruth)
		metrics[i] = NewMetrics(r.sweep.thresholds[i], tp, bucket.Len()-tp, gt-tp)
	}

	r.metrics = metrics
	r.state = StateEvaluated
	return nil
}

// Seal marks the results as persisted. Further Ingest or ComputeMetrics
// calls fail with ErrResultsSealed.
func (r *Results) Seal() {
	r.state = StatePersisted
}

// SequenceID returns the dataset name the results belong to.
func (r *Results) SequenceID() string { return r.sequenceID }

// Sweep returns the threshold sweep.
func (r *Results) Sweep() Sweep { return r.sweep }

// State returns the current lifecycle stage.
func (r *Results) State() State { return r.state }

// HasGroundTruth reports whether ground truth was supplied.
func (r *Results) HasGroundTruth() bool { return r.groundTruth != nil }

// GroundTruth returns the canonical ground-truth pairs in sorted order, or
// nil when none was supplied.
func (r *Results) GroundTruth() []Pair {
	if r.groundTruth == nil {
		return nil
	}
	return r.groundTruth.Sorted()
}

// Evaluated reports whether metrics are available for the current buckets.
func (r *Results) Evaluated() bool { return r.metrics != nil }

// Bucket returns a copy of the predicted closures accepted at the i-th
// threshold of the sweep.
func (r *Results) Bucket(i int) PairSet {
	return r.buckets[i].Clone()
}

// Closures returns the sorted predicted closures for every threshold, in
// sweep order.
func (r *Results) Closures() [][]Pair {
	out := make([][]Pair, len(r.buckets))
	for i, b := range r.buckets {
		out[i] = b.Sorted()
	}
	return out
}

// Predictions returns the raw ingested predictions in ingestion order.
func (r *Results) Predictions() []Prediction {
	out := make([]Prediction, len(r.predictions))
	copy(out, r.predictions)
	return out
}

// Metrics returns per-threshold metrics in ascending threshold order, or
// nil if ComputeMetrics has not run since the last Ingest.
func (r *Results) Metrics() []Metrics {
	if r.metrics == nil {
		return nil
	}
	out := make([]Metrics, len(r.metrics))
	copy(out, r.metrics)
	return out
}

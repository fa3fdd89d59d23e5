package evaluation

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/integrate"
)

// ScoreSummary describes the distribution of ingested confidence scores.
type ScoreSummary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P90    float64
	StdDev float64
}

// SummarizeScores computes distribution statistics over the scores of the
// given predictions. An empty input yields a zero summary.
func SummarizeScores(preds []Prediction) (ScoreSummary, error) {
	if len(preds) == 0 {
		return ScoreSummary{}, nil
	}

	data := make(stats.Float64Data, len(preds))
	for i, p := range preds {
		data[i] = p.Score
	}

	var (
		s   = ScoreSummary{Count: len(preds)}
		err error
	)
	if s.Min, err = stats.Min(data); err != nil {
		return ScoreSummary{}, fmt.Errorf("score min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return ScoreSummary{}, fmt.Errorf("score max: %w", err)
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return ScoreSummary{}, fmt.Errorf("score mean: %w", err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return ScoreSummary{}, fmt.Errorf("score median: %w", err)
	}
	if s.P90, err = stats.Percentile(data, 90); err != nil {
		return ScoreSummary{}, fmt.Errorf("score p90: %w", err)
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return ScoreSummary{}, fmt.Errorf("score stddev: %w", err)
	}
	return s, nil
}

// PRArea returns the trapezoidal area under the precision-recall curve
// traced by the sweep. Points are ordered by recall; fewer than two points
// give an area of 0.
func PRArea(ms []Metrics) float64 {
	if len(ms) < 2 {
		return 0
	}

	pts := make([]Metrics, len(ms))
	copy(pts, ms)
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].Recall != pts[j].Recall {
			return pts[i].Recall < pts[j].Recall
		}
		return pts[i].Precision > pts[j].Precision
	})

	recall := make([]float64, len(pts))
	precision := make([]float64, len(pts))
	for i, m := range pts {
		recall[i] = m.Recall
		precision[i] = m.Precision
	}
	return integrate.Trapezoidal(recall, precision)
}

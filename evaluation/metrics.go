package evaluation

// Metrics holds the confusion counts and derived scores for one threshold.
type Metrics struct {
	Threshold      float64
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Precision      float64
	Recall         float64
	F1             float64
}

// NewMetrics derives precision, recall and F1 from confusion counts.
// A ratio whose denominator is zero is reported as 0: no predictions gives
// precision 0, empty ground truth gives recall 0, and F1 is 0 when
// precision+recall is 0.
func NewMetrics(threshold float64, tp, fp, fn int) Metrics {
	m := Metrics{
		Threshold:      threshold,
		TruePositives:  tp,
		FalsePositives: fp,
		FalseNegatives: fn,
	}

	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}

// Best returns the metrics with the highest F1. Ties go to the lower
// threshold. ok is false when ms is empty.
func Best(ms []Metrics) (best Metrics, ok bool) {
	for i, m := range ms {
		if i == 0 || m.F1 > best.F1 {
			best = m
			ok = true
		}
	}
	return best, ok
}

package evaluation

import "testing"

func TestSummarizeScores(t *testing.T) {
	got, err := SummarizeScores(nil)
	if err != nil {
		t.Fatalf("SummarizeScores(nil) error = %v", err)
	}
	if got != (ScoreSummary{}) {
		t.Errorf("SummarizeScores(nil) = %+v, want zero", got)
	}

	preds := []Prediction{
		{Query: 1, Candidate: 0, Score: 0.2},
		{Query: 2, Candidate: 0, Score: 0.4},
		{Query: 3, Candidate: 1, Score: 0.6},
		{Query: 4, Candidate: 2, Score: 0.8},
	}
	got, err = SummarizeScores(preds)
	if err != nil {
		t.Fatalf("SummarizeScores() error = %v", err)
	}
	if got.Count != 4 {
		t.Errorf("Count = %d, want 4", got.Count)
	}
	if got.Min != 0.2 || got.Max != 0.8 {
		t.Errorf("Min/Max = %v/%v, want 0.2/0.8", got.Min, got.Max)
	}
	if !approx(got.Mean, 0.5) {
		t.Errorf("Mean = %v, want 0.5", got.Mean)
	}
	if !approx(got.Median, 0.5) {
		t.Errorf("Median = %v, want 0.5", got.Median)
	}
}

func TestPRArea(t *testing.T) {
	if got := PRArea(nil); got != 0 {
		t.Errorf("PRArea(nil) = %v, want 0", got)
	}
	if got := PRArea([]Metrics{{Precision: 1, Recall: 1}}); got != 0 {
		t.Errorf("PRArea(single) = %v, want 0", got)
	}

	// Flat precision 1 from recall 0 to 1 covers the unit square.
	ms := []Metrics{
		{Threshold: 0.9, Precision: 1, Recall: 0},
		{Threshold: 0.5, Precision: 1, Recall: 0.5},
		{Threshold: 0.1, Precision: 1, Recall: 1},
	}
	if got := PRArea(ms); !approx(got, 1) {
		t.Errorf("PRArea() = %v, want 1", got)
	}

	ms = []Metrics{
		{Threshold: 0.1, Precision: 0.5, Recall: 1},
		{Threshold: 0.9, Precision: 1, Recall: 0},
	}
	if got := PRArea(ms); !approx(got, 0.75) {
		t.Errorf("PRArea() = %v, want 0.75", got)
	}
}

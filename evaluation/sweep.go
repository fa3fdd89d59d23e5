package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrEmptySweep indicates a sweep with no thresholds.
	ErrEmptySweep = errors.New("evaluation: sweep has no thresholds")

	// ErrDuplicateThreshold indicates the same threshold was given twice.
	ErrDuplicateThreshold = errors.New("evaluation: duplicate threshold")

	// ErrInvalidThreshold indicates a NaN threshold or an unusable sweep range.
	ErrInvalidThreshold = errors.New("evaluation: invalid threshold")
)

// Default sweep bounds: thresholds 0.1, 0.2, ..., 0.9.
const (
	DefaultSweepMin  = 0.1
	DefaultSweepMax  = 1.0
	DefaultSweepStep = 0.1
)

// Sweep is an ascending list of distinct confidence thresholds.
// It is fixed once constructed.
type Sweep struct {
	thresholds []float64
}

// NewSweep validates values and returns them as an ascending sweep.
func NewSweep(values []float64) (Sweep, error) {
	if len(values) == 0 {
		return Sweep{}, ErrEmptySweep
	}

	ts := make([]float64, len(values))
	copy(ts, values)
	for _, t := range ts {
		if math.IsNaN(t) {
			return Sweep{}, fmt.Errorf("%w: NaN", ErrInvalidThreshold)
		}
	}
	sort.Float64s(ts)
	for i := 1; i < len(ts); i++ {
		if ts[i] == ts[i-1] {
			return Sweep{}, fmt.Errorf("%w: %v", ErrDuplicateThreshold, ts[i])
		}
	}

	return Sweep{thresholds: ts}, nil
}

// SweepRange generates thresholds from min (inclusive) to max (exclusive)
// with the given step. Values are rounded to 1e-9 so that 0.1+2*0.1 prints
// as 0.3.
func SweepRange(min, max, step float64) (Sweep, error) {
	if step <= 0 || math.IsNaN(step) || math.IsNaN(min) || math.IsNaN(max) {
		return Sweep{}, fmt.Errorf("%w: step %v", ErrInvalidThreshold, step)
	}
	if max <= min {
		return Sweep{}, fmt.Errorf("%w: range [%v, %v)", ErrInvalidThreshold, min, max)
	}

	n := int(math.Ceil((max-min)/step - 1e-9))
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t := min + float64(i)*step
		values = append(values, math.Round(t*1e9)/1e9)
	}
	return NewSweep(values)
}

// DefaultSweep returns the 0.1..0.9 sweep.
func DefaultSweep() Sweep {
	s, err := SweepRange(DefaultSweepMin, DefaultSweepMax, DefaultSweepStep)
	if err != nil {
		panic(err)
	}
	return s
}

// Thresholds returns a copy of the thresholds in ascending order.
func (s Sweep) Thresholds() []float64 {
	out := make([]float64, len(s.thresholds))
	copy(out, s.thresholds)
	return out
}

// Len returns the number of thresholds.
func (s Sweep) Len() int {
	return len(s.thresholds)
}

// accepted returns the number of leading thresholds strictly below score.
// Since thresholds ascend, score > t holds exactly for thresholds[:n].
func (s Sweep) accepted(score float64) int {
	return sort.Search(len(s.thresholds), func(i int) bool {
		return !(score > s.thresholds[i])
	})
}

// Package evaluation scores loop-closure predictions against ground truth
// across a sweep of confidence thresholds.
package evaluation

import (
	"fmt"
	"sort"
)

// Pair is an unordered pair of scan indices. A <= B always holds for pairs
// built with NewPair, so a Pair can be used directly as a set key.
type Pair struct {
	A int
	B int
}

// NewPair returns the canonical pair for indices a and b.
func NewPair(a, b int) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.A, p.B)
}

// PairSet is a set of canonical pairs.
type PairSet map[Pair]struct{}

// NewPairSet builds a set from raw index pairs, canonicalizing each one.
func NewPairSet(pairs [][2]int) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s.Add(NewPair(p[0], p[1]))
	}
	return s
}

// Add inserts p in canonical form.
func (s PairSet) Add(p Pair) {
	s[NewPair(p.A, p.B)] = struct{}{}
}

// Has reports whether the canonical form of p is in the set.
func (s PairSet) Has(p Pair) bool {
	_, ok := s[NewPair(p.A, p.B)]
	return ok
}

// Len returns the number of pairs.
func (s PairSet) Len() int {
	return len(s)
}

// IntersectLen counts the pairs present in both sets.
func (s PairSet) IntersectLen(other PairSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for p := range small {
		if _, ok := large[p]; ok {
			n++
		}
	}
	return n
}

// Sorted returns the pairs ordered by A, then B.
func (s PairSet) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Clone returns an independent copy of the set.
func (s PairSet) Clone() PairSet {
	out := make(PairSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

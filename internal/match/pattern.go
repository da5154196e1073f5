// Package match finds occurrences of fixed multi-element patterns inside a
// query sequence. Two strategies share one data model: an Aho-Corasick
// automaton (all occurrences, optional overlap resolution and chunking) and a
// Knuth-Morris-Pratt multi-pattern matcher that keeps overlaps between
// different patterns.
package match

import "errors"

var (
	ErrEmptyPattern = errors.New("match: pattern must not be empty")
	ErrNotBuilt     = errors.New("match: automaton is not built")
	ErrAlreadyBuilt = errors.New("match: automaton is already built")
)

// Emit is one occurrence reported by the automaton. Start and End are
// inclusive indexes into the query. Pattern is shared with the automaton and
// must not be modified.
type Emit[E comparable] struct {
	Start     int
	End       int
	PatternID int
	Pattern   []E
}

func (e Emit[E]) Len() int {
	return e.End - e.Start + 1
}

func (e Emit[E]) overlaps(o Emit[E]) bool {
	return e.Start <= o.End && o.Start <= e.End
}

// Match is one occurrence reported by the KMP matcher. Pattern is shared
// with the matcher and must not be modified.
type Match[E comparable] struct {
	Start     int
	End       int
	PatternID int
	Pattern   []E
}

func (m Match[E]) Len() int {
	return m.End - m.Start + 1
}

func clonePattern[E comparable](p []E) []E {
	out := make([]E, len(p))
	copy(out, p)
	return out
}

func equalPattern[E comparable](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package match

import (
	"cmp"
	"slices"
	"sort"
)

// ByLengthThenStart orders emits longest first, then by earliest start.
// Pattern id breaks the remaining ties so the order is total.
func ByLengthThenStart[E comparable](a, b Emit[E]) int {
	if c := cmp.Compare(b.Len(), a.Len()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.PatternID, b.PatternID)
}

// ResolveOverlaps greedily keeps, in ByLengthThenStart order, every emit that
// shares no index with an emit already kept. The result is sorted by start.
// Running it on its own output returns the same emits.
func ResolveOverlaps[E comparable](emits []Emit[E]) []Emit[E] {
	if len(emits) == 0 {
		return nil
	}

	candidates := slices.Clone(emits)
	slices.SortFunc(candidates, ByLengthThenStart[E])

	// selected stays sorted by start and pairwise disjoint.
	selected := make([]Emit[E], 0, len(candidates))
	for _, candidate := range candidates {
		idx := sort.Search(len(selected), func(i int) bool {
			return selected[i].Start > candidate.Start
		})
		if idx > 0 && selected[idx-1].overlaps(candidate) {
			continue
		}
		if idx < len(selected) && selected[idx].overlaps(candidate) {
			continue
		}
		selected = slices.Insert(selected, idx, candidate)
	}

	return selected
}

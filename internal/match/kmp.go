package match

import (
	"cmp"
	"slices"
	"sort"
	"sync"
)

// KMPMatcher runs one Knuth-Morris-Pratt cursor per registered pattern over
// the query. Unlike the automaton it never removes overlaps: a pattern and a
// longer pattern containing it are both reported.
//
// Registered patterns and their prefix tables are immutable; cursors live in
// each Matches call, so concurrent calls are safe.
type KMPMatcher[E comparable] struct {
	mu      sync.RWMutex
	entries []kmpEntry[E]
	count   int
}

type kmpEntry[E comparable] struct {
	id      int
	pattern []E
	prefix  []int
}

func NewKMPMatcher[E comparable]() *KMPMatcher[E] {
	return &KMPMatcher[E]{}
}

// ByLengthDesc orders patterns longest first.
func ByLengthDesc[E comparable](a, b []E) int {
	return cmp.Compare(len(b), len(a))
}

// PrefixTable returns the prefix function of pattern: entry q is the length
// of the longest proper prefix of pattern[:q+1] that is also its suffix.
func PrefixTable[E comparable](pattern []E) []int {
	if len(pattern) == 0 {
		return nil
	}
	table := make([]int, len(pattern))
	k := 0
	for q := 1; q < len(pattern); q++ {
		for k > 0 && pattern[k] != pattern[q] {
			k = table[k-1]
		}
		if pattern[k] == pattern[q] {
			k++
		}
		table[q] = k
	}
	return table
}

// AddPattern registers pattern and returns its id. Registering a pattern
// equal to an earlier one returns the earlier id.
func (m *KMPMatcher[E]) AddPattern(pattern []E) (int, error) {
	if len(pattern) == 0 {
		return 0, ErrEmptyPattern
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.entries {
		if equalPattern(entry.pattern, pattern) {
			return entry.id, nil
		}
	}

	entry := kmpEntry[E]{
		id:      m.count,
		pattern: clonePattern(pattern),
		prefix:  PrefixTable(pattern),
	}
	m.count++

	// Equal lengths keep registration order.
	idx := sort.Search(len(m.entries), func(i int) bool {
		return ByLengthDesc(m.entries[i].pattern, entry.pattern) > 0
	})
	entries := make([]kmpEntry[E], 0, len(m.entries)+1)
	entries = append(entries, m.entries[:idx]...)
	entries = append(entries, entry)
	entries = append(entries, m.entries[idx:]...)
	m.entries = entries

	return entry.id, nil
}

func (m *KMPMatcher[E]) PatternCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

// Patterns returns the registered patterns in evaluation order.
func (m *KMPMatcher[E]) Patterns() [][]E {
	entries := m.snapshot()
	out := make([][]E, 0, len(entries))
	for _, entry := range entries {
		out = append(out, slices.Clone(entry.pattern))
	}
	return out
}

func (m *KMPMatcher[E]) snapshot() []kmpEntry[E] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries
}

// Matches returns every match of every pattern in discovery order. At each
// query position longer patterns are tried first. A pattern's cursor resets
// after each completed match, so one pattern's matches never overlap.
func (m *KMPMatcher[E]) Matches(query []E) []Match[E] {
	entries := m.snapshot()
	if len(entries) == 0 {
		return nil
	}

	cursors := make([]int, len(entries))
	var matches []Match[E]
	for i, element := range query {
		for j := range entries {
			entry := &entries[j]
			q := cursors[j]
			for q > 0 && entry.pattern[q] != element {
				q = entry.prefix[q-1]
			}
			if entry.pattern[q] == element {
				q++
			}
			if q == len(entry.pattern) {
				matches = append(matches, Match[E]{
					Start:     i - len(entry.pattern) + 1,
					End:       i,
					PatternID: entry.id,
					Pattern:   entry.pattern,
				})
				q = 0
			}
			cursors[j] = q
		}
	}
	return matches
}

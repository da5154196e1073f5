package match

import (
	"fmt"
	"math/rand"
	"strings"
)

type occurrence struct {
	start, end, id int
}

func words(s string) []string {
	return strings.Fields(s)
}

// naiveOccurrences lists every (start, end, id) where patterns[id] occurs.
func naiveOccurrences[E comparable](patterns [][]E, query []E) map[occurrence]bool {
	found := map[occurrence]bool{}
	for id, p := range patterns {
		for start := 0; start+len(p) <= len(query); start++ {
			if equalPattern(query[start:start+len(p)], p) {
				found[occurrence{start, start + len(p) - 1, id}] = true
			}
		}
	}
	return found
}

func randomSequence(rng *rand.Rand, n, alphabet int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rng.Intn(alphabet)
	}
	return out
}

func randomPatterns(rng *rand.Rand, count, maxLen, alphabet int) [][]int {
	out := make([][]int, 0, count)
	seen := map[string]bool{}
	for len(out) < count {
		p := randomSequence(rng, 1+rng.Intn(maxLen), alphabet)
		key := fmt.Sprint(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func buildAutomaton[E comparable](patterns ...[]E) (*Automaton[E], error) {
	a := NewAutomaton[E]()
	for _, p := range patterns {
		if _, err := a.AddPattern(p); err != nil {
			return nil, err
		}
	}
	if err := a.Build(); err != nil {
		return nil, err
	}
	return a, nil
}

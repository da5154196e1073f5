package phrase

import "github.com/phrasetag/phrasetag/internal/match"

// KMPMatcher reports every phrase occurrence and keeps overlaps between
// different phrases.
type KMPMatcher struct {
	matcher *match.KMPMatcher[string]
}

func NewKMPMatcher(phrases [][]string) (*KMPMatcher, error) {
	matcher := match.NewKMPMatcher[string]()
	for _, p := range phrases {
		if _, err := matcher.AddPattern(p); err != nil {
			return nil, err
		}
	}
	return &KMPMatcher{matcher: matcher}, nil
}

func (m *KMPMatcher) Find(tokens []string) ([]Hit, []Chunk, error) {
	matches := m.matcher.Matches(tokens)
	hits := make([]Hit, 0, len(matches))
	for _, mt := range matches {
		hits = append(hits, Hit{Start: mt.Start, End: mt.End, PhraseID: mt.PatternID, Phrase: mt.Pattern})
	}
	return hits, nil, nil
}

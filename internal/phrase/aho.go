package phrase

import (
	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/match"
)

type AhoMatcher struct {
	automaton *match.Automaton[string]
	output    string
}

func NewAhoMatcher(phrases [][]string, output string) (*AhoMatcher, error) {
	automaton := match.NewAutomaton[string]()
	for _, p := range phrases {
		if _, err := automaton.AddPattern(p); err != nil {
			return nil, err
		}
	}
	if err := automaton.Build(); err != nil {
		return nil, err
	}
	return &AhoMatcher{automaton: automaton, output: output}, nil
}

func (m *AhoMatcher) Find(tokens []string) ([]Hit, []Chunk, error) {
	switch m.output {
	case config.OutputRaw:
		emits, err := m.automaton.ParseAll(tokens)
		if err != nil {
			return nil, nil, err
		}
		return emitHits(emits), nil, nil
	case config.OutputChunks:
		chunks, err := m.automaton.Tokenise(tokens)
		if err != nil {
			return nil, nil, err
		}
		hits := make([]Hit, 0, len(chunks)/2+1)
		out := make([]Chunk, 0, len(chunks))
		for _, c := range chunks {
			if c.Matched {
				hits = append(hits, emitHit(*c.Emit))
			}
			out = append(out, Chunk{Start: c.Start, End: c.End, Tokens: c.Elements, Matched: c.Matched})
		}
		return hits, out, nil
	default:
		emits, err := m.automaton.Parse(tokens)
		if err != nil {
			return nil, nil, err
		}
		return emitHits(emits), nil, nil
	}
}

func emitHits(emits []match.Emit[string]) []Hit {
	hits := make([]Hit, 0, len(emits))
	for _, e := range emits {
		hits = append(hits, emitHit(e))
	}
	return hits
}

func emitHit(e match.Emit[string]) Hit {
	return Hit{Start: e.Start, End: e.End, PhraseID: e.PatternID, Phrase: e.Pattern}
}

package phrase

import (
	"fmt"

	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/normalize"
)

// Set is a compiled group of phrases sharing one strategy and output mode.
type Set struct {
	Name     string
	Strategy string
	Output   string
	Tags     []string
	Phrases  [][]string
	Matcher  Matcher

	prefilter *prefilter
}

// Engine evaluates every compiled set against a token sequence. It is
// immutable once built and safe for concurrent use.
type Engine struct {
	Sets      []*Set
	Normalize normalize.Options
}

func (e *Engine) Set(name string) (*Set, bool) {
	for _, s := range e.Sets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

func (e *Engine) Tokenize(text string) []string {
	return normalize.Tokens(text, e.Normalize)
}

func (e *Engine) EvaluateText(text string, names ...string) (Result, error) {
	return e.Evaluate(e.Tokenize(text), names...)
}

// Evaluate runs the named sets, or every set when names is empty, in
// configuration order.
func (e *Engine) Evaluate(tokens []string, names ...string) (Result, error) {
	sets, err := e.selectSets(names)
	if err != nil {
		return Result{}, err
	}

	result := Result{Tokens: tokens, Sets: make([]SetResult, 0, len(sets))}
	joined := []byte(joinTokens(tokens))
	for _, set := range sets {
		sr := SetResult{
			Set:      set.Name,
			Strategy: set.Strategy,
			Output:   set.Output,
			Tags:     set.Tags,
			Hits:     []Hit{},
		}

		if !set.prefilter.mayMatch(joined) {
			sr.Skipped = true
			if set.Output == config.OutputChunks && len(tokens) > 0 {
				sr.Chunks = []Chunk{{Start: 0, End: len(tokens) - 1, Tokens: tokens}}
			}
			result.Sets = append(result.Sets, sr)
			continue
		}

		hits, chunks, err := set.Matcher.Find(tokens)
		if err != nil {
			return Result{}, fmt.Errorf("set %s: %w", set.Name, err)
		}
		sr.Hits = hits
		sr.Chunks = chunks
		result.Sets = append(result.Sets, sr)
	}

	return result, nil
}

func (e *Engine) selectSets(names []string) ([]*Set, error) {
	if len(names) == 0 {
		return e.Sets, nil
	}
	out := make([]*Set, 0, len(names))
	for _, name := range names {
		set, ok := e.Set(name)
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownSet, name)
		}
		out = append(out, set)
	}
	return out, nil
}

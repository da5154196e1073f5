package phrase

import (
	"strings"

	"github.com/coregx/ahocorasick"
)

// prefilter rejects documents whose space-joined tokens contain none of a
// set's space-joined phrases. Any token-level hit implies a byte-level hit,
// so a rejection is always safe.
type prefilter struct {
	automaton *ahocorasick.Automaton
}

func newPrefilter(phrases [][]string) (*prefilter, error) {
	if len(phrases) == 0 {
		return nil, nil
	}
	builder := ahocorasick.NewBuilder()
	for _, p := range phrases {
		builder.AddPattern([]byte(joinTokens(p)))
	}
	automaton, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &prefilter{automaton: automaton}, nil
}

func (p *prefilter) mayMatch(text []byte) bool {
	if p == nil {
		return true
	}
	return p.automaton.IsMatch(text)
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

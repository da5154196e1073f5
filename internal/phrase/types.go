package phrase

import "errors"

var ErrUnknownSet = errors.New("unknown phrase set")

// Hit is one phrase occurrence. Start and End are inclusive token indexes.
type Hit struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	PhraseID int      `json:"phrase_id"`
	Phrase   []string `json:"phrase"`
}

// Chunk is a run of tokens that is either one matched phrase or text
// between matches.
type Chunk struct {
	Start   int      `json:"start"`
	End     int      `json:"end"`
	Tokens  []string `json:"tokens"`
	Matched bool     `json:"matched"`
}

type SetResult struct {
	Set      string   `json:"set"`
	Strategy string   `json:"strategy"`
	Output   string   `json:"output"`
	Tags     []string `json:"tags,omitempty"`
	Skipped  bool     `json:"skipped,omitempty"`
	Hits     []Hit    `json:"hits"`
	Chunks   []Chunk  `json:"chunks,omitempty"`
}

type Result struct {
	Tokens []string    `json:"tokens"`
	Sets   []SetResult `json:"sets"`
}

// HitCount sums hits over every set.
func (r Result) HitCount() int {
	n := 0
	for _, s := range r.Sets {
		n += len(s.Hits)
	}
	return n
}

// Covered reports, per token, whether any hit in any set spans it.
func (r Result) Covered() []bool {
	covered := make([]bool, len(r.Tokens))
	for _, s := range r.Sets {
		for _, h := range s.Hits {
			for i := h.Start; i <= h.End && i < len(covered); i++ {
				covered[i] = true
			}
		}
	}
	return covered
}

// Matcher finds phrase hits in a token sequence. Chunks are only returned
// by matchers that partition the input.
type Matcher interface {
	Find(tokens []string) ([]Hit, []Chunk, error)
}

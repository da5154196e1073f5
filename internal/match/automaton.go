package match

// Automaton is an Aho-Corasick automaton over elements of type E.
//
// Patterns are added during a single-threaded construction phase, then
// Build computes the failure links exactly once. After Build the automaton
// is read-only and safe for concurrent parsing.
type Automaton[E comparable] struct {
	states   []state[E]
	patterns [][]E
	built    bool
}

func NewAutomaton[E comparable]() *Automaton[E] {
	return &Automaton[E]{states: []state[E]{newState[E](0)}}
}

// AddPattern registers pattern and returns its id. Registering a pattern
// equal to an earlier one returns the earlier id.
func (a *Automaton[E]) AddPattern(pattern []E) (int, error) {
	if a.built {
		return 0, ErrAlreadyBuilt
	}
	if len(pattern) == 0 {
		return 0, ErrEmptyPattern
	}

	current := rootState
	for _, element := range pattern {
		current = a.addState(current, element)
	}

	id := a.addEmit(current, len(a.patterns))
	if id == len(a.patterns) {
		a.patterns = append(a.patterns, clonePattern(pattern))
	}
	return id, nil
}

// Build computes failure links. It must be called once, after the last
// AddPattern and before any parse.
func (a *Automaton[E]) Build() error {
	if a.built {
		return ErrAlreadyBuilt
	}
	a.buildFailureLinks()
	a.built = true
	return nil
}

func (a *Automaton[E]) Built() bool {
	return a.built
}

func (a *Automaton[E]) PatternCount() int {
	return len(a.patterns)
}

func (a *Automaton[E]) StateCount() int {
	return len(a.states)
}

// Pattern returns a copy of the pattern registered under id.
func (a *Automaton[E]) Pattern(id int) ([]E, bool) {
	if id < 0 || id >= len(a.patterns) {
		return nil, false
	}
	return clonePattern(a.patterns[id]), true
}

// ParseWith feeds every occurrence of every pattern in query to sink,
// including overlapping occurrences and patterns that are suffixes of
// longer ones. Emits arrive ordered by end index.
func (a *Automaton[E]) ParseWith(query []E, sink EmitSink[E]) error {
	if !a.built {
		return ErrNotBuilt
	}

	current := rootState
	for i, element := range query {
		next, ok := a.nextState(current, element)
		for !ok {
			current = a.states[current].fail
			next, ok = a.nextState(current, element)
		}
		current = next

		for _, id := range a.states[current].out {
			pattern := a.patterns[id]
			sink.Emit(Emit[E]{
				Start:     i - len(pattern) + 1,
				End:       i,
				PatternID: id,
				Pattern:   pattern,
			})
		}
	}
	return nil
}

// ParseAll returns every occurrence, overlaps included.
func (a *Automaton[E]) ParseAll(query []E) ([]Emit[E], error) {
	sink := &CollectingSink[E]{}
	if err := a.ParseWith(query, sink); err != nil {
		return nil, err
	}
	return sink.Emits, nil
}

// Parse returns a maximal non-overlapping subset of the occurrences,
// sorted by start.
func (a *Automaton[E]) Parse(query []E) ([]Emit[E], error) {
	emits, err := a.ParseAll(query)
	if err != nil {
		return nil, err
	}
	return ResolveOverlaps(emits), nil
}

// Tokenise partitions query into matched and unmatched chunks.
func (a *Automaton[E]) Tokenise(query []E) ([]Chunk[E], error) {
	emits, err := a.Parse(query)
	if err != nil {
		return nil, err
	}
	return Chunks(query, emits), nil
}

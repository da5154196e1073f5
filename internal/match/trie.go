package match

const (
	rootState = 0
	noPattern = -1
)

// state is one trie node. Children and failure links are indexes into the
// automaton's state slice.
type state[E comparable] struct {
	depth int
	next  map[E]int
	fail  int
	own   int
	out   []int
}

func newState[E comparable](depth int) state[E] {
	return state[E]{depth: depth, next: map[E]int{}, fail: rootState, own: noPattern}
}

// addState returns the child of parent for element, creating it when absent.
func (a *Automaton[E]) addState(parent int, element E) int {
	if child, ok := a.states[parent].next[element]; ok {
		return child
	}
	a.states = append(a.states, newState[E](a.states[parent].depth+1))
	child := len(a.states) - 1
	a.states[parent].next[element] = child
	return child
}

// addEmit records pattern id as ending at s. A state owns at most one
// pattern because the path from the root spells it; re-adding is a no-op.
func (a *Automaton[E]) addEmit(s, id int) int {
	if own := a.states[s].own; own != noPattern {
		return own
	}
	a.states[s].own = id
	a.states[s].out = append(a.states[s].out, id)
	return id
}

// goTo is the plain transition lookup with no root fallback.
func (a *Automaton[E]) goTo(s int, element E) (int, bool) {
	next, ok := a.states[s].next[element]
	return next, ok
}

// nextState is the traversal lookup: the root loops to itself on any
// element it has no child for. Non-root states report false.
func (a *Automaton[E]) nextState(s int, element E) (int, bool) {
	if next, ok := a.goTo(s, element); ok {
		return next, true
	}
	if s == rootState {
		return rootState, true
	}
	return 0, false
}

// buildFailureLinks sets every non-root failure link breadth first and
// folds the failure target's emits into each state.
func (a *Automaton[E]) buildFailureLinks() {
	queue := make([]int, 0, len(a.states))
	for _, child := range a.states[rootState].next {
		a.states[child].fail = rootState
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		for element, target := range a.states[s].next {
			queue = append(queue, target)

			trace := a.states[s].fail
			newFail, ok := a.nextState(trace, element)
			for !ok {
				trace = a.states[trace].fail
				newFail, ok = a.nextState(trace, element)
			}

			a.states[target].fail = newFail
			a.states[target].out = append(a.states[target].out, a.states[newFail].out...)
		}
	}
}

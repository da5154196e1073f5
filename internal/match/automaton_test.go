package match

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
)

func TestAutomatonOverlappingPatterns(t *testing.T) {
	a, err := buildAutomaton(words("b c d"), words("a b c"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	query := words("x y a b c d x y")

	raw, err := a.ParseAll(query)
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 raw emits, got %d", len(raw))
	}
	if raw[0].Start != 2 || raw[0].End != 4 || !equalPattern(raw[0].Pattern, words("a b c")) {
		t.Fatalf("unexpected first emit %+v", raw[0])
	}
	if raw[1].Start != 3 || raw[1].End != 5 || !equalPattern(raw[1].Pattern, words("b c d")) {
		t.Fatalf("unexpected second emit %+v", raw[1])
	}

	resolved, err := a.Parse(query)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resolved) != 1 || resolved[0].Start != 2 || resolved[0].End != 4 {
		t.Fatalf("expected only (2,4), got %+v", resolved)
	}
}

func TestAutomatonSuffixPatterns(t *testing.T) {
	patterns := [][]byte{[]byte("he"), []byte("she"), []byte("his"), []byte("hers")}
	a, err := buildAutomaton(patterns...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	emits, err := a.ParseAll([]byte("ushers"))
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}

	got := map[occurrence]bool{}
	for _, e := range emits {
		got[occurrence{e.Start, e.End, e.PatternID}] = true
	}
	want := map[occurrence]bool{
		{1, 3, 1}: true, // she
		{2, 3, 0}: true, // he
		{2, 5, 3}: true, // hers
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d emits, got %+v", len(want), emits)
	}
	for occ := range want {
		if !got[occ] {
			t.Fatalf("missing emit %+v in %+v", occ, emits)
		}
	}
}

func TestAutomatonFailureLinkSkipsToLongestSuffix(t *testing.T) {
	// After "a b c" fails on "e", the walk must resume at "b c", not root.
	a, err := buildAutomaton(words("a b c d"), words("b c e"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	emits, err := a.ParseAll(words("a b c e"))
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if len(emits) != 1 || emits[0].Start != 1 || emits[0].End != 3 {
		t.Fatalf("expected (1,3) b c e, got %+v", emits)
	}
}

func TestAutomatonNoPatterns(t *testing.T) {
	a, err := buildAutomaton[string]()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	query := words("nothing to see here")

	raw, err := a.ParseAll(query)
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected no emits, got %d", len(raw))
	}

	chunks, err := a.Tokenise(query)
	if err != nil {
		t.Fatalf("tokenise: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Matched || !equalPattern(chunks[0].Elements, query) {
		t.Fatalf("expected a single unmatched chunk, got %+v", chunks)
	}
}

func TestAutomatonRejectsEmptyPattern(t *testing.T) {
	a := NewAutomaton[string]()
	if _, err := a.AddPattern(nil); !errors.Is(err, ErrEmptyPattern) {
		t.Fatalf("expected ErrEmptyPattern, got %v", err)
	}
	if a.PatternCount() != 0 {
		t.Fatalf("expected no registered patterns")
	}
}

func TestAutomatonRequiresBuild(t *testing.T) {
	a := NewAutomaton[string]()
	if _, err := a.AddPattern(words("a")); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := a.ParseAll(words("a")); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("ParseAll: expected ErrNotBuilt, got %v", err)
	}
	if _, err := a.Parse(words("a")); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("Parse: expected ErrNotBuilt, got %v", err)
	}
	if _, err := a.Tokenise(words("a")); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("Tokenise: expected ErrNotBuilt, got %v", err)
	}

	if err := a.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := a.Build(); !errors.Is(err, ErrAlreadyBuilt) {
		t.Fatalf("second Build: expected ErrAlreadyBuilt, got %v", err)
	}
	if _, err := a.AddPattern(words("b")); !errors.Is(err, ErrAlreadyBuilt) {
		t.Fatalf("AddPattern after Build: expected ErrAlreadyBuilt, got %v", err)
	}
}

func TestAutomatonDuplicatePattern(t *testing.T) {
	a := NewAutomaton[string]()
	first, err := a.AddPattern(words("new york"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	second, err := a.AddPattern(words("new york"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if first != second {
		t.Fatalf("expected duplicate to reuse id %d, got %d", first, second)
	}
	if a.PatternCount() != 1 {
		t.Fatalf("expected 1 pattern, got %d", a.PatternCount())
	}
	// root + "new" + "york"
	if a.StateCount() != 3 {
		t.Fatalf("expected 3 states, got %d", a.StateCount())
	}
	if got, ok := a.Pattern(first); !ok || !equalPattern(got, words("new york")) {
		t.Fatalf("Pattern(%d) = %v, %v", first, got, ok)
	}
	if _, ok := a.Pattern(first + 1); ok {
		t.Fatalf("expected no pattern for id %d", first+1)
	}
	if a.Built() {
		t.Fatalf("expected automaton to be unbuilt before Build")
	}
	if err := a.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if !a.Built() {
		t.Fatalf("expected automaton to be built")
	}

	emits, err := a.ParseAll(words("new york new york"))
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}
	if len(emits) != 2 {
		t.Fatalf("expected 2 emits, got %+v", emits)
	}
}

func TestAutomatonHandlerReceivesEmitsInEndOrder(t *testing.T) {
	a, err := buildAutomaton(words("a"), words("a a"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	lastEnd := -1
	count := 0
	sink := SinkFunc[string](func(e Emit[string]) {
		if e.End < lastEnd {
			t.Fatalf("emit %+v arrived after end %d", e, lastEnd)
		}
		lastEnd = e.End
		count++
	})
	if err := a.ParseWith(words("a a a"), sink); err != nil {
		t.Fatalf("parse: %v", err)
	}
	// three singles and two pairs
	if count != 5 {
		t.Fatalf("expected 5 emits, got %d", count)
	}
}

func TestAutomatonAgreesWithNaiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		patterns := randomPatterns(rng, 1+rng.Intn(6), 4, 3)
		query := randomSequence(rng, rng.Intn(30), 3)

		a, err := buildAutomaton(patterns...)
		if err != nil {
			t.Fatalf("round %d: build: %v", round, err)
		}
		emits, err := a.ParseAll(query)
		if err != nil {
			t.Fatalf("round %d: parse: %v", round, err)
		}

		want := naiveOccurrences(patterns, query)
		got := map[occurrence]bool{}
		for _, e := range emits {
			if !equalPattern(query[e.Start:e.End+1], e.Pattern) {
				t.Fatalf("round %d: unsound emit %+v for query %v", round, e, query)
			}
			got[occurrence{e.Start, e.End, e.PatternID}] = true
		}
		if len(got) != len(emits) {
			t.Fatalf("round %d: duplicate emits %+v", round, emits)
		}
		if len(got) != len(want) {
			t.Fatalf("round %d: expected %d occurrences, got %d (patterns %v query %v)", round, len(want), len(got), patterns, query)
		}
		for occ := range want {
			if !got[occ] {
				t.Fatalf("round %d: missing %+v (patterns %v query %v)", round, occ, patterns, query)
			}
		}
	}
}

func TestAutomatonConcurrentParse(t *testing.T) {
	a, err := buildAutomaton(words("b c d"), words("a b c"), words("c"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	query := words("x y a b c d x y a b c")
	want, err := a.ParseAll(query)
	if err != nil {
		t.Fatalf("parse all: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := a.ParseAll(query)
			if err != nil || len(got) != len(want) {
				errs <- "concurrent parse diverged"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}

package match

import (
	"math/rand"
	"slices"
	"testing"
)

func emit(start, end, id int) Emit[int] {
	return Emit[int]{Start: start, End: end, PatternID: id}
}

func TestByLengthThenStart(t *testing.T) {
	cases := []struct {
		name string
		a, b Emit[int]
		want int
	}{
		{"longer-first", emit(5, 8, 0), emit(0, 1, 1), -1},
		{"shorter-last", emit(0, 1, 0), emit(5, 8, 1), 1},
		{"earlier-first", emit(2, 4, 0), emit(3, 5, 1), -1},
		{"id-breaks-tie", emit(2, 4, 3), emit(2, 4, 1), 1},
		{"equal", emit(2, 4, 1), emit(2, 4, 1), 0},
	}

	for _, tt := range cases {
		if got := ByLengthThenStart(tt.a, tt.b); got != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestResolveOverlapsPrefersLongest(t *testing.T) {
	in := []Emit[int]{emit(0, 1, 0), emit(1, 4, 1), emit(4, 5, 2), emit(6, 6, 3)}
	got := ResolveOverlaps(in)

	want := []Emit[int]{emit(1, 4, 1), emit(6, 6, 3)}
	if !slices.EqualFunc(got, want, sameSpan) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveOverlapsEqualLengthEarliestWins(t *testing.T) {
	got := ResolveOverlaps([]Emit[int]{emit(3, 5, 0), emit(2, 4, 1)})
	if len(got) != 1 || got[0].Start != 2 {
		t.Fatalf("expected the emit at 2 to win, got %+v", got)
	}
}

func TestResolveOverlapsSpanningCandidate(t *testing.T) {
	// The long candidate covers two kept singles and must be dropped.
	in := []Emit[int]{emit(2, 3, 0), emit(5, 6, 1), emit(1, 7, 2)}
	got := ResolveOverlaps(in)
	if len(got) != 1 || got[0].PatternID != 2 {
		t.Fatalf("expected only the long emit, got %+v", got)
	}

	in = []Emit[int]{emit(2, 3, 0), emit(5, 6, 1), emit(3, 4, 2)}
	got = ResolveOverlaps(in)
	want := []Emit[int]{emit(2, 3, 0), emit(5, 6, 1)}
	if !slices.EqualFunc(got, want, sameSpan) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveOverlapsEmpty(t *testing.T) {
	if got := ResolveOverlaps[int](nil); len(got) != 0 {
		t.Fatalf("expected nothing, got %+v", got)
	}
}

func TestResolveOverlapsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 300; round++ {
		var in []Emit[int]
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			start := rng.Intn(20)
			in = append(in, emit(start, start+rng.Intn(5), i))
		}

		once := ResolveOverlaps(in)
		for i := 1; i < len(once); i++ {
			if once[i-1].End >= once[i].Start {
				t.Fatalf("round %d: overlapping output %+v", round, once)
			}
		}
		twice := ResolveOverlaps(once)
		if !slices.EqualFunc(once, twice, sameSpan) {
			t.Fatalf("round %d: not idempotent: %+v vs %+v", round, once, twice)
		}
		for _, e := range in {
			if !slices.ContainsFunc(once, e.overlaps) {
				t.Fatalf("round %d: %+v could have been kept, result %+v", round, e, once)
			}
		}
	}
}

func sameSpan(a, b Emit[int]) bool {
	return a.Start == b.Start && a.End == b.End && a.PatternID == b.PatternID
}

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/phrasetag/phrasetag/internal/phrase"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	result := phrase.Result{
		Tokens: []string{"new", "york", "city"},
		Sets: []phrase.SetResult{
			{
				Set:      "places",
				Strategy: "aho",
				Hits:     []phrase.Hit{{Start: 0, End: 1}},
				Chunks:   []phrase.Chunk{{Start: 0, End: 1, Matched: true}},
			},
			{Set: "brands", Strategy: "kmp", Skipped: true},
		},
	}
	metrics.ObserveResult(result, 120*time.Microsecond)
	metrics.ObserveRequest("/v1/tag", 200)
	metrics.ObserveReload(errors.New("bad phrase file"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("expected metrics gather to succeed: %v", err)
	}

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	if values["phrasetag_hits_total"] != 1 {
		t.Fatalf("expected 1 hit, got %v", values["phrasetag_hits_total"])
	}
	if values["phrasetag_prefilter_skips_total"] != 1 {
		t.Fatalf("expected 1 prefilter skip, got %v", values["phrasetag_prefilter_skips_total"])
	}
	if values["phrasetag_tokens_total"] != 3 {
		t.Fatalf("expected 3 tokens, got %v", values["phrasetag_tokens_total"])
	}
	if values["phrasetag_covered_tokens_total"] != 2 {
		t.Fatalf("expected 2 covered tokens, got %v", values["phrasetag_covered_tokens_total"])
	}
	if values["phrasetag_documents_total"] != 1 {
		t.Fatalf("expected 1 document, got %v", values["phrasetag_documents_total"])
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveResult(phrase.Result{}, time.Millisecond)
	m.ObserveRequest("/", 200)
	m.ObserveReload(nil)
}

package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/phrasetag/phrasetag/internal/logging"
)

type Summary struct {
	Total          int            `json:"total"`
	WithHits       int            `json:"with_hits"`
	Hits           int            `json:"hits"`
	PrefilterSkips int            `json:"prefilter_skips"`
	Tokens         int            `json:"tokens"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	TopPhrases     []CountItem    `json:"top_phrases"`
	TopSets        []CountItem    `json:"top_sets"`
	Latency        LatencySummary `json:"latency"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// LatencySummary is in microseconds.
type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.MatchRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return r.ReadFrom(file)
}

func (r *Reader) ReadFrom(in io.Reader) ([]logging.MatchRecord, error) {
	var records []logging.MatchRecord
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec logging.MatchRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !r.Since.IsZero() && rec.Timestamp.Before(r.Since) {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Options narrows a summary. Top bounds the phrase ranking (default 10);
// Sets, when non-empty, restricts set-level counts to the named sets.
type Options struct {
	Top  int
	Sets []string
}

func Summarize(records []logging.MatchRecord, opts Options) Summary {
	var summary Summary
	if len(records) == 0 {
		return summary
	}

	top := opts.Top
	if top <= 0 {
		top = 10
	}
	include := func(string) bool { return true }
	if len(opts.Sets) > 0 {
		names := make(map[string]bool, len(opts.Sets))
		for _, name := range opts.Sets {
			names[name] = true
		}
		include = func(set string) bool { return names[set] }
	}

	summary.Start = records[0].Timestamp
	summary.End = records[0].Timestamp

	phraseCounts := map[string]int{}
	setCounts := map[string]int{}
	latencies := make([]int64, 0, len(records))

	for _, rec := range records {
		summary.Total++
		summary.Tokens += rec.Tokens
		if rec.Timestamp.Before(summary.Start) {
			summary.Start = rec.Timestamp
		}
		if rec.Timestamp.After(summary.End) {
			summary.End = rec.Timestamp
		}

		hits := 0
		for _, set := range rec.Sets {
			if !include(set.Set) {
				continue
			}
			if set.Skipped {
				summary.PrefilterSkips++
			}
			for _, hit := range set.Hits {
				phraseCounts[hit.Phrase]++
				setCounts[set.Set]++
				hits++
			}
		}
		summary.Hits += hits
		if hits > 0 {
			summary.WithHits++
		}
		latencies = append(latencies, rec.DurationUS)
	}

	summary.TopPhrases = topCounts(phraseCounts, top)
	summary.TopSets = topCounts(setCounts, 5)
	summary.Latency = latencySummary(latencies)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func latencySummary(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySummary{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

func percentile(values []int64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return float64(values[idx])
}

func RenderText(summary Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documents: %d\n", summary.Total)
	fmt.Fprintf(&b, "With hits: %d\n", summary.WithHits)
	fmt.Fprintf(&b, "Hits: %d\n", summary.Hits)
	fmt.Fprintf(&b, "Tokens: %d\n", summary.Tokens)
	fmt.Fprintf(&b, "Prefilter skips: %d\n", summary.PrefilterSkips)
	fmt.Fprintf(&b, "Latency p50/p95/p99 (us): %.0f/%.0f/%.0f\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCounts(&b, "Top phrases", summary.TopPhrases)
	writeCounts(&b, "Top sets", summary.TopSets)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# Phrasetag Report\n\n")
	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "- Documents: %d\n", summary.Total)
	fmt.Fprintf(&b, "- With hits: %d\n", summary.WithHits)
	fmt.Fprintf(&b, "- Hits: %d\n", summary.Hits)
	fmt.Fprintf(&b, "- Tokens: %d\n", summary.Tokens)
	fmt.Fprintf(&b, "- Prefilter skips: %d\n", summary.PrefilterSkips)
	fmt.Fprintf(&b, "- Latency p50/p95/p99 (us): %.0f/%.0f/%.0f\n\n", summary.Latency.P50, summary.Latency.P95, summary.Latency.P99)

	writeCountsMarkdown(&b, "Top phrases", summary.TopPhrases)
	writeCountsMarkdown(&b, "Top sets", summary.TopSets)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %d\n", item.Key, item.Count)
	}
	b.WriteString("\n")
}

func WriteOutput(w io.Writer, path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(w, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

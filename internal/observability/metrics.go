package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/phrasetag/phrasetag/internal/phrase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	requestsTotal       *prometheus.CounterVec
	documentsTotal      prometheus.Counter
	tokensTotal         prometheus.Counter
	coveredTokensTotal  prometheus.Counter
	setEvaluationsTotal *prometheus.CounterVec
	hitsTotal           *prometheus.CounterVec
	prefilterSkipsTotal *prometheus.CounterVec
	chunksTotal         *prometheus.CounterVec
	reloadsTotal        *prometheus.CounterVec
	evaluateDuration    prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_requests_total", Help: "Total HTTP requests"},
			[]string{"path", "code"},
		),
		documentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "phrasetag_documents_total", Help: "Total documents evaluated"},
		),
		tokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "phrasetag_tokens_total", Help: "Total tokens evaluated"},
		),
		coveredTokensTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "phrasetag_covered_tokens_total", Help: "Tokens spanned by at least one phrase hit"},
		),
		setEvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_set_evaluations_total", Help: "Total phrase set evaluations"},
			[]string{"set", "strategy"},
		),
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_hits_total", Help: "Total phrase hits"},
			[]string{"set", "strategy"},
		),
		prefilterSkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_prefilter_skips_total", Help: "Set evaluations skipped by the byte prefilter"},
			[]string{"set"},
		),
		chunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_chunks_total", Help: "Total chunks produced"},
			[]string{"set", "matched"},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "phrasetag_reloads_total", Help: "Phrase set reloads"},
			[]string{"result"},
		),
		evaluateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "phrasetag_evaluate_duration_seconds",
				Help:    "Document evaluation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.requestsTotal,
		m.documentsTotal,
		m.tokensTotal,
		m.coveredTokensTotal,
		m.setEvaluationsTotal,
		m.hitsTotal,
		m.prefilterSkipsTotal,
		m.chunksTotal,
		m.reloadsTotal,
		m.evaluateDuration,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveResult(result phrase.Result, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.documentsTotal.Inc()
	m.evaluateDuration.Observe(elapsed.Seconds())
	m.tokensTotal.Add(float64(len(result.Tokens)))

	covered := 0
	for _, c := range result.Covered() {
		if c {
			covered++
		}
	}
	m.coveredTokensTotal.Add(float64(covered))

	for _, s := range result.Sets {
		m.setEvaluationsTotal.WithLabelValues(s.Set, s.Strategy).Inc()
		if s.Skipped {
			m.prefilterSkipsTotal.WithLabelValues(s.Set).Inc()
		}
		m.hitsTotal.WithLabelValues(s.Set, s.Strategy).Add(float64(len(s.Hits)))
		for _, c := range s.Chunks {
			m.chunksTotal.WithLabelValues(s.Set, strconv.FormatBool(c.Matched)).Inc()
		}
	}
}

func (m *Metrics) ObserveRequest(path string, code int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloadsTotal.WithLabelValues(result).Inc()
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/phrasetag/phrasetag/internal/config"
	"github.com/phrasetag/phrasetag/internal/logging"
	"github.com/phrasetag/phrasetag/internal/observability"
	"github.com/phrasetag/phrasetag/internal/phrase"
	"github.com/phrasetag/phrasetag/internal/ratelimit"
)

const requestIDHeader = "X-Request-Id"

// Server exposes the phrase engine over HTTP. The engine is swapped
// atomically on reload, so in-flight requests finish on the engine they
// started with.
type Server struct {
	engine   atomic.Pointer[phrase.Engine]
	maxBody  atomic.Int64
	limiter  atomic.Pointer[ratelimit.Limiter]
	reloadMu sync.Mutex
	rate     config.RateLimitConfig
	matchLog *logging.MatchLogger
	metrics  *observability.Metrics
	logger   *slog.Logger
	mux      *http.ServeMux
}

type tagRequest struct {
	Text string   `json:"text"`
	Sets []string `json:"sets,omitempty"`
}

type tagResponse struct {
	RequestID string `json:"request_id"`
	phrase.Result
}

type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	engine, err := phrase.BuildEngine(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.applyServerConfig(cfg.Server)
	s.engine.Store(engine)

	s.mux.HandleFunc("/v1/tag", s.handleTag)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s, nil
}

func (s *Server) SetMatchLogger(logger *logging.MatchLogger) {
	s.matchLog = logger
}

func (s *Server) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Handle mounts an extra handler, such as /metrics, next to the API.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) Engine() *phrase.Engine {
	return s.engine.Load()
}

// Reload compiles cfg and swaps the new engine in, then applies the body
// limit and rate limit settings. On error nothing changes. The listen
// address and logging settings only take effect on restart.
func (s *Server) Reload(cfg *config.Config) error {
	engine, err := phrase.BuildEngine(cfg)
	s.metrics.ObserveReload(err)
	if err != nil {
		return err
	}
	s.applyServerConfig(cfg.Server)
	s.engine.Store(engine)
	s.logger.Info("phrase sets reloaded", "sets", len(engine.Sets))
	return nil
}

// applyServerConfig keeps the current limiter, and its client buckets, when
// the rate limit settings did not change.
func (s *Server) applyServerConfig(cfg config.ServerConfig) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.maxBody.Store(cfg.MaxBodyBytes)

	if s.limiter.Load() != nil && cfg.RateLimit == s.rate {
		return
	}
	s.rate = cfg.RateLimit
	if !cfg.RateLimit.Enabled {
		s.limiter.Store(nil)
		return
	}
	s.limiter.Store(ratelimit.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
}

// SweepIdle drops idle rate limit buckets every interval until ctx is done.
func (s *Server) SweepIdle(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Server) sweep(now time.Time) int {
	removed := s.limiter.Load().Sweep(now)
	if removed > 0 {
		s.logger.Debug("rate limit buckets swept", "removed", removed)
	}
	return removed
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	_, pattern := s.mux.Handler(r)
	if pattern == "" {
		pattern = "unmatched"
	}
	s.metrics.ObserveRequest(pattern, rec.status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(requestIDHeader, requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, requestID, "method not allowed")
		return
	}

	if !s.limiter.Load().Allow(clientIP(r), time.Now()) {
		writeError(w, http.StatusTooManyRequests, requestID, "rate limit exceeded")
		return
	}

	if maxBody := s.maxBody.Load(); maxBody > 0 {
		if r.ContentLength > maxBody {
			writeError(w, http.StatusRequestEntityTooLarge, requestID, "request body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, requestID, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, requestID, fmt.Sprintf("invalid json: %v", err))
		return
	}

	engine := s.engine.Load()
	start := time.Now()
	result, err := engine.EvaluateText(req.Text, req.Sets...)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, phrase.ErrUnknownSet) {
			writeError(w, http.StatusBadRequest, requestID, err.Error())
			return
		}
		s.logger.Error("evaluate failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, requestID, "internal error")
		return
	}

	s.metrics.ObserveResult(result, elapsed)
	if err := s.matchLog.Write(Record(requestID, clientIP(r), result, elapsed)); err != nil {
		s.logger.Warn("match log write failed", "request_id", requestID, "error", err)
	}
	s.logger.Debug("tagged", "request_id", requestID, "tokens", len(result.Tokens), "hits", result.HitCount())

	writeJSON(w, http.StatusOK, tagResponse{RequestID: requestID, Result: result})
}

// Record converts an evaluation into its match log form.
func Record(requestID, source string, result phrase.Result, elapsed time.Duration) logging.MatchRecord {
	rec := logging.MatchRecord{
		Timestamp:  time.Now().UTC(),
		RequestID:  requestID,
		Source:     source,
		Tokens:     len(result.Tokens),
		DurationUS: elapsed.Microseconds(),
		Sets:       make([]logging.SetRecord, 0, len(result.Sets)),
	}
	for _, set := range result.Sets {
		sr := logging.SetRecord{Set: set.Set, Strategy: set.Strategy, Skipped: set.Skipped}
		for _, h := range set.Hits {
			sr.Hits = append(sr.Hits, logging.PhraseMatch{
				Phrase: strings.Join(h.Phrase, " "),
				Start:  h.Start,
				End:    h.End,
			})
		}
		rec.Sets = append(rec.Sets, sr)
	}
	return rec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, requestID, msg string) {
	writeJSON(w, status, errorResponse{RequestID: requestID, Error: msg})
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Package health exposes a small HTTP status surface for the daemon:
// /healthz for liveness and /stats for resolution counters.
package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/openprocurement/concord/internal/concordlog"
	"github.com/openprocurement/concord/internal/resolver"
)

// Stats counts resolution outcomes. All counters are monotonic and safe
// for concurrent use by the worker pool.
type Stats struct {
	Resolved          atomic.Int64
	ResolvedNoChanges atomic.Int64
	Skipped           atomic.Int64
	Abandoned         atomic.Int64
}

// Record bumps the counter matching outcome.
func (s *Stats) Record(outcome resolver.Outcome) {
	switch outcome {
	case resolver.OutcomeResolved:
		s.Resolved.Add(1)
	case resolver.OutcomeResolvedNoChanges:
		s.ResolvedNoChanges.Add(1)
	case resolver.OutcomeSkipped:
		s.Skipped.Add(1)
	case resolver.OutcomeAbandoned:
		s.Abandoned.Add(1)
	}
}

// Server serves the status endpoints.
type Server struct {
	stats   *Stats
	started time.Time
	server  *http.Server
}

// NewServer creates a status server bound to port.
func NewServer(port int, stats *Stats) *Server {
	s := &Server{stats: stats, started: time.Now()}

	router := http.NewServeMux()
	router.HandleFunc("/healthz", s.handleHealthz)
	router.HandleFunc("/stats", s.handleStats)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}
	return s
}

// Start listens in a goroutine and returns immediately.
func (s *Server) Start() {
	go func() {
		concordlog.Info("status server listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			concordlog.Error("status server error", zap.Error(err))
		}
	}()
}

// Close shuts the listener down.
func (s *Server) Close() error {
	return s.server.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"uptime_seconds":      int64(time.Since(s.started).Seconds()),
		"resolved":            s.stats.Resolved.Load(),
		"resolved_wo_changes": s.stats.ResolvedNoChanges.Load(),
		"skipped":             s.stats.Skipped.Load(),
		"abandoned":           s.stats.Abandoned.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		concordlog.Warn("stats encode failed", zap.Error(err))
	}
}

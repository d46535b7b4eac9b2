package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReady reports 503 until the store answers and templates are loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"templates": "ok", "store": "ok"}
	ready := true

	if s.templates == nil {
		checks["templates"] = "not loaded"
		ready = false
	}
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			checks["store"] = "unavailable"
			ready = false
		}
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "not ready", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ready", Checks: checks})
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	counter := func(name, help string, v int64) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v float64) {
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n", name, help, name, name, v)
	}

	tm := s.trace.GetMetrics()
	counter("walletgenie_http_requests_total", "HTTP requests served.", tm.TotalRequests)
	counter("walletgenie_http_responses_2xx_total", "Responses with a 2xx status.", tm.Status2xx)
	counter("walletgenie_http_responses_4xx_total", "Responses with a 4xx status.", tm.Status4xx)
	counter("walletgenie_http_responses_5xx_total", "Responses with a 5xx status.", tm.Status5xx)
	gauge("walletgenie_http_request_duration_avg_seconds", "Average request latency.", tm.AverageLatency().Seconds())

	rl := s.rateLimiter.GetMetrics()
	counter("walletgenie_ratelimit_rejected_total", "Mutating requests rejected by the rate limiter.", rl.Rejected)
	gauge("walletgenie_ratelimit_clients", "Clients tracked by the rate limiter.", float64(rl.ClientCount))

	sec := s.detector.GetMetrics()
	counter("walletgenie_security_suspicious_total", "Requests flagged as suspicious.", sec.SuspiciousRequests)
	counter("walletgenie_security_invalid_ip_total", "Forwarded IPs that failed to parse.", sec.InvalidIPAttempts)

	counter("walletgenie_transactions_added_total", "Transactions recorded.", s.metrics.transactionsAdded.Load())
	counter("walletgenie_transactions_deleted_total", "Transactions deleted one by one.", s.metrics.transactionsDeleted.Load())
	counter("walletgenie_transactions_purges_total", "Delete-all commands completed.", s.metrics.purges.Load())
	counter("walletgenie_category_changes_total", "Categories added or deleted.", s.metrics.categoryChanges.Load())
	counter("walletgenie_budgets_saved_total", "Budgets saved.", s.metrics.budgetsSaved.Load())
	counter("walletgenie_goal_changes_total", "Goals added, updated or deleted.", s.metrics.goalChanges.Load())
	counter("walletgenie_errors_total", "Requests that failed with a server error.", s.metrics.errors.Load())

	names := make([]string, 0, len(s.cacheSizes))
	for name := range s.cacheSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		gauge("walletgenie_cache_entries_"+name, "Live memoized entries.", float64(s.cacheSizes[name].Size()))
	}

	gauge("walletgenie_uptime_seconds", "Seconds since the server started.", time.Since(s.started).Seconds())

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

type indexView struct {
	UserID   string
	Currency Currency
	Today    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", indexView{
		UserID:   session.UserID(r),
		Currency: s.currency,
		Today:    s.budgets.Today().String(),
	})
}

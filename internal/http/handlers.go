package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"paydash/internal/amqp"
	"paydash/internal/core"
	applog "paydash/internal/log"
	"paydash/internal/metrics"
	"paydash/internal/services"
)

type goalResponse struct {
	Name              string  `json:"name"`
	Details           string  `json:"details,omitempty"`
	Cost              string  `json:"cost"`
	Priority          string  `json:"priority"`
	StartDate         string  `json:"start_date,omitempty"`
	CompletionPercent float64 `json:"completion_percent"`
}

type thresholdResponse struct {
	Name     string  `json:"name"`
	Annual   string  `json:"annual"`
	Percent  float64 `json:"percent"`
	Exceeded bool    `json:"exceeded"`
}

type dashboardResponse struct {
	GeneratedAt          time.Time           `json:"generated_at"`
	EarnedTotal          string              `json:"earned_total"`
	Stale                bool                `json:"stale"`
	Goals                []goalResponse      `json:"goals"`
	Thresholds           []thresholdResponse `json:"thresholds"`
	DaysSinceLastEarning *int                `json:"days_since_last_earning,omitempty"`
}

type refreshResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toGoalResponses(goals []core.AllocationResult) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp := goalResponse{
			Name:              g.Target.Name,
			Details:           g.Target.Details,
			Cost:              g.Target.Cost.String(),
			Priority:          string(g.Target.Tier),
			CompletionPercent: g.CompletionPercent,
		}
		if !g.Target.StartDate.IsZero() {
			resp.StartDate = g.Target.StartDate.Format("2006-01-02")
		}
		out = append(out, resp)
	}
	return out
}

func toThresholdResponses(ths []metrics.ThresholdProgress) []thresholdResponse {
	out := make([]thresholdResponse, 0, len(ths))
	for _, t := range ths {
		out = append(out, thresholdResponse{
			Name:     t.Threshold.Name,
			Annual:   t.Threshold.Annual.String(),
			Percent:  t.Percent,
			Exceeded: t.Exceeded,
		})
	}
	return out
}

func toDashboardResponse(snap *services.Snapshot) dashboardResponse {
	resp := dashboardResponse{
		GeneratedAt: snap.GeneratedAt,
		EarnedTotal: snap.EarnedTotal.String(),
		Stale:       snap.Stale,
		Goals:       toGoalResponses(snap.Goals),
		Thresholds:  toThresholdResponses(snap.Thresholds),
	}
	if snap.HasEarnings {
		days := snap.DaysSinceLastEarning
		resp.DaysSinceLastEarning = &days
	}
	return resp
}

// handleDashboard serves the full snapshot: allocation, thresholds and
// the last-earning metric.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	snap, err := s.getSnapshot(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard snapshot error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	writeJSON(w, http.StatusOK, toDashboardResponse(snap))
}

// handleGoals serves the goal allocation only.
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	goals, err := s.dashboard.Goals(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Goal allocation error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to allocate goals")
		return
	}

	writeJSON(w, http.StatusOK, toGoalResponses(goals))
}

// handleThresholds serves threshold progress only.
func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ths, err := s.dashboard.Thresholds(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Threshold progress error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute thresholds")
		return
	}

	writeJSON(w, http.StatusOK, toThresholdResponses(ths))
}

// handleRefresh publishes a manual refresh request and drops the cached
// snapshot so the next read reflects the refreshed data. Refresh requests
// fan out to the broker and ultimately the earnings API, so they are rate
// limited per client; the check runs after method validation so a stray
// POST to a read-only route never burns a token.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	clientIP := extractClientIP(r)
	if !s.rateLimiter.allow(clientIP) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", clientIP, "url", r.URL.Path)
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh broker not configured")
		return
	}

	if err := s.publisher.PublishRefreshRequest(r.Context(), amqp.ReasonManual); err != nil {
		slog.ErrorContext(r.Context(), "Refresh publish error", "error", err)
		writeError(w, http.StatusBadGateway, "failed to request refresh")
		return
	}

	s.InvalidateSnapshot()
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", Reason: amqp.ReasonManual})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// Package http exposes the dashboard as a JSON API. Snapshots are cached
// briefly so a page full of widgets does not hammer the earnings source.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"paydash/internal/cache"
	applog "paydash/internal/log"
	"paydash/internal/services"
)

// snapshotTTL bounds how long a rendered snapshot is served before the
// earnings source is consulted again.
const snapshotTTL = 2 * time.Minute

// snapshotKey is the single cache key: the dashboard has one snapshot,
// not one per client.
const snapshotKey = "dashboard"

// RefreshPublisher asks the worker to re-fetch earnings. Implemented by
// the AMQP client; nil when no broker is configured.
type RefreshPublisher interface {
	PublishRefreshRequest(ctx context.Context, reason string) error
}

type Server struct {
	http.Server
	dashboard   *services.DashboardService
	publisher   RefreshPublisher
	rateLimiter *rateLimiter

	snapshotCache *cache.TTLCache[*services.Snapshot]

	janitorCancel context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
// publisher may be nil; POST /api/refresh then reports the broker as absent.
func NewServer(addr string, dashboard *services.DashboardService, publisher RefreshPublisher, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	httpLogger := logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	handler := applog.Middleware(httpLogger)(
		applog.RequestIDMiddleware(func(*http.Request) string {
			return generateRequestID()
		})(mux))

	janitorCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: handler,
		},
		dashboard:     dashboard,
		publisher:     publisher,
		rateLimiter:   newRateLimiter(),
		snapshotCache: cache.New[*services.Snapshot](4, snapshotTTL),
		janitorCancel: cancel,
	}
	s.snapshotCache.StartJanitor(janitorCtx, 10*time.Minute)

	mux.HandleFunc("/api/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/api/goals", s.withSecurityHeaders(s.handleGoals))
	mux.HandleFunc("/api/thresholds", s.withSecurityHeaders(s.handleThresholds))
	mux.HandleFunc("/api/refresh", s.withSecurityHeaders(s.handleRefresh))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	return s
}

// InvalidateSnapshot drops the cached snapshot so the next request
// re-renders. Called after a refresh completes.
func (s *Server) InvalidateSnapshot() {
	s.snapshotCache.Purge()
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.janitorCancel()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// getSnapshot returns the cached snapshot or builds a fresh one.
func (s *Server) getSnapshot(ctx context.Context) (*services.Snapshot, error) {
	if snap, ok := s.snapshotCache.Get(snapshotKey); ok {
		slog.DebugContext(ctx, "Snapshot cache hit")
		return snap, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	snap, err := s.dashboard.Snapshot(cctx)
	if err != nil {
		return nil, fmt.Errorf("build dashboard snapshot: %w", err)
	}

	s.snapshotCache.Set(snapshotKey, snap)
	return snap, nil
}

// withSecurityHeaders adds security headers and request logging to
// responses. The request-scoped logger installed by the log middleware
// already carries the request ID. Rate limiting lives on the refresh
// handler, the only route that reaches out to the broker.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)
		structured := applog.NewStructuredLogger(applog.FromContext(ctx))

		structured.LogHTTPStart(ctx, r, clientIP)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once a snapshot can be built. The catalog is
// loaded at startup, so this is effectively a liveness probe for the
// allocation path.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.getSnapshot(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paydash/internal/catalog"
	"paydash/internal/core"
	"paydash/internal/earnings/memory"
	"paydash/internal/services"
)

type stubPublisher struct {
	reasons []string
	err     error
}

func (p *stubPublisher) PublishRefreshRequest(_ context.Context, reason string) error {
	if p.err != nil {
		return p.err
	}
	p.reasons = append(p.reasons, reason)
	return nil
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Goals: []core.FundingTarget{
			{Name: "emergency fund", Cost: core.Money{Cents: 100000}, Tier: core.TierCritical},
			{Name: "new laptop", Cost: core.Money{Cents: 50000}, Tier: core.TierHigh},
			{Name: "vacation", Cost: core.Money{Cents: 200000}, Tier: core.TierLow},
		},
		Thresholds: []core.Threshold{
			{Name: "income limit", Annual: core.Money{Cents: 240000}},
		},
	}
}

func newTestServer(t *testing.T, publisher RefreshPublisher) (*Server, *memory.Source) {
	t.Helper()

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	src := memory.New([]core.EarningsDay{
		{Day: yesterday, Total: core.Money{Cents: 120000}},
	})

	epoch := time.Now().UTC().AddDate(-1, 0, 0)
	svc := services.NewDashboardService(testCatalog(), src, epoch)
	srv := NewServer(":0", svc, publisher, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, src
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestDashboardEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/dashboard status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.EarnedTotal != "1200.00" {
		t.Errorf("earned_total = %q, want 1200.00", resp.EarnedTotal)
	}
	if resp.Stale {
		t.Error("snapshot should not be stale with a healthy source")
	}

	byName := map[string]float64{}
	for _, g := range resp.Goals {
		byName[g.Name] = g.CompletionPercent
	}
	if byName["emergency fund"] != 100 || byName["new laptop"] != 40 || byName["vacation"] != 0 {
		t.Errorf("goal percents = %v, want emergency=100 laptop=40 vacation=0", byName)
	}

	if len(resp.Thresholds) != 1 || resp.Thresholds[0].Percent != 50 {
		t.Errorf("thresholds = %+v, want one entry at 50%%", resp.Thresholds)
	}
	if resp.Thresholds[0].Exceeded {
		t.Error("threshold at 50%% should not be exceeded")
	}

	if resp.DaysSinceLastEarning == nil || *resp.DaysSinceLastEarning != 1 {
		t.Errorf("days_since_last_earning = %v, want 1", resp.DaysSinceLastEarning)
	}
}

func TestDashboardCachesSnapshot(t *testing.T) {
	srv, src := newTestServer(t, &stubPublisher{})

	if rec := doRequest(srv, http.MethodGet, "/api/dashboard"); rec.Code != http.StatusOK {
		t.Fatalf("first GET status = %d", rec.Code)
	}

	// The source changes, but the cached snapshot keeps serving.
	src.SetDays(nil)
	rec := doRequest(srv, http.MethodGet, "/api/dashboard")
	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EarnedTotal != "1200.00" {
		t.Errorf("cached earned_total = %q, want 1200.00", resp.EarnedTotal)
	}

	// A refresh request purges the cache.
	if rec := doRequest(srv, http.MethodPost, "/api/refresh"); rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/refresh status = %d, want 202", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/dashboard")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.EarnedTotal != "0.00" {
		t.Errorf("earned_total after refresh = %q, want 0.00", resp.EarnedTotal)
	}
}

func TestGoalsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/goals")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/goals status = %d, want 200", rec.Code)
	}

	var goals []goalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &goals); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(goals) != 3 {
		t.Fatalf("got %d goals, want 3", len(goals))
	}
	if goals[0].Priority != "critical" || goals[0].CompletionPercent != 100 {
		t.Errorf("first goal = %+v, want critical at 100%%", goals[0])
	}
}

func TestThresholdsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodGet, "/api/thresholds")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/thresholds status = %d, want 200", rec.Code)
	}

	var ths []thresholdResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ths); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(ths) != 1 || ths[0].Name != "income limit" || ths[0].Annual != "2400.00" {
		t.Errorf("thresholds = %+v", ths)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	pub := &stubPublisher{}
	srv, _ := newTestServer(t, pub)

	rec := doRequest(srv, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/refresh status = %d, want 202", rec.Code)
	}
	if len(pub.reasons) != 1 || pub.reasons[0] != "manual" {
		t.Errorf("published reasons = %v, want [manual]", pub.reasons)
	}
}

func TestRefreshWithoutBroker(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doRequest(srv, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /api/refresh status = %d, want 503", rec.Code)
	}
}

func TestRefreshPublishFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubPublisher{err: errors.New("broker down")})

	rec := doRequest(srv, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("POST /api/refresh status = %d, want 502", rec.Code)
	}
}

func TestRefreshRateLimit(t *testing.T) {
	pub := &stubPublisher{}
	srv, _ := newTestServer(t, pub)

	// POSTs to read-only routes are rejected outright and never count
	// against the refresh budget.
	for i := 0; i < refreshRequestsPerMinute+2; i++ {
		if rec := doRequest(srv, http.MethodPost, "/api/dashboard"); rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("POST /api/dashboard status = %d, want 405", rec.Code)
		}
	}

	for i := 1; i <= refreshRequestsPerMinute; i++ {
		if rec := doRequest(srv, http.MethodPost, "/api/refresh"); rec.Code != http.StatusAccepted {
			t.Fatalf("refresh request %d status = %d, want 202", i, rec.Code)
		}
	}

	rec := doRequest(srv, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("refresh over budget status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
	if len(pub.reasons) != refreshRequestsPerMinute {
		t.Errorf("published %d refresh requests, want %d", len(pub.reasons), refreshRequestsPerMinute)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	if rec := doRequest(srv, http.MethodPost, "/api/dashboard"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /api/dashboard status = %d, want 405", rec.Code)
	}
	if rec := doRequest(srv, http.MethodGet, "/api/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/refresh status = %d, want 405", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	if rec := doRequest(srv, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}
	if rec := doRequest(srv, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Errorf("GET /readyz status = %d, want 200", rec.Code)
	}
}

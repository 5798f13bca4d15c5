package clockify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paydash/internal/earnings"
)

const sampleReport = `{
	"totals": [{"totalAmount": 1234.56}],
	"groupOne": [
		{"name": "2025-06-02", "amount": 1000.06},
		{"name": "2025-06-01", "amount": 234.50}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cli, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", WorkspaceID: "ws1"})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return cli
}

func TestNewRequiresConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing base URL", cfg: Config{APIKey: "k", WorkspaceID: "w"}},
		{name: "missing API key", cfg: Config{BaseURL: "http://x", WorkspaceID: "w"}},
		{name: "missing workspace", cfg: Config{BaseURL: "http://x", APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New() expected error")
			}
		})
	}
}

func TestTotal(t *testing.T) {
	var gotPath, gotKey string
	var gotBody summaryRequest

	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(sampleReport))
	})

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	total, err := cli.Total(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 123456 {
		t.Errorf("Total() = %d cents, want 123456", total.Cents)
	}
	if gotPath != "/workspaces/ws1/reports/summary" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("X-Api-Key = %q, want test-key", gotKey)
	}
	if gotBody.DateRangeStart != "2025-06-01T00:00:00Z" {
		t.Errorf("dateRangeStart = %q", gotBody.DateRangeStart)
	}
}

func TestTotalEmptyReport(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totals": [], "groupOne": []}`))
	})

	total, err := cli.Total(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 0 {
		t.Errorf("Total() = %d cents, want 0 for empty report", total.Cents)
	}
}

func TestListDaysSortedOldestFirst(t *testing.T) {
	cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleReport))
	})

	days, err := cli.ListDays(context.Background(), time.Now().Add(-48*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("ListDays() unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if !days[0].Day.Before(days[1].Day) {
		t.Errorf("days not sorted oldest first: %v, %v", days[0].Day, days[1].Day)
	}
	if days[0].Total.Cents != 23450 {
		t.Errorf("first day = %d cents, want 23450", days[0].Total.Cents)
	}
	if days[1].Total.Cents != 100006 {
		t.Errorf("second day = %d cents, want 100006", days[1].Total.Cents)
	}
}

func TestSourceUnavailable(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		cli := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		})
		_, err := cli.Total(context.Background(), time.Now().Add(-time.Hour), time.Now())
		if !errors.Is(err, earnings.ErrSourceUnavailable) {
			t.Errorf("Total() error = %v, want ErrSourceUnavailable", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		cli, err := New(Config{BaseURL: "http://127.0.0.1:1", APIKey: "k", WorkspaceID: "w"})
		if err != nil {
			t.Fatal(err)
		}
		_, err = cli.Total(context.Background(), time.Now().Add(-time.Hour), time.Now())
		if !errors.Is(err, earnings.ErrSourceUnavailable) {
			t.Errorf("Total() error = %v, want ErrSourceUnavailable", err)
		}
	})
}

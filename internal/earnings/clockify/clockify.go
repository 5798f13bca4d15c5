// Package clockify adapts the Clockify summary-report API to the earnings
// ports. One ranged report request covers any window, so cumulative totals
// and per-day series are both a single round trip.
package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"paydash/internal/core"
	"paydash/internal/earnings"
)

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	workspaceID string
}

// Ensure interface conformance
var (
	_ earnings.TotalProvider = (*Client)(nil)
	_ earnings.DayLister     = (*Client)(nil)
)

// Config holds the connection parameters for the reports API.
type Config struct {
	// BaseURL of the reports API, e.g. "https://reports.api.clockify.me/v1".
	BaseURL     string
	APIKey      string
	WorkspaceID string
}

// New creates a reports client. All three config fields are required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("missing reports API base URL")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing reports API key")
	}
	if strings.TrimSpace(cfg.WorkspaceID) == "" {
		return nil, errors.New("missing workspace ID")
	}
	return &Client{
		httpClient:  newPooledHTTPClient(),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		workspaceID: cfg.WorkspaceID,
	}, nil
}

// newPooledHTTPClient builds an HTTP client with connection pooling and
// per-phase timeouts tuned for a low-volume reporting workload.
func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Total returns the billable amount earned in [from, to).
func (c *Client) Total(ctx context.Context, from, to time.Time) (core.Money, error) {
	report, err := c.fetchSummary(ctx, from, to)
	if err != nil {
		return core.Money{}, err
	}
	return report.total()
}

// ListDays returns per-day billable totals in [from, to), oldest first.
// Days the report omits had no tracked earnings.
func (c *Client) ListDays(ctx context.Context, from, to time.Time) ([]core.EarningsDay, error) {
	report, err := c.fetchSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.days()
}

func (c *Client) fetchSummary(ctx context.Context, from, to time.Time) (*summaryReport, error) {
	body, err := json.Marshal(summaryRequest{
		DateRangeStart: from.UTC().Format(time.RFC3339),
		DateRangeEnd:   to.UTC().Format(time.RFC3339),
		SummaryFilter:  summaryFilter{Groups: []string{"DATE"}},
		AmountShown:    "EARNED",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal summary request: %w", err)
	}

	url := fmt.Sprintf("%s/workspaces/%s/reports/summary", c.baseURL, c.workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: summary report: %v", earnings.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded amount of the body for the log line only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.WarnContext(ctx, "Summary report request rejected",
			"status", resp.StatusCode,
			"body", string(snippet))
		return nil, fmt.Errorf("%w: summary report returned status %d", earnings.ErrSourceUnavailable, resp.StatusCode)
	}

	var report summaryReport
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("decode summary report: %w", err)
	}
	return &report, nil
}

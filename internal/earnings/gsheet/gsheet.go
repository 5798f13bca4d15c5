// Package gsheet reads earnings from a manually kept Google Sheets log.
// The sheet has one row per tracked day: date in column A, billable amount
// in column B. It backs installs that track work hours in a spreadsheet
// instead of the reports API.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"paydash/internal/earnings"
)

type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	logSheet      string
}

// Ensure interface conformance
var (
	_ earnings.TotalProvider = (*Client)(nil)
	_ earnings.DayLister     = (*Client)(nil)
)

// NewFromEnv creates a Sheets earnings reader using environment variables.
// Required: EARNINGS_SPREADSHEET_ID.
// Optional: EARNINGS_SHEET_NAME (default "Earnings").
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("EARNINGS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing EARNINGS_SPREADSHEET_ID")
	}

	sheet := strings.TrimSpace(os.Getenv("EARNINGS_SHEET_NAME"))
	if sheet == "" {
		sheet = "Earnings"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logSheet:      sheet,
	}, nil
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials.
func newSheetsService(ctx context.Context) (*gsheets.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		var err error
		credentialsJSON, err = os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheets.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) readLog(ctx context.Context) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:B", c.logSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", earnings.ErrSourceUnavailable, rng, err)
	}
	return resp.Values, nil
}

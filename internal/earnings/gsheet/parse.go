package gsheet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"paydash/internal/core"
)

// Total sums the logged amounts whose date falls in [from, to).
func (c *Client) Total(ctx context.Context, from, to time.Time) (core.Money, error) {
	days, err := c.ListDays(ctx, from, to)
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	for _, d := range days {
		total = total.Add(d.Total)
	}
	return total, nil
}

// ListDays returns per-day totals in [from, to), oldest first. Rows with
// unparseable dates or amounts are skipped with a warning rather than
// failing the whole read, since the sheet is hand-edited.
func (c *Client) ListDays(ctx context.Context, from, to time.Time) ([]core.EarningsDay, error) {
	rows, err := c.readLog(ctx)
	if err != nil {
		return nil, err
	}
	return aggregateDays(ctx, rows, from, to), nil
}

// aggregateDays converts a values matrix (as returned by the Sheets API)
// into per-day totals within [from, to).
func aggregateDays(ctx context.Context, rows [][]interface{}, from, to time.Time) []core.EarningsDay {
	byDay := map[string]int64{}
	for i, row := range rows {
		dateStr := cellString(row, 0)
		amountStr := cellString(row, 1)
		if dateStr == "" && amountStr == "" {
			continue
		}
		day, err := parseSheetDate(dateStr)
		if err != nil {
			slog.WarnContext(ctx, "Skipping earnings row with bad date",
				"row", i+2, "value", dateStr, "error", err)
			continue
		}
		if day.Before(from) || !day.Before(to) {
			continue
		}
		cents, err := core.ParseDecimalToCents(amountStr)
		if err != nil {
			slog.WarnContext(ctx, "Skipping earnings row with bad amount",
				"row", i+2, "value", amountStr, "error", err)
			continue
		}
		byDay[day.Format("2006-01-02")] += cents
	}

	days := make([]core.EarningsDay, 0, len(byDay))
	for k, cents := range byDay {
		day, _ := time.Parse("2006-01-02", k)
		days = append(days, core.EarningsDay{Day: day, Total: core.Money{Cents: cents}})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return days
}

// parseSheetDate accepts the formats people actually type into the log.
func parseSheetDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func cellString(row []interface{}, col int) string {
	if col >= len(row) {
		return ""
	}
	if s, ok := row[col].(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[col]))
}

package clockify

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"paydash/internal/core"
)

// Wire types for the summary report endpoint. Amounts arrive as decimal
// numbers in major currency units; json.Number keeps them exact until the
// decimal conversion to cents.
type (
	summaryRequest struct {
		DateRangeStart string        `json:"dateRangeStart"`
		DateRangeEnd   string        `json:"dateRangeEnd"`
		SummaryFilter  summaryFilter `json:"summaryFilter"`
		AmountShown    string        `json:"amountShown"`
	}

	summaryFilter struct {
		Groups []string `json:"groups"`
	}

	summaryReport struct {
		Totals   []reportTotal `json:"totals"`
		GroupOne []reportGroup `json:"groupOne"`
	}

	reportTotal struct {
		TotalAmount json.Number `json:"totalAmount"`
	}

	reportGroup struct {
		Name   string      `json:"name"` // date grouped as "2006-01-02"
		Amount json.Number `json:"amount"`
	}
)

func (r *summaryReport) total() (core.Money, error) {
	// An empty totals array means no entries matched the range.
	if len(r.Totals) == 0 {
		return core.Money{}, nil
	}
	cents, err := amountToCents(r.Totals[0].TotalAmount)
	if err != nil {
		return core.Money{}, fmt.Errorf("parse report total: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *summaryReport) days() ([]core.EarningsDay, error) {
	days := make([]core.EarningsDay, 0, len(r.GroupOne))
	for _, g := range r.GroupOne {
		day, err := time.Parse("2006-01-02", g.Name)
		if err != nil {
			return nil, fmt.Errorf("parse report day %q: %w", g.Name, err)
		}
		cents, err := amountToCents(g.Amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount for %s: %w", g.Name, err)
		}
		days = append(days, core.EarningsDay{Day: day, Total: core.Money{Cents: cents}})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day.Before(days[j].Day) })
	return days, nil
}

func amountToCents(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, err
	}
	return core.DecimalToCents(d), nil
}

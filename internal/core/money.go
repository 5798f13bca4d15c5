// Package core holds the domain types shared across the dashboard:
// money, funding targets, priority tiers and income thresholds.
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseDecimalToCents converts a decimal amount string to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted since goal
// costs are hand-maintained. Sub-cent digits are rounded half-up.
// Negative amounts are accepted: the allocator treats nonpositive costs
// as already funded, and the earnings source can report refunds.
func ParseDecimalToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

// DecimalToCents converts an already-parsed decimal to cents, rounding
// half-up on sub-cent digits.
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func normalizeDecimal(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case ',':
			out = append(out, '.')
		case ' ', '\t':
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// Float returns the amount in major units for display and percent math.
// Keep arithmetic in cents wherever exactness matters.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// String formats the amount as a plain decimal, e.g. "1234.50".
func (m Money) String() string {
	neg := ""
	c := m.Cents
	if c < 0 {
		neg = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", neg, c/100, c%100)
}

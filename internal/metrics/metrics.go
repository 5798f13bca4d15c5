// Package metrics derives the dashboard numbers from raw earnings:
// progress against benefit income thresholds and the recency of the last
// earning day. Like the allocator, everything here is pure.
package metrics

import (
	"math"
	"time"

	"paydash/internal/core"
)

// ThresholdProgress is how far cumulative earnings sit against one limit.
type ThresholdProgress struct {
	Threshold core.Threshold
	Percent   float64
	Exceeded  bool
}

// AgainstThresholds computes the percentage of each threshold covered by
// the earned total. Percentages are rounded to two decimals and not capped
// at 100, since exceeding a benefit limit is exactly the condition the
// dashboard exists to surface.
func AgainstThresholds(earned core.Money, thresholds []core.Threshold) []ThresholdProgress {
	out := make([]ThresholdProgress, 0, len(thresholds))
	for _, th := range thresholds {
		var pct float64
		if th.Annual.Cents > 0 {
			pct = float64(earned.Cents) / float64(th.Annual.Cents) * 100
		}
		if pct < 0 {
			pct = 0
		}
		pct = math.Round(pct*100) / 100
		out = append(out, ThresholdProgress{
			Threshold: th,
			Percent:   pct,
			Exceeded:  earned.Cents >= th.Annual.Cents,
		})
	}
	return out
}

// DaysSinceLastEarning scans an already-fetched day series for the most
// recent day with a positive total and returns whole days elapsed since
// then. One ranged fetch feeds this; it never issues per-day lookups.
// Returns ok=false when the series has no earning days at all.
func DaysSinceLastEarning(days []core.EarningsDay, now time.Time) (int, bool) {
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Total.Cents <= 0 {
			continue
		}
		elapsed := int(now.Sub(startOfDay(days[i].Day)).Hours() / 24)
		if elapsed < 0 {
			elapsed = 0
		}
		return elapsed, true
	}
	return 0, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

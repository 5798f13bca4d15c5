// Package earnings defines the ports for the external time-tracking data
// source. Adapters live in subpackages (clockify, gsheet, memory); callers
// depend only on these interfaces and resolve fetch failures to a zero
// pool before any allocation runs.
package earnings

import (
	"context"
	"errors"
	"time"

	"paydash/internal/core"
)

// ErrSourceUnavailable marks network or auth failures talking to the
// earnings source. Adapters wrap their transport errors in it so callers
// can apply the zero-pool fallback without inspecting vendor errors.
var ErrSourceUnavailable = errors.New("earnings source unavailable")

// Ports for outbound adapters.
type (
	// TotalProvider returns the total billable amount earned in [from, to).
	TotalProvider interface {
		Total(ctx context.Context, from, to time.Time) (core.Money, error)
	}

	// DayLister returns per-day billable totals in [from, to), oldest first.
	// Days without earnings may be omitted; callers must not assume a
	// contiguous series.
	DayLister interface {
		ListDays(ctx context.Context, from, to time.Time) ([]core.EarningsDay, error)
	}

	// Source is the full read surface the dashboard needs.
	Source interface {
		TotalProvider
		DayLister
	}
)

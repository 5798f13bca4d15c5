// Package services orchestrates the dashboard: it resolves the earnings
// pool, runs the fund allocation and threshold metrics, and assembles the
// snapshot the HTTP layer serves.
package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"paydash/internal/allocator"
	"paydash/internal/catalog"
	"paydash/internal/core"
	"paydash/internal/earnings"
	"paydash/internal/metrics"
)

// recencyWindow bounds the day series fetched for the last-earning metric.
const recencyWindow = 90 * 24 * time.Hour

// Snapshot is everything the dashboard shows for one reporting cycle.
type Snapshot struct {
	GeneratedAt time.Time
	EarnedTotal core.Money
	// Stale means the earnings source could not be reached and the pool
	// fell back to zero (or cached data is flagged stale).
	Stale                bool
	Goals                []core.AllocationResult
	Thresholds           []metrics.ThresholdProgress
	DaysSinceLastEarning int
	HasEarnings          bool
}

// StaleChecker is implemented by snapshot-backed sources that can tell
// whether their cached data lags the live source.
type StaleChecker interface {
	HasStale(ctx context.Context) (bool, error)
}

// DashboardService composes catalog, earnings source and allocator.
type DashboardService struct {
	catalog *catalog.Catalog
	source  earnings.Source
	staler  StaleChecker // optional
	epoch   time.Time
	now     func() time.Time
}

func NewDashboardService(cat *catalog.Catalog, source earnings.Source, epoch time.Time) *DashboardService {
	return &DashboardService{
		catalog: cat,
		source:  source,
		epoch:   epoch,
		now:     time.Now,
	}
}

// WithStaleChecker attaches a staleness probe, typically the snapshot
// repository backing a cached source.
func (s *DashboardService) WithStaleChecker(sc StaleChecker) *DashboardService {
	s.staler = sc
	return s
}

// Snapshot builds the full dashboard state. A failing earnings source is
// not an error here: the pool resolves to zero and the snapshot is marked
// stale, keeping the allocation run total over its inputs.
func (s *DashboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := s.now()

	var (
		total      core.Money
		recentDays []core.EarningsDay
	)
	fetchFailed := false

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.source.Total(gctx, s.epoch, now)
		if err != nil {
			slog.ErrorContext(gctx, "Earnings total fetch failed, using zero pool",
				"error", err, "epoch", s.epoch.Format("2006-01-02"))
			fetchFailed = true
			return nil
		}
		total = t
		return nil
	})
	g.Go(func() error {
		days, err := s.source.ListDays(gctx, now.Add(-recencyWindow), now)
		if err != nil {
			slog.ErrorContext(gctx, "Earnings day series fetch failed",
				"error", err)
			return nil
		}
		recentDays = days
		return nil
	})
	// The goroutines swallow source errors by design; g.Wait only
	// propagates context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	goals, err := allocator.ComputeProgress(s.catalog.Goals, total)
	if err != nil {
		// The catalog is validated at load time, so this indicates a bug.
		return nil, err
	}

	snap := &Snapshot{
		GeneratedAt: now,
		EarnedTotal: total,
		Stale:       fetchFailed,
		Goals:       goals,
		Thresholds:  metrics.AgainstThresholds(total, s.catalog.Thresholds),
	}
	if days, ok := metrics.DaysSinceLastEarning(recentDays, now); ok {
		snap.DaysSinceLastEarning = days
		snap.HasEarnings = true
	}

	if !snap.Stale && s.staler != nil {
		stale, err := s.staler.HasStale(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Stale check failed", "error", err)
		} else {
			snap.Stale = stale
		}
	}

	return snap, nil
}

// Thresholds returns threshold progress only, without the goal allocation.
func (s *DashboardService) Thresholds(ctx context.Context) ([]metrics.ThresholdProgress, error) {
	total, err := s.source.Total(ctx, s.epoch, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "Earnings total fetch failed, using zero pool", "error", err)
		total = core.Money{}
	}
	return metrics.AgainstThresholds(total, s.catalog.Thresholds), nil
}

// Goals runs the allocation against the current pool.
func (s *DashboardService) Goals(ctx context.Context) ([]core.AllocationResult, error) {
	total, err := s.source.Total(ctx, s.epoch, s.now())
	if err != nil {
		slog.ErrorContext(ctx, "Earnings total fetch failed, using zero pool", "error", err)
		total = core.Money{}
	}
	return allocator.ComputeProgress(s.catalog.Goals, total)
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"paydash/internal/core"
	"paydash/internal/earnings"
	"paydash/internal/storage"
)

// SnapshotStore is the slice of the repository the refresh path needs.
type SnapshotStore interface {
	UpsertDay(ctx context.Context, day core.EarningsDay) error
	MarkStale(ctx context.Context) error
	StartRun(ctx context.Context) (int64, error)
	FinishRun(ctx context.Context, id int64, daysUpdated int, errMsg string) error
}

var _ SnapshotStore = (*storage.SnapshotRepository)(nil)

// RefreshService pulls the full day series from the live earnings source
// and persists it as snapshots. One ranged query covers the whole window;
// there are no per-day calls.
type RefreshService struct {
	source earnings.DayLister
	store  SnapshotStore
	epoch  time.Time
	now    func() time.Time
}

func NewRefreshService(source earnings.DayLister, store SnapshotStore, epoch time.Time) *RefreshService {
	return &RefreshService{
		source: source,
		store:  store,
		epoch:  epoch,
		now:    time.Now,
	}
}

// Refresh fetches all earnings days since the epoch and upserts them. On
// fetch failure the existing snapshots are flagged stale and the run is
// recorded as failed; the dashboard keeps serving cached data.
func (s *RefreshService) Refresh(ctx context.Context) error {
	runID, err := s.store.StartRun(ctx)
	if err != nil {
		return fmt.Errorf("start refresh run: %w", err)
	}

	days, err := s.source.ListDays(ctx, s.epoch, s.now())
	if err != nil {
		if markErr := s.store.MarkStale(ctx); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark snapshots stale", "error", markErr)
		}
		if finErr := s.store.FinishRun(ctx, runID, 0, err.Error()); finErr != nil {
			slog.ErrorContext(ctx, "Failed to record failed run", "error", finErr)
		}
		return fmt.Errorf("fetch earnings days: %w", err)
	}

	updated := 0
	for _, day := range days {
		if err := s.store.UpsertDay(ctx, day); err != nil {
			slog.ErrorContext(ctx, "Failed to store earnings day",
				"day", day.Day.Format("2006-01-02"), "error", err)
			continue
		}
		updated++
	}

	if err := s.store.FinishRun(ctx, runID, updated, ""); err != nil {
		slog.ErrorContext(ctx, "Failed to record refresh run", "error", err)
	}

	slog.InfoContext(ctx, "Earnings refresh completed",
		"run_id", runID,
		"days_fetched", len(days),
		"days_updated", updated)
	return nil
}

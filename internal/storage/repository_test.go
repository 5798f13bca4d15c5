package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"paydash/internal/core"
)

func newTestRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	repo, err := NewSnapshotRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSnapshotRepository() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedDay(t *testing.T, repo *SnapshotRepository, date string, cents int64) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertDay(context.Background(), core.EarningsDay{
		Day:   day,
		Total: core.Money{Cents: cents},
	}); err != nil {
		t.Fatalf("UpsertDay(%s) unexpected error: %v", date, err)
	}
}

func TestUpsertAndTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedDay(t, repo, "2025-06-01", 1000)
	seedDay(t, repo, "2025-06-02", 2000)
	seedDay(t, repo, "2025-05-15", 500)
	// Upsert overwrites the earlier amount.
	seedDay(t, repo, "2025-06-01", 1500)

	total, err := repo.Total(ctx,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 3500 {
		t.Errorf("Total() = %d cents, want 3500", total.Cents)
	}

	ranged, err := repo.Total(ctx,
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if ranged.Cents != 2000 {
		t.Errorf("Total() = %d cents, want 2000 (end exclusive)", ranged.Cents)
	}
}

func TestTotalEmpty(t *testing.T) {
	repo := newTestRepo(t)
	total, err := repo.Total(context.Background(),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 0 {
		t.Errorf("empty table total = %d cents, want 0", total.Cents)
	}
}

// A window edge with a time-of-day component is resolved at day
// granularity, exactly like the in-memory source: querying at 15:00 must
// still see the current day's snapshot.
func TestWindowEdgesWithTimeOfDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedDay(t, repo, "2025-06-10", 5000)

	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	midDay := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	total, err := repo.Total(ctx, epoch, midDay)
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 5000 {
		t.Errorf("Total() up to mid-day = %d cents, want 5000", total.Cents)
	}

	days, err := repo.ListDays(ctx, epoch, midDay)
	if err != nil {
		t.Fatalf("ListDays() unexpected error: %v", err)
	}
	if len(days) != 1 {
		t.Errorf("ListDays() up to mid-day returned %d days, want 1", len(days))
	}

	// An upper bound at exactly midnight keeps the end exclusive.
	midnight := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	total, err = repo.Total(ctx, epoch, midnight)
	if err != nil {
		t.Fatalf("Total() unexpected error: %v", err)
	}
	if total.Cents != 0 {
		t.Errorf("Total() up to midnight = %d cents, want 0", total.Cents)
	}

	// A mid-day lower bound is past that day's midnight, so the day is out.
	days, err = repo.ListDays(ctx, midDay, midDay.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListDays() unexpected error: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("ListDays() from mid-day returned %d days, want 0", len(days))
	}
}

func TestListDays(t *testing.T) {
	repo := newTestRepo(t)
	seedDay(t, repo, "2025-06-03", 300)
	seedDay(t, repo, "2025-06-01", 100)
	seedDay(t, repo, "2025-06-02", 200)

	days, err := repo.ListDays(context.Background(),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListDays() unexpected error: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if !days[0].Day.Before(days[1].Day) {
		t.Error("days not ordered oldest first")
	}
}

func TestStaleFlag(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedDay(t, repo, "2025-06-01", 100)

	stale, err := repo.HasStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("fresh snapshots should not be stale")
	}

	if err := repo.MarkStale(ctx); err != nil {
		t.Fatalf("MarkStale() unexpected error: %v", err)
	}
	stale, err = repo.HasStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !stale {
		t.Error("HasStale() = false after MarkStale()")
	}

	// Upserting a day clears its stale flag.
	seedDay(t, repo, "2025-06-01", 100)
	stale, err = repo.HasStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("upsert should clear the stale flag")
	}
}

func TestRefreshRuns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LastRun(ctx); !errors.Is(err, ErrNoSnapshots) {
		t.Errorf("no runs: error = %v, want ErrNoSnapshots", err)
	}

	id, err := repo.StartRun(ctx)
	if err != nil {
		t.Fatalf("StartRun() unexpected error: %v", err)
	}
	if err := repo.FinishRun(ctx, id, 7, ""); err != nil {
		t.Fatalf("FinishRun() unexpected error: %v", err)
	}

	run, err := repo.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun() unexpected error: %v", err)
	}
	if run.ID != id || run.DaysUpdated != 7 {
		t.Errorf("LastRun() = id %d days %d, want id %d days 7", run.ID, run.DaysUpdated, id)
	}
	if run.Error.Valid {
		t.Errorf("successful run should have no error, got %q", run.Error.String)
	}
	if !run.FinishedAt.Valid {
		t.Error("finished run should have finished_at set")
	}
}

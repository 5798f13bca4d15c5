// Package storage persists daily earnings snapshots in SQLite so the
// dashboard can serve cumulative totals without hitting the time-tracking
// API on every request, and keeps bookkeeping for refresh runs.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paydash/internal/core"

	_ "modernc.org/sqlite"
)

const dayFormat = "2006-01-02"

// dayBound rounds an instant up to the next midnight (UTC) and formats it
// for comparison against whole-day rows. Rows live at midnight, so a window
// edge with a time-of-day component must move to the following day string:
// a `to` of 15:00 keeps that day's row inside [from, to), while a `to` of
// exactly midnight still excludes it.
func dayBound(t time.Time) string {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day.Format(dayFormat)
}

// ErrNoSnapshots means there is no recorded data to answer from, such as
// asking for the last refresh run before the worker has ever run.
var ErrNoSnapshots = errors.New("no earnings snapshots")

type SnapshotRepository struct {
	db *sql.DB
}

// RefreshRun is one execution of the earnings refresh, finished or not.
type RefreshRun struct {
	ID          int64
	StartedAt   time.Time
	FinishedAt  sql.NullTime
	DaysUpdated int64
	Error       sql.NullString
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// UpsertDay records one day's total, replacing any previous snapshot for
// that day and clearing its stale flag.
func (r *SnapshotRepository) UpsertDay(ctx context.Context, day core.EarningsDay) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO earnings_days (day, amount_cents, fetched_at, stale)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(day) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			fetched_at = excluded.fetched_at,
			stale = 0`,
		day.Day.Format(dayFormat), day.Total.Cents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert earnings day: %w", err)
	}
	return nil
}

// ListDays returns snapshots in [from, to), oldest first. Implements the
// earnings DayLister port, so cached data can stand in for the live source.
// A day is inside the window when its midnight is, matching the other
// adapters: a mid-day `to` includes the current day's snapshot.
func (r *SnapshotRepository) ListDays(ctx context.Context, from, to time.Time) ([]core.EarningsDay, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, amount_cents FROM earnings_days
		WHERE day >= ? AND day < ?
		ORDER BY day ASC`,
		dayBound(from), dayBound(to))
	if err != nil {
		return nil, fmt.Errorf("list earnings days: %w", err)
	}
	defer rows.Close()

	var out []core.EarningsDay
	for rows.Next() {
		var dayStr string
		var cents int64
		if err := rows.Scan(&dayStr, &cents); err != nil {
			return nil, fmt.Errorf("scan earnings day: %w", err)
		}
		day, err := time.Parse(dayFormat, dayStr)
		if err != nil {
			return nil, fmt.Errorf("parse stored day %q: %w", dayStr, err)
		}
		out = append(out, core.EarningsDay{Day: day, Total: core.Money{Cents: cents}})
	}
	return out, rows.Err()
}

// Total implements the earnings TotalProvider port over cached snapshots.
// Window edges follow the same day-granularity rule as ListDays.
func (r *SnapshotRepository) Total(ctx context.Context, from, to time.Time) (core.Money, error) {
	var cents sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM earnings_days WHERE day >= ? AND day < ?`,
		dayBound(from), dayBound(to)).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total: %w", err)
	}
	return core.Money{Cents: cents.Int64}, nil
}

// MarkStale flags every snapshot as stale without touching the amounts.
// Called when a refresh fails, so readers can tell cached data may lag.
func (r *SnapshotRepository) MarkStale(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE earnings_days SET stale = 1`)
	if err != nil {
		return fmt.Errorf("mark snapshots stale: %w", err)
	}
	return nil
}

// HasStale reports whether any snapshot is flagged stale.
func (r *SnapshotRepository) HasStale(ctx context.Context) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM earnings_days WHERE stale = 1`).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count stale snapshots: %w", err)
	}
	return n > 0, nil
}

// StartRun opens a refresh-run record and returns its ID.
func (r *SnapshotRepository) StartRun(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (started_at) VALUES (?)`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("start refresh run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("refresh run id: %w", err)
	}
	return id, nil
}

// FinishRun closes a refresh-run record. A non-empty errMsg marks the run
// as failed.
func (r *SnapshotRepository) FinishRun(ctx context.Context, id int64, daysUpdated int, errMsg string) error {
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_runs
		SET finished_at = ?, days_updated = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC(), daysUpdated, errVal, id)
	if err != nil {
		return fmt.Errorf("finish refresh run: %w", err)
	}
	slog.InfoContext(ctx, "Refresh run recorded",
		"run_id", id,
		"days_updated", daysUpdated,
		"failed", errMsg != "")
	return nil
}

// LastRun returns the most recent refresh run, or ErrNoSnapshots when the
// worker has never run.
func (r *SnapshotRepository) LastRun(ctx context.Context) (RefreshRun, error) {
	var run RefreshRun
	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, days_updated, error
		FROM refresh_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.DaysUpdated, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshRun{}, ErrNoSnapshots
	}
	if err != nil {
		return RefreshRun{}, fmt.Errorf("last refresh run: %w", err)
	}
	return run, nil
}

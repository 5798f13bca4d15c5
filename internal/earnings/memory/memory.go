// Package memory is an in-memory earnings source for development and
// tests. It can be seeded from a YAML file so the dashboard runs without
// any external credentials.
package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"paydash/internal/core"
	"paydash/internal/earnings"
)

type Source struct {
	mu   sync.RWMutex
	days []core.EarningsDay
}

// Ensure interface conformance
var (
	_ earnings.TotalProvider = (*Source)(nil)
	_ earnings.DayLister     = (*Source)(nil)
)

// New creates a source holding the given per-day totals.
func New(days []core.EarningsDay) *Source {
	s := &Source{}
	s.SetDays(days)
	return s
}

type seedFile struct {
	Days []struct {
		Date   string `yaml:"date"`
		Amount string `yaml:"amount"`
	} `yaml:"days"`
}

// NewFromFile seeds the source from a YAML file with a list of
// {date, amount} entries. A missing file yields an empty source, so a
// fresh checkout starts with zero earnings rather than an error.
func NewFromFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read earnings seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse earnings seed: %w", err)
	}

	days := make([]core.EarningsDay, 0, len(seed.Days))
	for i, d := range seed.Days {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: parse date: %w", i+1, err)
		}
		cents, err := core.ParseDecimalToCents(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		days = append(days, core.EarningsDay{Day: day, Total: core.Money{Cents: cents}})
	}
	return New(days), nil
}

// SetDays replaces the seeded data. Used by tests.
func (s *Source) SetDays(days []core.EarningsDay) {
	sorted := make([]core.EarningsDay, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Day.Before(sorted[j].Day) })

	s.mu.Lock()
	s.days = sorted
	s.mu.Unlock()
}

func (s *Source) Total(_ context.Context, from, to time.Time) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total core.Money
	for _, d := range s.days {
		if d.Day.Before(from) || !d.Day.Before(to) {
			continue
		}
		total = total.Add(d.Total)
	}
	return total, nil
}

func (s *Source) ListDays(_ context.Context, from, to time.Time) ([]core.EarningsDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.EarningsDay
	for _, d := range s.days {
		if d.Day.Before(from) || !d.Day.Before(to) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

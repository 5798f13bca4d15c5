package metrics

import (
	"testing"
	"time"

	"paydash/internal/core"
)

func TestAgainstThresholds(t *testing.T) {
	thresholds := []core.Threshold{
		{Name: "monthly limit", Annual: core.Money{Cents: 100000}},
		{Name: "annual limit", Annual: core.Money{Cents: 2000000}},
	}

	tests := []struct {
		name         string
		earnedCents  int64
		wantPercents []float64
		wantExceeded []bool
	}{
		{
			name:         "partial progress",
			earnedCents:  50000,
			wantPercents: []float64{50, 2.5},
			wantExceeded: []bool{false, false},
		},
		{
			name:         "over the first limit",
			earnedCents:  150000,
			wantPercents: []float64{150, 7.5},
			wantExceeded: []bool{true, false},
		},
		{
			name:         "zero earnings",
			earnedCents:  0,
			wantPercents: []float64{0, 0},
			wantExceeded: []bool{false, false},
		},
		{
			name:         "negative clamped to zero",
			earnedCents:  -100,
			wantPercents: []float64{0, 0},
			wantExceeded: []bool{false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AgainstThresholds(core.Money{Cents: tt.earnedCents}, thresholds)
			if len(got) != len(thresholds) {
				t.Fatalf("got %d results, want %d", len(got), len(thresholds))
			}
			for i := range got {
				if got[i].Percent != tt.wantPercents[i] {
					t.Errorf("%s percent = %v, want %v",
						got[i].Threshold.Name, got[i].Percent, tt.wantPercents[i])
				}
				if got[i].Exceeded != tt.wantExceeded[i] {
					t.Errorf("%s exceeded = %v, want %v",
						got[i].Threshold.Name, got[i].Exceeded, tt.wantExceeded[i])
				}
			}
		})
	}
}

func TestAgainstThresholdsRounding(t *testing.T) {
	got := AgainstThresholds(core.Money{Cents: 100}, []core.Threshold{
		{Name: "third", Annual: core.Money{Cents: 300}},
	})
	if got[0].Percent != 33.33 {
		t.Errorf("percent = %v, want 33.33", got[0].Percent)
	}
}

func TestDaysSinceLastEarning(t *testing.T) {
	day := func(date string, cents int64) core.EarningsDay {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			t.Fatal(err)
		}
		return core.EarningsDay{Day: d, Total: core.Money{Cents: cents}}
	}
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		days   []core.EarningsDay
		want   int
		wantOK bool
	}{
		{
			name:   "earned today",
			days:   []core.EarningsDay{day("2025-06-01", 100), day("2025-06-10", 500)},
			want:   0,
			wantOK: true,
		},
		{
			name:   "trailing zero days skipped",
			days:   []core.EarningsDay{day("2025-06-05", 100), day("2025-06-09", 0), day("2025-06-10", 0)},
			want:   5,
			wantOK: true,
		},
		{
			name:   "no earning days",
			days:   []core.EarningsDay{day("2025-06-09", 0)},
			wantOK: false,
		},
		{
			name:   "empty series",
			days:   nil,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysSinceLastEarning(tt.days, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("days = %d, want %d", got, tt.want)
			}
		})
	}
}

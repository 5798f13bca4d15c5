package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	TierCritical PriorityTier = "critical"
	TierHigh     PriorityTier = "high"
	TierMedium   PriorityTier = "medium"
	TierLow      PriorityTier = "low"
)

type (
	// PriorityTier orders funding targets: critical > high > medium > low.
	PriorityTier string

	Money struct {
		Cents int64
	}

	// FundingTarget is a goal competing for earned funds.
	FundingTarget struct {
		Name      string
		Details   string
		Cost      Money
		Tier      PriorityTier
		StartDate time.Time
	}

	// AllocationResult pairs a target with the fraction of its cost covered
	// by the allocation run that produced it.
	AllocationResult struct {
		Target            FundingTarget
		CompletionPercent float64
	}

	// Threshold is a fixed benefit-eligibility income limit to compare
	// cumulative earnings against.
	Threshold struct {
		Name   string
		Annual Money
	}

	// EarningsDay is one day's billable total as reported by the source.
	EarningsDay struct {
		Day   time.Time
		Total Money
	}
)

var (
	ErrInvalidPriority    = errors.New("invalid priority tier")
	ErrEmptyTargetName    = errors.New("empty target name")
	ErrEmptyThresholdName = errors.New("empty threshold name")
	ErrInvalidThreshold   = errors.New("threshold must be positive")
)

// tierRanks maps each tier to its funding precedence, ascending.
var tierRanks = map[PriorityTier]int{
	TierCritical: 1,
	TierHigh:     2,
	TierMedium:   3,
	TierLow:      4,
}

// ParsePriorityTier normalizes and validates a tier label.
func ParsePriorityTier(s string) (PriorityTier, error) {
	t := PriorityTier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierRanks[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return t, nil
}

// Rank returns the tier's funding precedence (1 = funded first).
// Unknown tiers return ok=false; callers validate tiers before ranking.
func (t PriorityTier) Rank() (int, bool) {
	r, ok := tierRanks[t]
	return r, ok
}

func (t PriorityTier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

func (ft FundingTarget) Validate() error {
	if strings.TrimSpace(ft.Name) == "" {
		return ErrEmptyTargetName
	}
	if len(ft.Name) > 200 {
		return errors.New("target name too long (max 200 characters)")
	}
	if !ft.Tier.Valid() {
		return fmt.Errorf("%w: %q (target %q)", ErrInvalidPriority, ft.Tier, ft.Name)
	}
	// Nonpositive cost is allowed: such targets count as fully funded.
	return nil
}

func (th Threshold) Validate() error {
	if strings.TrimSpace(th.Name) == "" {
		return ErrEmptyThresholdName
	}
	if th.Annual.Cents <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidThreshold, th.Name)
	}
	return nil
}

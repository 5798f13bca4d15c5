// Package allocator distributes a pool of earned money across prioritized
// funding targets. Higher tiers are satisfied in full before lower tiers
// receive anything; each target gets a completion percentage of its cost.
//
// Everything here is pure: no I/O, no clock, no mutation of inputs. The
// same inputs always produce the same results, so callers may invoke it
// concurrently without coordination.
package allocator

import (
	"fmt"
	"math"
	"sort"

	"paydash/internal/core"
)

// SortByPriority returns a new slice ordered by tier rank, critical first.
// The sort is stable: same-tier targets keep their original relative order,
// which pins down the funding order between them. The input is not modified.
//
// A target with an unrecognized tier is a contract violation and fails with
// core.ErrInvalidPriority; tiers are never silently coerced.
func SortByPriority(targets []core.FundingTarget) ([]core.FundingTarget, error) {
	for _, ft := range targets {
		if !ft.Tier.Valid() {
			return nil, fmt.Errorf("%w: %q (target %q)", core.ErrInvalidPriority, ft.Tier, ft.Name)
		}
	}

	sorted := make([]core.FundingTarget, len(targets))
	copy(sorted, targets)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, _ := sorted[i].Tier.Rank()
		rj, _ := sorted[j].Tier.Rank()
		return ri < rj
	})
	return sorted, nil
}

// Allocate walks the priority-sorted targets once, consuming the pool
// top-down. The caller is responsible for the ordering; Allocate does not
// re-sort. A negative pool is clamped to zero rather than rejected, since
// "negative earnings" has no funding meaning and upstream fetch failures
// resolve to a zero pool by convention.
//
// Per target:
//   - cost <= 0: fully funded (100%), pool untouched. Intentional policy,
//     covering both zero-cost and negative-cost records.
//   - pool exhausted: 0%.
//   - otherwise: min(remaining, cost) is allocated and the percentage is
//     clamped to [0,100] and rounded to two decimals.
//
// The total allocated never exceeds max(0, pool).
func Allocate(sorted []core.FundingTarget, pool core.Money) []core.AllocationResult {
	remaining := pool.Cents
	if remaining < 0 {
		remaining = 0
	}

	results := make([]core.AllocationResult, 0, len(sorted))
	for _, target := range sorted {
		var percent float64
		switch {
		case target.Cost.Cents <= 0:
			percent = 100
		case remaining <= 0:
			percent = 0
		default:
			allocated := remaining
			if target.Cost.Cents < allocated {
				allocated = target.Cost.Cents
			}
			percent = float64(allocated) / float64(target.Cost.Cents) * 100
			remaining -= allocated
		}
		results = append(results, core.AllocationResult{
			Target:            target,
			CompletionPercent: clampPercent(percent),
		})
	}
	return results
}

// ComputeProgress sorts the raw targets by priority and allocates the pool
// across them. This is the only entry point callers should need; the split
// into SortByPriority and Allocate exists so ordering is testable on its own.
func ComputeProgress(targets []core.FundingTarget, pool core.Money) ([]core.AllocationResult, error) {
	sorted, err := SortByPriority(targets)
	if err != nil {
		return nil, err
	}
	return Allocate(sorted, pool), nil
}

// clampPercent bounds the value to [0,100] and rounds to two decimals.
// The clamp guards against floating-point overshoot like 100.00000001.
func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return math.Round(p*100) / 100
}

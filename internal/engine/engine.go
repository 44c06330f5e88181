// Package engine derives actionable budget figures from a BudgetState
// snapshot. Every function is pure: the evaluation date is passed in
// explicitly, nothing is mutated and no I/O happens, so the projection can be
// recomputed on every poll, including mid-import.
package engine

import (
	"math"
	"time"

	"budgeteer/internal/core"
)

type MonthStatus string

const (
	StatusOnTrack  MonthStatus = "on_track"
	StatusTight    MonthStatus = "tight"
	StatusCritical MonthStatus = "critical"
)

// BucketInsight is a bucket plus its burn-rate projection for the month.
type BucketInsight struct {
	core.Bucket
	BurnRate  float64
	Projected float64
	Overshoot float64
}

// Projection is the derived, read-only view the dashboard consumes.
type Projection struct {
	TotalRemaining   float64
	SafeToSpendToday float64
	DaysInMonth      int
	DaysElapsed      int
	RemainingDays    int
	MonthStatus      MonthStatus
	Buckets          []BucketInsight
	Overshooting     int
}

// DaysInMonth returns the number of calendar days in the date's month.
func DaysInMonth(date time.Time) int {
	y, m, _ := date.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, date.Location()).Day()
}

// DaysElapsed returns the 1-indexed day of the month.
func DaysElapsed(date time.Time) int {
	return date.Day()
}

// SafeToSpend is the per-day discretionary allowance for the rest of the
// month. Integer floor, not rounding: rounding up would compound into
// overspend across the remaining days.
func SafeToSpend(totalRemaining float64, remainingDays int) float64 {
	if remainingDays <= 0 {
		return 0
	}
	return math.Floor(totalRemaining / float64(remainingDays))
}

// ProjectBucket extrapolates a bucket's spend to month end from its observed
// burn rate. Overshoot is zero unless the projection exceeds the limit.
func ProjectBucket(b core.Bucket, elapsedDays, totalDays int) BucketInsight {
	var burnRate float64
	if elapsedDays > 0 {
		burnRate = b.Spent / float64(elapsedDays)
	}
	projected := burnRate * float64(totalDays)
	var overshoot float64
	if projected > b.Limit {
		overshoot = math.Round(projected - b.Limit)
	}
	return BucketInsight{Bucket: b, BurnRate: burnRate, Projected: projected, Overshoot: overshoot}
}

// Evaluate computes the full projection for the given state at the given date.
func Evaluate(state core.BudgetState, date time.Time) Projection {
	totalDays := DaysInMonth(date)
	elapsed := DaysElapsed(date)
	remaining := totalDays - elapsed

	var recurring float64
	for _, e := range state.RecurringExpenses {
		recurring += e.Amount
	}
	var spent float64
	for _, b := range state.Buckets {
		spent += b.Spent
	}
	totalRemaining := state.Income - recurring - spent

	p := Projection{
		TotalRemaining:   totalRemaining,
		SafeToSpendToday: SafeToSpend(totalRemaining, remaining),
		DaysInMonth:      totalDays,
		DaysElapsed:      elapsed,
		RemainingDays:    remaining,
		Buckets:          make([]BucketInsight, 0, len(state.Buckets)),
	}
	for _, b := range state.Buckets {
		insight := ProjectBucket(b, elapsed, totalDays)
		if insight.Overshoot > 0 {
			p.Overshooting++
		}
		p.Buckets = append(p.Buckets, insight)
	}

	switch {
	case p.Overshooting == 0:
		p.MonthStatus = StatusOnTrack
	case p.Overshooting == 1:
		p.MonthStatus = StatusTight
	default:
		p.MonthStatus = StatusCritical
	}
	return p
}

package engine

import (
	"testing"
	"time"

	"budgeteer/internal/core"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "january", date: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), want: 31},
		{name: "april", date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), want: 30},
		{name: "february", date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), want: 28},
		{name: "leap february", date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), want: 29},
		{name: "december 31st", date: time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC), want: 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInMonth(tt.date); got != tt.want {
				t.Errorf("DaysInMonth(%v) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestSafeToSpend(t *testing.T) {
	tests := []struct {
		name           string
		totalRemaining float64
		remainingDays  int
		want           float64
	}{
		{name: "even split", totalRemaining: 50000, remainingDays: 10, want: 5000},
		{name: "floors instead of rounding", totalRemaining: 1000, remainingDays: 3, want: 333},
		{name: "last day of month", totalRemaining: 9999, remainingDays: 0, want: 0},
		{name: "negative remaining stays floored", totalRemaining: -100, remainingDays: 4, want: -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeToSpend(tt.totalRemaining, tt.remainingDays); got != tt.want {
				t.Errorf("SafeToSpend(%v, %d) = %v, want %v", tt.totalRemaining, tt.remainingDays, got, tt.want)
			}
		})
	}
}

func TestSafeToSpendMonotonicInSpend(t *testing.T) {
	// Holding income, recurring and days fixed, more bucket spend must never
	// increase the daily allowance.
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	prev := Evaluate(stateWithSpent(0), date).SafeToSpendToday
	for spent := float64(1000); spent <= 50000; spent += 1000 {
		cur := Evaluate(stateWithSpent(spent), date).SafeToSpendToday
		if cur > prev {
			t.Fatalf("SafeToSpendToday increased from %v to %v at spent=%v", prev, cur, spent)
		}
		prev = cur
	}
}

func stateWithSpent(spent float64) core.BudgetState {
	return core.BudgetState{
		Income:            100000,
		RecurringExpenses: []core.FixedExpense{{Name: "Rent", Amount: 20000}},
		Buckets:           []core.Bucket{{Name: "Groceries", Limit: 30000, Spent: spent}},
	}
}

func TestProjectBucket(t *testing.T) {
	tests := []struct {
		name          string
		bucket        core.Bucket
		elapsed       int
		total         int
		wantBurnRate  float64
		wantProjected float64
		wantOvershoot float64
	}{
		{
			name:          "steady overshoot",
			bucket:        core.Bucket{Name: "Dining", Limit: 3000, Spent: 2000},
			elapsed:       10,
			total:         30,
			wantBurnRate:  200,
			wantProjected: 6000,
			wantOvershoot: 3000,
		},
		{
			name:          "under limit",
			bucket:        core.Bucket{Name: "Groceries", Limit: 9000, Spent: 2000},
			elapsed:       10,
			total:         30,
			wantBurnRate:  200,
			wantProjected: 6000,
			wantOvershoot: 0,
		},
		{
			name:          "zero elapsed days",
			bucket:        core.Bucket{Name: "Travel", Limit: 1000, Spent: 500},
			elapsed:       0,
			total:         30,
			wantBurnRate:  0,
			wantProjected: 0,
			wantOvershoot: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectBucket(tt.bucket, tt.elapsed, tt.total)
			if got.BurnRate != tt.wantBurnRate {
				t.Errorf("BurnRate = %v, want %v", got.BurnRate, tt.wantBurnRate)
			}
			if got.Projected != tt.wantProjected {
				t.Errorf("Projected = %v, want %v", got.Projected, tt.wantProjected)
			}
			if got.Overshoot != tt.wantOvershoot {
				t.Errorf("Overshoot = %v, want %v", got.Overshoot, tt.wantOvershoot)
			}
		})
	}
}

func TestEvaluateTotals(t *testing.T) {
	// income=100000, recurring=20000, spent=30000 -> totalRemaining=50000;
	// 10 remaining days -> 5000/day. June 20th leaves exactly 10 days.
	state := core.BudgetState{
		Income: 100000,
		RecurringExpenses: []core.FixedExpense{
			{Name: "Rent", Amount: 15000},
			{Name: "Internet", Amount: 5000},
		},
		Buckets: []core.Bucket{
			{Name: "Groceries", Limit: 40000, Spent: 20000},
			{Name: "Dining", Limit: 20000, Spent: 10000},
		},
	}
	date := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	p := Evaluate(state, date)
	if p.TotalRemaining != 50000 {
		t.Errorf("TotalRemaining = %v, want 50000", p.TotalRemaining)
	}
	if p.RemainingDays != 10 {
		t.Errorf("RemainingDays = %d, want 10", p.RemainingDays)
	}
	if p.SafeToSpendToday != 5000 {
		t.Errorf("SafeToSpendToday = %v, want 5000", p.SafeToSpendToday)
	}
}

func TestEvaluateMonthStatus(t *testing.T) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC) // 10 of 30 days elapsed

	over := core.Bucket{Name: "Over", Limit: 1000, Spent: 2000}   // projects 6000
	under := core.Bucket{Name: "Under", Limit: 9000, Spent: 1000} // projects 3000

	tests := []struct {
		name    string
		buckets []core.Bucket
		want    MonthStatus
	}{
		{name: "none overshooting", buckets: []core.Bucket{under, under}, want: StatusOnTrack},
		{name: "exactly one overshooting", buckets: []core.Bucket{over, under}, want: StatusTight},
		{name: "two overshooting", buckets: []core.Bucket{over, over}, want: StatusCritical},
		{name: "no buckets at all", buckets: nil, want: StatusOnTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Evaluate(core.BudgetState{Income: 100000, Buckets: tt.buckets}, date)
			if p.MonthStatus != tt.want {
				t.Errorf("MonthStatus = %q, want %q", p.MonthStatus, tt.want)
			}
		})
	}
}

func TestEvaluateDoesNotMutateState(t *testing.T) {
	state := core.BudgetState{
		Income:  50000,
		Buckets: []core.Bucket{{Name: "Groceries", Limit: 10000, Spent: 4000}},
	}
	_ = Evaluate(state, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))

	if state.Buckets[0].Spent != 4000 || state.Buckets[0].Limit != 10000 {
		t.Error("Evaluate mutated its input state")
	}
}

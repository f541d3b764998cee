package core

import (
	"testing"
	"time"
)

func TestTrendOf(t *testing.T) {
	tests := []struct {
		name   string
		oldest int64
		newest int64
		want   Trend
	}{
		{name: "clear increase", oldest: 10000, newest: 15000, want: TrendUp},
		{name: "clear decrease", oldest: 15000, newest: 10000, want: TrendDown},
		{name: "within band", oldest: 10000, newest: 10300, want: TrendStable},
		{name: "equal", oldest: 10000, newest: 10000, want: TrendStable},
		{name: "from zero", oldest: 0, newest: 500, want: TrendUp},
		{name: "both zero", oldest: 0, newest: 0, want: TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendOf(Money{Cents: tt.oldest}, Money{Cents: tt.newest})
			if got != tt.want {
				t.Errorf("TrendOf(%d, %d) = %s, want %s", tt.oldest, tt.newest, got, tt.want)
			}
		})
	}
}

func TestComputeGoalsOverview(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	goals := []SavingsGoal{
		{
			Name:     "Vacation",
			Target:   Money{Cents: 120000},
			Current:  Money{Cents: 60000},
			Deadline: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), // 6 months out
		},
		{
			Name:    "Done already",
			Target:  Money{Cents: 50000},
			Current: Money{Cents: 50000},
		},
	}

	ov := ComputeGoalsOverview(goals, Money{Cents: 4000}, now)

	if ov.TotalSavings.Cents != 110000 {
		t.Errorf("TotalSavings = %d, want 110000", ov.TotalSavings.Cents)
	}
	// Remaining 60000 over 6 months = 10000/month; completed goal adds nothing.
	if ov.MonthlyTarget.Cents != 10000 {
		t.Errorf("MonthlyTarget = %d, want 10000", ov.MonthlyTarget.Cents)
	}
	if ov.MonthlyInvested.Cents != 4000 {
		t.Errorf("MonthlyInvested = %d, want 4000", ov.MonthlyInvested.Cents)
	}
	if ov.RemainingToInvest.Cents != 6000 {
		t.Errorf("RemainingToInvest = %d, want 6000", ov.RemainingToInvest.Cents)
	}
}

func TestComputeGoalsOverviewInvestedExceedsTarget(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	goals := []SavingsGoal{{
		Name:     "Small goal",
		Target:   Money{Cents: 10000},
		Current:  Money{Cents: 4000},
		Deadline: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}}

	ov := ComputeGoalsOverview(goals, Money{Cents: 99999}, now)
	if ov.RemainingToInvest.Cents != 0 {
		t.Errorf("RemainingToInvest = %d, want 0 when invested exceeds target", ov.RemainingToInvest.Cents)
	}
}

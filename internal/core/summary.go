package core

import "time"

type (
	// FinancialOverview is the top-line dashboard summary.
	FinancialOverview struct {
		TotalIncome   Money
		TotalExpenses Money
		TotalSavings  Money
	}

	// GoalsOverview summarizes savings goals for the goals page header.
	GoalsOverview struct {
		TotalSavings      Money
		MonthlyInvested   Money
		RemainingToInvest Money
		MonthlyTarget     Money
	}

	// Trend marks the direction of a category across a comparison window.
	Trend string

	// CategoryTrend compares one category across the last three calendar
	// months. Month1 is the oldest, Month3 the most recent.
	CategoryTrend struct {
		Category Category
		Month1   Money
		Month2   Money
		Month3   Money
		Trend    Trend
	}
)

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// trendBand is the relative change below which a category counts as stable.
const trendBand = 0.05

// TrendOf compares the newest month against the oldest.
func TrendOf(oldest, newest Money) Trend {
	if oldest.Cents == 0 {
		if newest.Cents == 0 {
			return TrendStable
		}
		return TrendUp
	}
	delta := float64(newest.Cents-oldest.Cents) / float64(oldest.Cents)
	switch {
	case delta > trendBand:
		return TrendUp
	case delta < -trendBand:
		return TrendDown
	default:
		return TrendStable
	}
}

// ComputeGoalsOverview derives the goals header figures. monthlyInvested is
// the sum of contributions recorded in the current calendar month; the
// monthly target spreads each goal's remaining amount over the months left
// until its deadline.
func ComputeGoalsOverview(goals []SavingsGoal, monthlyInvested Money, now time.Time) GoalsOverview {
	ov := GoalsOverview{MonthlyInvested: monthlyInvested}
	for _, g := range goals {
		ov.TotalSavings.Cents += g.Current.Cents
		remaining := g.Target.Cents - g.Current.Cents
		if remaining <= 0 {
			continue
		}
		ov.MonthlyTarget.Cents += remaining / int64(g.MonthsUntil(now))
	}
	if rem := ov.MonthlyTarget.Cents - monthlyInvested.Cents; rem > 0 {
		ov.RemainingToInvest.Cents = rem
	}
	return ov
}

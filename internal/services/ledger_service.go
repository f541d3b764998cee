package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	totalsCacheSize = 1000
	totalsCacheTTL  = 5 * time.Minute
)

// ExpensePublisher is the queue side of expense recording. Satisfied by
// *amqp.Client; nil means exports are disabled.
type ExpensePublisher interface {
	PublishExpenseRecorded(ctx context.Context, id int64) error
}

// LedgerService records incomes and expenses and serves the dashboard
// aggregations. Per-user category totals are cached and invalidated on
// every expense write.
type LedgerService struct {
	storage   *storage.Repository
	publisher ExpensePublisher
	totals    *cache.TTLCache[[]core.CategoryTotal]
}

func NewLedgerService(storage *storage.Repository, publisher ExpensePublisher) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		totals:    cache.New[[]core.CategoryTotal](totalsCacheSize, totalsCacheTTL),
	}
}

// StartCacheJanitor evicts expired totals entries in the background until
// ctx ends.
func (s *LedgerService) StartCacheJanitor(ctx context.Context) {
	s.totals.StartJanitor(ctx, time.Minute)
}

// RecordIncome saves the income for one calendar month, replacing any
// earlier value for the same month. The overwritten flag reports whether a
// previous record existed.
func (s *LedgerService) RecordIncome(ctx context.Context, userID int64, amount core.Money, year, month int) (core.IncomeRecord, bool, error) {
	if err := amount.Validate(); err != nil {
		return core.IncomeRecord{}, false, err
	}
	if err := core.ValidatePeriod(year, month); err != nil {
		return core.IncomeRecord{}, false, err
	}
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return core.IncomeRecord{}, false, err
	}

	return s.storage.UpsertIncome(ctx, userID, amount, year, month)
}

func (s *LedgerService) LatestIncome(ctx context.Context, userID int64) (core.IncomeRecord, error) {
	return s.storage.LatestIncome(ctx, userID)
}

// RecordExpense validates and saves an expense, then notifies the export
// worker. A queue failure never fails the request; the worker's periodic
// pending scan picks the row up later.
func (s *LedgerService) RecordExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := s.storage.GetUser(ctx, e.UserID); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.totals.Delete(totalsKey(e.UserID))

	if s.publisher == nil {
		slog.WarnContext(ctx, "Export queue not available, skipping message", "id", saved.ID)
		return saved, nil
	}
	if err := s.publisher.PublishExpenseRecorded(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

// CategoryTotals returns the all-time per-category expense sums for a user.
func (s *LedgerService) CategoryTotals(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	key := totalsKey(userID)
	if totals, ok := s.totals.Get(key); ok {
		return totals, nil
	}

	totals, err := s.storage.ExpenseTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.totals.Set(key, totals)
	return totals, nil
}

// MonthlyTrend compares each spending category across the three most
// recent calendar months, ending with the month of now. Categories with no
// spending in the window are omitted.
func (s *LedgerService) MonthlyTrend(ctx context.Context, userID int64, now time.Time) ([]core.CategoryTrend, error) {
	months := trendMonths(now)

	var byMonth [3]map[core.Category]core.Money
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range months {
		g.Go(func() error {
			totals, err := s.storage.MonthCategoryTotals(gctx, userID, m.Year(), int(m.Month()))
			if err != nil {
				return err
			}
			byMonth[i] = totals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}

	var trends []core.CategoryTrend
	for _, cat := range core.Categories() {
		ct := core.CategoryTrend{
			Category: cat,
			Month1:   byMonth[0][cat],
			Month2:   byMonth[1][cat],
			Month3:   byMonth[2][cat],
		}
		if ct.Month1.Cents == 0 && ct.Month2.Cents == 0 && ct.Month3.Cents == 0 {
			continue
		}
		ct.Trend = core.TrendOf(ct.Month1, ct.Month3)
		trends = append(trends, ct)
	}
	return trends, nil
}

// trendMonths returns the first days of the three calendar months ending
// with the month of now, oldest first. Stepping back from the first of the
// month keeps short months from being skipped when now is day 29-31.
func trendMonths(now time.Time) [3]time.Time {
	base := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return [3]time.Time{
		base.AddDate(0, -2, 0),
		base.AddDate(0, -1, 0),
		base,
	}
}

// Overview gathers the dashboard top line. Savings is whatever income was
// not spent; the two sums run concurrently.
func (s *LedgerService) Overview(ctx context.Context, userID int64) (core.FinancialOverview, error) {
	var ov core.FinancialOverview

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		income, err := s.storage.SumIncome(gctx, userID)
		if err != nil {
			return err
		}
		ov.TotalIncome = income
		return nil
	})
	g.Go(func() error {
		expenses, err := s.storage.SumExpenses(gctx, userID)
		if err != nil {
			return err
		}
		ov.TotalExpenses = expenses
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.FinancialOverview{}, fmt.Errorf("financial overview: %w", err)
	}

	ov.TotalSavings = core.Money{Cents: ov.TotalIncome.Cents - ov.TotalExpenses.Cents}
	return ov, nil
}

func totalsKey(userID int64) string {
	return fmt.Sprintf("totals:%d", userID)
}

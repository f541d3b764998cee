package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateUser(t *testing.T, repo *Repository, username string) int64 {
	t.Helper()
	id, err := repo.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%q) error = %v", username, err)
	}
	return id
}

func TestCreateUserDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mustCreateUser(t, repo, "marco")

	_, err := repo.CreateUser(ctx, "marco", "otherhash")
	if !errors.Is(err, core.ErrUsernameTaken) {
		t.Errorf("CreateUser() error = %v, want ErrUsernameTaken", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreateUser(t, repo, "marco")

	u, err := repo.GetUserByUsername(ctx, "marco")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if u.ID != id {
		t.Errorf("ID = %d, want %d", u.ID, id)
	}
	if u.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", u.PasswordHash, "hash")
	}

	_, err = repo.GetUserByUsername(ctx, "nobody")
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("GetUserByUsername(missing) error = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := mustCreateUser(t, repo, "marco")

	if err := repo.DeleteUser(ctx, id); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if err := repo.DeleteUser(ctx, id); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("DeleteUser(again) error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetUser(ctx, id); !errors.Is(err, core.ErrUserNotFound) {
		t.Errorf("GetUser(deleted) error = %v, want ErrUserNotFound", err)
	}
}

func TestUpsertIncomeSameMonth(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	first, overwritten, err := repo.UpsertIncome(ctx, userID, core.Money{Cents: 50000}, 2026, 3)
	if err != nil {
		t.Fatalf("UpsertIncome() error = %v", err)
	}
	if overwritten {
		t.Error("first UpsertIncome() overwritten = true, want false")
	}
	if first.Revision != 1 {
		t.Errorf("Revision = %d, want 1", first.Revision)
	}

	second, overwritten, err := repo.UpsertIncome(ctx, userID, core.Money{Cents: 70000}, 2026, 3)
	if err != nil {
		t.Fatalf("UpsertIncome(again) error = %v", err)
	}
	if !overwritten {
		t.Error("second UpsertIncome() overwritten = false, want true")
	}
	if second.ID != first.ID {
		t.Errorf("second upsert created row %d, want same row %d", second.ID, first.ID)
	}
	if second.Amount.Cents != 70000 {
		t.Errorf("Amount.Cents = %d, want 70000", second.Amount.Cents)
	}

	latest, err := repo.LatestIncome(ctx, userID)
	if err != nil {
		t.Fatalf("LatestIncome() error = %v", err)
	}
	if latest.Amount.Cents != 70000 {
		t.Errorf("latest Amount.Cents = %d, want 70000", latest.Amount.Cents)
	}

	total, err := repo.SumIncome(ctx, userID)
	if err != nil {
		t.Fatalf("SumIncome() error = %v", err)
	}
	if total.Cents != 70000 {
		t.Errorf("SumIncome() = %d, want 70000 (one row per month)", total.Cents)
	}
}

func TestUpsertIncomeSeparateMonths(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	if _, _, err := repo.UpsertIncome(ctx, userID, core.Money{Cents: 50000}, 2026, 3); err != nil {
		t.Fatalf("UpsertIncome(march) error = %v", err)
	}
	if _, _, err := repo.UpsertIncome(ctx, userID, core.Money{Cents: 60000}, 2026, 4); err != nil {
		t.Fatalf("UpsertIncome(april) error = %v", err)
	}

	latest, err := repo.LatestIncome(ctx, userID)
	if err != nil {
		t.Fatalf("LatestIncome() error = %v", err)
	}
	if latest.Month != 4 || latest.Amount.Cents != 60000 {
		t.Errorf("latest = month %d / %d cents, want month 4 / 60000", latest.Month, latest.Amount.Cents)
	}

	total, err := repo.SumIncome(ctx, userID)
	if err != nil {
		t.Fatalf("SumIncome() error = %v", err)
	}
	if total.Cents != 110000 {
		t.Errorf("SumIncome() = %d, want 110000", total.Cents)
	}
}

func TestLatestIncomeEmpty(t *testing.T) {
	repo := newTestRepo(t)
	userID := mustCreateUser(t, repo, "marco")

	_, err := repo.LatestIncome(context.Background(), userID)
	if !errors.Is(err, core.ErrIncomeNotFound) {
		t.Errorf("LatestIncome() error = %v, want ErrIncomeNotFound", err)
	}
}

func TestExpenseTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")
	otherID := mustCreateUser(t, repo, "giulia")

	add := func(uid int64, cat core.Category, cents int64) {
		t.Helper()
		_, err := repo.CreateExpense(ctx, core.Expense{
			UserID:   uid,
			Amount:   core.Money{Cents: cents},
			Category: cat,
		})
		if err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	add(userID, core.CategoryFoodGrocery, 1500)
	add(userID, core.CategoryFoodGrocery, 2500)
	add(userID, core.CategoryTravel, 10000)
	add(otherID, core.CategoryHealthcare, 99999)

	totals, err := repo.ExpenseTotals(ctx, userID)
	if err != nil {
		t.Fatalf("ExpenseTotals() error = %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("ExpenseTotals() returned %d categories, want 2", len(totals))
	}

	byCat := make(map[core.Category]int64)
	for _, tot := range totals {
		byCat[tot.Category] = tot.Total.Cents
	}
	if byCat[core.CategoryFoodGrocery] != 4000 {
		t.Errorf("food total = %d, want 4000", byCat[core.CategoryFoodGrocery])
	}
	if byCat[core.CategoryTravel] != 10000 {
		t.Errorf("travel total = %d, want 10000", byCat[core.CategoryTravel])
	}
	if _, ok := byCat[core.CategoryHealthcare]; ok {
		t.Error("ExpenseTotals() leaked another user's category")
	}
}

func TestMonthCategoryTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	if _, err := repo.CreateExpense(ctx, core.Expense{
		UserID:   userID,
		Amount:   core.Money{Cents: 3200},
		Category: core.CategoryEntertainment,
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	now := time.Now().UTC()
	totals, err := repo.MonthCategoryTotals(ctx, userID, now.Year(), int(now.Month()))
	if err != nil {
		t.Fatalf("MonthCategoryTotals() error = %v", err)
	}
	if totals[core.CategoryEntertainment].Cents != 3200 {
		t.Errorf("entertainment total = %d, want 3200", totals[core.CategoryEntertainment].Cents)
	}

	empty, err := repo.MonthCategoryTotals(ctx, userID, 2000, 1)
	if err != nil {
		t.Fatalf("MonthCategoryTotals(past) error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("MonthCategoryTotals(past) returned %d categories, want 0", len(empty))
	}
}

func TestAddFunds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	goal, err := repo.CreateGoal(ctx, core.SavingsGoal{
		UserID:   userID,
		Name:     "Vacation",
		Category: "TRAVEL",
		Target:   core.Money{Cents: 100000},
		Deadline: time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if goal.Current.Cents != 0 {
		t.Errorf("new goal Current.Cents = %d, want 0", goal.Current.Cents)
	}

	for _, cents := range []int64{10000, 5000} {
		goal, err = repo.AddFunds(ctx, userID, goal.ID, core.Money{Cents: cents})
		if err != nil {
			t.Fatalf("AddFunds(%d) error = %v", cents, err)
		}
	}
	if goal.Current.Cents != 15000 {
		t.Errorf("Current.Cents = %d, want 15000", goal.Current.Cents)
	}
	if !goal.Deadline.Equal(time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Deadline = %v, want 2027-06-01", goal.Deadline)
	}

	now := time.Now().UTC()
	invested, err := repo.MonthContributions(ctx, userID, now.Year(), int(now.Month()))
	if err != nil {
		t.Fatalf("MonthContributions() error = %v", err)
	}
	if invested.Cents != 15000 {
		t.Errorf("MonthContributions() = %d, want 15000", invested.Cents)
	}
}

func TestAddFundsWrongUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	ownerID := mustCreateUser(t, repo, "marco")
	otherID := mustCreateUser(t, repo, "giulia")

	goal, err := repo.CreateGoal(ctx, core.SavingsGoal{
		UserID: ownerID,
		Name:   "Car",
		Target: core.Money{Cents: 500000},
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}

	_, err = repo.AddFunds(ctx, otherID, goal.ID, core.Money{Cents: 1000})
	if !errors.Is(err, core.ErrGoalNotFound) {
		t.Errorf("AddFunds(other user) error = %v, want ErrGoalNotFound", err)
	}

	got, err := repo.GetGoal(ctx, ownerID, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if got.Current.Cents != 0 {
		t.Errorf("Current.Cents = %d after rejected funding, want 0", got.Current.Cents)
	}
}

func TestListGoalsOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	for _, name := range []string{"Emergency fund", "Vacation", "New laptop"} {
		if _, err := repo.CreateGoal(ctx, core.SavingsGoal{
			UserID: userID,
			Name:   name,
			Target: core.Money{Cents: 100000},
		}); err != nil {
			t.Fatalf("CreateGoal(%q) error = %v", name, err)
		}
	}

	goals, err := repo.ListGoals(ctx, userID)
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(goals) != 3 {
		t.Fatalf("ListGoals() returned %d goals, want 3", len(goals))
	}
	want := []string{"Emergency fund", "Vacation", "New laptop"}
	for i, g := range goals {
		if g.Name != want[i] {
			t.Errorf("goals[%d].Name = %q, want %q", i, g.Name, want[i])
		}
	}
}

func TestExportQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	e, err := repo.CreateExpense(ctx, core.Expense{
		UserID:   userID,
		Amount:   core.Money{Cents: 4200},
		Category: core.CategoryOthers,
		Note:     "misc",
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	ids, err := repo.PendingExportIDs(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExportIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != e.ID {
		t.Fatalf("PendingExportIDs() = %v, want [%d]", ids, e.ID)
	}

	row, err := repo.GetExportRow(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetExportRow() error = %v", err)
	}
	if row.Username != "marco" || row.Amount.Cents != 4200 || row.Note != "misc" {
		t.Errorf("GetExportRow() = %+v, want marco/4200/misc", row)
	}

	if err := repo.MarkExported(ctx, e.ID); err != nil {
		t.Fatalf("MarkExported() error = %v", err)
	}
	ids, err = repo.PendingExportIDs(ctx, 10)
	if err != nil {
		t.Fatalf("PendingExportIDs(after) error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("PendingExportIDs(after) = %v, want empty", ids)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	userID := mustCreateUser(t, repo, "marco")

	if _, _, err := repo.UpsertIncome(ctx, userID, core.Money{Cents: 50000}, 2026, 3); err != nil {
		t.Fatalf("UpsertIncome() error = %v", err)
	}
	if _, err := repo.CreateExpense(ctx, core.Expense{
		UserID:   userID,
		Amount:   core.Money{Cents: 100},
		Category: core.CategoryOthers,
	}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}

	if err := repo.DeleteUser(ctx, userID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	totals, err := repo.ExpenseTotals(ctx, userID)
	if err != nil {
		t.Fatalf("ExpenseTotals() error = %v", err)
	}
	if len(totals) != 0 {
		t.Errorf("expenses survived user deletion: %v", totals)
	}
	income, err := repo.SumIncome(ctx, userID)
	if err != nil {
		t.Fatalf("SumIncome() error = %v", err)
	}
	if income.Cents != 0 {
		t.Errorf("income survived user deletion: %d cents", income.Cents)
	}
}

// Package storage implements the SQLite-backed repository behind every
// FinTrack operation. All writes that the original application did as
// read-then-decide sequences are single statements here, so the month
// uniqueness of incomes and the goal-funding increments hold under
// concurrent requests.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fintrack/internal/core"
)

// Export status values for the expenses.sync_status column.
const (
	SyncPending int64 = 0
	SyncDone    int64 = 1
	SyncError   int64 = 2
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, core.ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return id, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var (
		u       core.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrUserNotFound
	}

	slog.InfoContext(ctx, "User deleted", "id", id)
	return nil
}

// --- incomes ---

// UpsertIncome replaces the income for (user, year, month) in a single
// atomic statement; the unique index on the period key makes concurrent
// writers converge on one row. Returns the row and whether an existing
// record was overwritten.
func (r *Repository) UpsertIncome(ctx context.Context, userID int64, amount core.Money, year, month int) (core.IncomeRecord, bool, error) {
	rec := core.IncomeRecord{UserID: userID, Year: year, Month: month}
	var created, updated string

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO incomes (user_id, amount_cents, year, month)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, year, month) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			revision = revision + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, amount_cents, revision, created_at, updated_at`,
		userID, amount.Cents, year, month).
		Scan(&rec.ID, &rec.Amount.Cents, &rec.Revision, &created, &updated)
	if err != nil {
		return core.IncomeRecord{}, false, fmt.Errorf("upsert income: %w", err)
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)

	overwritten := rec.Revision > 1
	slog.InfoContext(ctx, "Income saved",
		"id", rec.ID,
		"user_id", userID,
		"year", year,
		"month", month,
		"amount_cents", rec.Amount.Cents,
		"overwritten", overwritten)
	return rec, overwritten, nil
}

// LatestIncome returns the most recent income row for a user.
func (r *Repository) LatestIncome(ctx context.Context, userID int64) (core.IncomeRecord, error) {
	var (
		rec              core.IncomeRecord
		created, updated string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, year, month, revision, created_at, updated_at
		FROM incomes
		WHERE user_id = ?
		ORDER BY year DESC, month DESC
		LIMIT 1`, userID).
		Scan(&rec.ID, &rec.UserID, &rec.Amount.Cents, &rec.Year, &rec.Month,
			&rec.Revision, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeRecord{}, core.ErrIncomeNotFound
	}
	if err != nil {
		return core.IncomeRecord{}, fmt.Errorf("latest income: %w", err)
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)
	return rec, nil
}

func (r *Repository) SumIncome(ctx context.Context, userID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM incomes WHERE user_id = ?`,
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum income: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// --- expenses ---

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var created string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO expenses (user_id, amount_cents, category, note)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at`,
		e.UserID, e.Amount.Cents, e.Category.String(), e.Note).
		Scan(&e.ID, &created)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents)
	return e, nil
}

// ExpenseTotals aggregates a user's expenses per category. Categories with
// no rows are simply absent from the result.
func (r *Repository) ExpenseTotals(ctx context.Context, userID int64) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM expenses
		WHERE user_id = ?
		GROUP BY category
		ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("expense totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var (
			cat   string
			cents int64
		)
		if err := rows.Scan(&cat, &cents); err != nil {
			return nil, fmt.Errorf("scan expense total: %w", err)
		}
		totals = append(totals, core.CategoryTotal{
			Category: core.Category(cat),
			Total:    core.Money{Cents: cents},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense totals: %w", err)
	}
	return totals, nil
}

// MonthCategoryTotals aggregates one calendar month of a user's expenses.
func (r *Repository) MonthCategoryTotals(ctx context.Context, userID int64, year, month int) (map[core.Category]core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM expenses
		WHERE user_id = ?
		  AND strftime('%Y', created_at) = ?
		  AND strftime('%m', created_at) = ?
		GROUP BY category`,
		userID, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("month category totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[core.Category]core.Money)
	for rows.Next() {
		var (
			cat   string
			cents int64
		)
		if err := rows.Scan(&cat, &cents); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		totals[core.Category(cat)] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate month totals: %w", err)
	}
	return totals, nil
}

func (r *Repository) SumExpenses(ctx context.Context, userID int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ?`,
		userID).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// --- savings goals ---

func (r *Repository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.Format("2006-01-02")
	}

	var created string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO savings_goals (user_id, name, category, target_cents, current_cents, deadline)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at`,
		g.UserID, g.Name, g.Category, g.Target.Cents, g.Current.Cents, deadline).
		Scan(&g.ID, &created)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	g.CreatedAt = parseTimestamp(created)

	slog.InfoContext(ctx, "Savings goal created",
		"id", g.ID,
		"user_id", g.UserID,
		"name", g.Name,
		"target_cents", g.Target.Cents)
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, category, target_cents, current_cents, deadline, created_at
		FROM savings_goals
		WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, goalID int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category, target_cents, current_cents, deadline, created_at
		FROM savings_goals
		WHERE id = ? AND user_id = ?`, goalID, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// AddFunds increments a goal's accumulated amount in the store and records
// the contribution, both inside one transaction. The increment happens in
// SQL, so concurrent contributions never lose updates.
func (r *Repository) AddFunds(ctx context.Context, userID, goalID int64, amount core.Money) (core.SavingsGoal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("begin add funds: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE savings_goals
		SET current_cents = current_cents + ?
		WHERE id = ? AND user_id = ?`,
		amount.Cents, goalID, userID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("add funds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.SavingsGoal{}, core.ErrGoalNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO goal_contributions (goal_id, amount_cents) VALUES (?, ?)`,
		goalID, amount.Cents); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("record contribution: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, name, category, target_cents, current_cents, deadline, created_at
		FROM savings_goals
		WHERE id = ?`, goalID)
	g, err := scanGoal(row)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	if err := tx.Commit(); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("commit add funds: %w", err)
	}

	slog.InfoContext(ctx, "Goal funded",
		"goal_id", goalID,
		"user_id", userID,
		"amount_cents", amount.Cents,
		"current_cents", g.Current.Cents)
	return g, nil
}

// MonthContributions sums the add-funds amounts a user made to any of their
// goals during one calendar month.
func (r *Repository) MonthContributions(ctx context.Context, userID int64, year, month int) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(c.amount_cents), 0)
		FROM goal_contributions c
		JOIN savings_goals g ON g.id = c.goal_id
		WHERE g.user_id = ?
		  AND strftime('%Y', c.created_at) = ?
		  AND strftime('%m', c.created_at) = ?`,
		userID, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month)).
		Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("month contributions: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// --- export queue ---

// ExportRow is an expense joined with its owner, shaped for the sheet.
type ExportRow struct {
	ID        int64
	Username  string
	Category  core.Category
	Amount    core.Money
	Note      string
	CreatedAt time.Time
}

func (r *Repository) GetExportRow(ctx context.Context, id int64) (ExportRow, error) {
	var (
		row     ExportRow
		cat     string
		created string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT e.id, u.username, e.category, e.amount_cents, e.note, e.created_at
		FROM expenses e
		JOIN users u ON u.id = e.user_id
		WHERE e.id = ?`, id).
		Scan(&row.ID, &row.Username, &cat, &row.Amount.Cents, &row.Note, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return ExportRow{}, fmt.Errorf("export row %d: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return ExportRow{}, fmt.Errorf("get export row: %w", err)
	}
	row.Category = core.Category(cat)
	row.CreatedAt = parseTimestamp(created)
	return row, nil
}

// PendingExportIDs lists expenses still waiting for export, oldest first.
// Backup path for messages the queue lost.
func (r *Repository) PendingExportIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM expenses
		WHERE sync_status = ?
		ORDER BY id
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending ids: %w", err)
	}
	return ids, nil
}

func (r *Repository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

func (r *Repository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (core.SavingsGoal, error) {
	var (
		g        core.SavingsGoal
		deadline string
		created  string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.Category,
		&g.Target.Cents, &g.Current.Cents, &deadline, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.SavingsGoal{}, err
		}
		return core.SavingsGoal{}, fmt.Errorf("scan goal: %w", err)
	}
	if deadline != "" {
		if d, perr := time.Parse("2006-01-02", deadline); perr == nil {
			g.Deadline = d
		}
	}
	g.CreatedAt = parseTimestamp(created)
	return g, nil
}

// parseTimestamp reads SQLite's CURRENT_TIMESTAMP text form. Values are UTC.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// User is an account row. PasswordHash never leaves the storage layer.
	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// IncomeRecord holds the income for one (user, year, month) period.
	// The store enforces at most one row per period; Revision is 1 on
	// insert and grows by one on every in-place overwrite.
	IncomeRecord struct {
		ID        int64
		UserID    int64
		Amount    Money
		Year      int
		Month     int
		Revision  int64
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Expense struct {
		ID        int64
		UserID    int64
		Amount    Money
		Category  Category
		Note      string
		CreatedAt time.Time
	}

	SavingsGoal struct {
		ID        int64
		UserID    int64
		Name      string
		Category  string
		Target    Money
		Current   Money
		Deadline  time.Time
		CreatedAt time.Time
	}

	// CategoryTotal is one row of an expense aggregation.
	CategoryTotal struct {
		Category Category
		Total    Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyUsername      = errors.New("empty username")
	ErrEmptyPassword      = errors.New("empty password")
	ErrEmptyGoalName      = errors.New("empty goal name")
	ErrUsernameTooLong    = errors.New("username too long")
	ErrNoteTooLong        = errors.New("note too long (max 200 characters)")
	ErrGoalNameTooLong    = errors.New("goal name too long (max 100 characters)")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrGoalNotFound       = errors.New("goal not found")
	ErrIncomeNotFound     = errors.New("no income recorded")
)

const maxUsernameLen = 72 // bcrypt input cap, reused for usernames

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if len(u.Username) > maxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// ValidatePeriod checks the calendar period an income record is keyed by.
func ValidatePeriod(year, month int) error {
	if year < 1970 || year > 9999 {
		return ErrInvalidDate
	}
	if month < 1 || month > 12 {
		return ErrInvalidDate
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if len(e.Note) > 200 {
		return ErrNoteTooLong
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if len(g.Name) > 100 {
		return ErrGoalNameTooLong
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns the funded percentage clamped to [0,100].
// A non-positive target yields 0 rather than dividing by zero.
func (g SavingsGoal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	p := float64(g.Current.Cents) / float64(g.Target.Cents) * 100
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// MonthsUntil returns the number of whole calendar months from now until the
// deadline, never less than 1 so monthly targets stay finite.
func (g SavingsGoal) MonthsUntil(now time.Time) int {
	if g.Deadline.IsZero() || !g.Deadline.After(now) {
		return 1
	}
	months := (g.Deadline.Year()-now.Year())*12 + int(g.Deadline.Month()) - int(now.Month())
	if months < 1 {
		return 1
	}
	return months
}

package core

import (
	"strings"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	valid := Expense{Amount: Money{Cents: 1500}, Category: CategoryTravel}

	t.Run("valid expense", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		e := valid
		e.Amount = Money{}
		if err := e.Validate(); err != ErrInvalidAmount {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		e := valid
		e.Category = "GAMBLING"
		if err := e.Validate(); err != ErrInvalidCategory {
			t.Errorf("got %v, want ErrInvalidCategory", err)
		}
	})

	t.Run("empty category", func(t *testing.T) {
		e := valid
		e.Category = ""
		if err := e.Validate(); err != ErrInvalidCategory {
			t.Errorf("got %v, want ErrInvalidCategory", err)
		}
	})

	t.Run("note over limit", func(t *testing.T) {
		e := valid
		e.Note = strings.Repeat("x", 201)
		if err := e.Validate(); err != ErrNoteTooLong {
			t.Errorf("got %v, want ErrNoteTooLong", err)
		}
	})
}

func TestUserValidateLength(t *testing.T) {
	u := User{Username: strings.Repeat("a", 73)}
	if err := u.Validate(); err != ErrUsernameTooLong {
		t.Errorf("got %v, want ErrUsernameTooLong", err)
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	for _, c := range []Category{"", "food_grocery", "FOOD", "UNKNOWN"} {
		if c.Valid() {
			t.Errorf("category %q should be invalid", c)
		}
	}
}

func TestValidatePeriod(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   int
		wantErr bool
	}{
		{name: "march 2024", year: 2024, month: 3},
		{name: "december", year: 2024, month: 12},
		{name: "month zero", year: 2024, month: 0, wantErr: true},
		{name: "month thirteen", year: 2024, month: 13, wantErr: true},
		{name: "ancient year", year: 1500, month: 6, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeriod(tt.year, tt.month)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePeriod(%d, %d) = %v, wantErr %v", tt.year, tt.month, err, tt.wantErr)
			}
		})
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		target  int64
		want    float64
	}{
		{name: "halfway", current: 5000, target: 10000, want: 50},
		{name: "empty goal", current: 0, target: 10000, want: 0},
		{name: "complete", current: 10000, target: 10000, want: 100},
		{name: "overfunded clamps to 100", current: 15000, target: 10000, want: 100},
		{name: "zero target yields zero", current: 5000, target: 0, want: 0},
		{name: "negative target yields zero", current: 5000, target: -100, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := SavingsGoal{Current: Money{Cents: tt.current}, Target: Money{Cents: tt.target}}
			got := g.Progress()
			if got != tt.want {
				t.Errorf("Progress() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("Progress() = %v outside [0,100]", got)
			}
		})
	}
}

func TestGoalValidate(t *testing.T) {
	valid := SavingsGoal{Name: "Emergency fund", Target: Money{Cents: 100000}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("empty name", func(t *testing.T) {
		g := valid
		g.Name = "   "
		if err := g.Validate(); err != ErrEmptyGoalName {
			t.Errorf("got %v, want ErrEmptyGoalName", err)
		}
	})

	t.Run("zero target", func(t *testing.T) {
		g := valid
		g.Target = Money{}
		if err := g.Validate(); err != ErrInvalidAmount {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("name over limit", func(t *testing.T) {
		g := valid
		g.Name = strings.Repeat("x", 101)
		if err := g.Validate(); err != ErrGoalNameTooLong {
			t.Errorf("got %v, want ErrGoalNameTooLong", err)
		}
	})
}

func TestGoalMonthsUntil(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{name: "six months out", deadline: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), want: 6},
		{name: "next year", deadline: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), want: 12},
		{name: "past deadline floors at one", deadline: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: 1},
		{name: "zero deadline floors at one", deadline: time.Time{}, want: 1},
		{name: "same month floors at one", deadline: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := SavingsGoal{Deadline: tt.deadline}
			if got := g.MonthsUntil(now); got != tt.want {
				t.Errorf("MonthsUntil() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Package core holds the FinTrack domain model: money, categories, users,
// income periods, expenses, and savings goals with their validation rules.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. All arithmetic and storage happens in
// cents; floating point only appears at the JSON boundary.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Amount returns the decimal value for JSON responses.
func (m Money) Amount() float64 {
	return float64(m.Cents) / 100.0
}

// MoneyFromAmount converts a decimal JSON number to cents with half-up
// rounding. Negative and non-finite inputs are rejected.
func MoneyFromAmount(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Money{}, ErrInvalidAmount
	}
	const maxSafe = float64(1<<63-1) / 100
	if amount > maxSafe {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(math.Round(amount * 100))}, nil
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Accepts both dot and comma
// separators; only positive values are valid.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

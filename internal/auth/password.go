// Package auth provides password hashing and signed session tokens.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

// bcryptCost matches the work factor the stored hashes were created with.
const bcryptCost = 10

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", core.ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
// Returns core.ErrInvalidCredentials on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.ErrInvalidCredentials
	}
	return nil
}

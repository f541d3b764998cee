// Package services orchestrates FinTrack operations across the SQLite
// store, the session token layer, and the AMQP export queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// AccountService handles registration and login.
type AccountService struct {
	storage *storage.Repository
	tokens  *auth.TokenManager
}

func NewAccountService(storage *storage.Repository, tokens *auth.TokenManager) *AccountService {
	return &AccountService{
		storage: storage,
		tokens:  tokens,
	}
}

// Register creates an account and returns it with a fresh session token.
func (s *AccountService) Register(ctx context.Context, username, password string) (core.User, string, error) {
	u := core.User{Username: username}
	if err := u.Validate(); err != nil {
		return core.User{}, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", err
	}

	id, err := s.storage.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, "", err
	}
	u.ID = id

	token, err := s.tokens.Issue(id, time.Now())
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	return u, token, nil
}

// Authenticate verifies credentials and returns the user with a session
// token. An unknown username comes back as ErrUserNotFound, a wrong
// password as ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (core.User, string, error) {
	u, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, "", err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		slog.WarnContext(ctx, "Login rejected", "username", username)
		return core.User{}, "", err
	}

	token, err := s.tokens.Issue(u.ID, time.Now())
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}

	return u, token, nil
}

// Lookup fetches an account by username without checking credentials.
func (s *AccountService) Lookup(ctx context.Context, username string) (core.User, error) {
	return s.storage.GetUserByUsername(ctx, username)
}

// Delete removes an account and, through the store's cascades, all of its
// incomes, expenses, and goals.
func (s *AccountService) Delete(ctx context.Context, userID int64) error {
	return s.storage.DeleteUser(ctx, userID)
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// writeDomainError maps known domain failures to 400 and hides everything
// else behind a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, known := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidCategory,
		core.ErrInvalidDate,
		core.ErrEmptyUsername,
		core.ErrEmptyPassword,
		core.ErrEmptyGoalName,
		core.ErrUsernameTooLong,
		core.ErrNoteTooLong,
		core.ErrGoalNameTooLong,
		core.ErrUserNotFound,
		core.ErrUsernameTaken,
		core.ErrInvalidCredentials,
		core.ErrGoalNotFound,
		core.ErrIncomeNotFound,
	} {
		if errors.Is(err, known) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), "Request failed",
		"url", r.URL.Path,
		"error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

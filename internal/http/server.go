// Package http exposes the FinTrack API over JSON. Routes live under
// /fintrack/ and, except for signup and login, require a bearer session
// token whose subject matches the user the request touches.
package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/services"
)

type Server struct {
	http.Server

	accounts *services.AccountService
	ledger   *services.LedgerService
	goals    *services.GoalService
	tokens   *auth.TokenManager

	// apiToken is the static service credential the gateway falls back to
	// for requests without a client session.
	apiToken string

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, accounts *services.AccountService, ledger *services.LedgerService, goals *services.GoalService, tokens *auth.TokenManager, apiToken string) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		accounts:    accounts,
		ledger:      ledger,
		goals:       goals,
		tokens:      tokens,
		apiToken:    apiToken,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Signup and login issue tokens, so they run without one.
	mux.HandleFunc("POST /fintrack/addUsers", s.withCommon(s.handleAddUser))
	mux.HandleFunc("POST /fintrack/findUsers", s.withCommon(s.handleFindUser))

	mux.HandleFunc("POST /fintrack/addIncome", s.withCommon(s.withAuth(s.handleAddIncome)))
	mux.HandleFunc("GET /fintrack/getIncome/{user_id}", s.withCommon(s.withAuth(s.handleGetIncome)))
	mux.HandleFunc("POST /fintrack/addExpenses", s.withCommon(s.withAuth(s.handleAddExpense)))
	mux.HandleFunc("GET /fintrack/getExpenses/{user_id}", s.withCommon(s.withAuth(s.handleGetExpenses)))
	mux.HandleFunc("GET /fintrack/getMonthlyExpenses/{user_id}", s.withCommon(s.withAuth(s.handleMonthlyExpenses)))
	mux.HandleFunc("GET /fintrack/getOverview/{user_id}", s.withCommon(s.withAuth(s.handleOverview)))
	mux.HandleFunc("GET /fintrack/goals/{user_id}", s.withCommon(s.withAuth(s.handleListGoals)))
	mux.HandleFunc("POST /fintrack/goals/{user_id}", s.withCommon(s.withAuth(s.handleCreateGoal)))
	mux.HandleFunc("POST /fintrack/goals/{user_id}/{goal_id}/addFunds", s.withCommon(s.withAuth(s.handleAddFunds)))
	mux.HandleFunc("POST /fintrack/recommend", s.withCommon(s.withAuth(s.handleRecommend)))
	mux.HandleFunc("DELETE /fintrack/deleteUser/{user_id}", s.withCommon(s.withAuth(s.handleDeleteUser)))

	return s
}

// Shutdown stops the limiter's cleanup goroutine and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withCommon adds request-id logging, security headers, and rate limiting
// on mutating methods.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	callerKey    contextKey = "caller"
)

// serviceCaller marks requests authenticated with the static API token.
const serviceCaller int64 = -1

// withAuth verifies the bearer credential and stores the caller identity in
// the request context. The static service token is accepted alongside user
// session tokens.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if s.apiToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) == 1 {
			ctx := context.WithValue(r.Context(), callerKey, serviceCaller)
			next(w, r.WithContext(ctx))
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			if err == auth.ErrTokenExpired {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// authorize checks that the caller may act for userID. Service-token calls
// may act for anyone.
func authorize(r *http.Request, userID int64) bool {
	caller, ok := r.Context().Value(callerKey).(int64)
	if !ok {
		return false
	}
	return caller == serviceCaller || caller == userID
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return "", false
	}
	return h[len(prefix):], true
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

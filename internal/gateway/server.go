package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Server struct {
	http.Server

	upstream     *Upstream
	shutdownOnce sync.Once
}

func NewServer(addr string, upstream *Upstream) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 20 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		upstream: upstream,
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("POST /api/signup", s.withLogging(s.handleSignup))
	mux.HandleFunc("POST /api/login", s.withLogging(s.handleLogin))
	mux.HandleFunc("POST /api/add-income", s.withLogging(s.handleAddIncome))
	mux.HandleFunc("POST /api/add-expense", s.withLogging(s.handleAddExpense))
	mux.HandleFunc("GET /api/expense-categories", s.withLogging(s.handleExpenseCategories))
	mux.HandleFunc("GET /api/monthly-expenses", s.withLogging(s.handleMonthlyExpenses))
	mux.HandleFunc("GET /api/saving-goals", s.withLogging(s.handleListGoals))
	mux.HandleFunc("POST /api/saving-goals", s.withLogging(s.handleCreateGoal))
	mux.HandleFunc("POST /api/saving-goals/{id}/add-funds", s.withLogging(s.handleAddFunds))
	mux.HandleFunc("GET /api/financial-overview", s.withLogging(s.handleFinancialOverview))
	mux.HandleFunc("POST /api/recommend", s.withLogging(s.handleRecommend))

	return s
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)
		slog.InfoContext(r.Context(), "Proxied request",
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sessionToken extracts the browser's bearer token, if any.
func sessionToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

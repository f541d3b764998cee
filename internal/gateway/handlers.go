package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Display names for the fixed category keys, in dashboard order. Keys the
// upstream may add later are dropped rather than shown raw.
var displayNames = []struct {
	key  string
	name string
}{
	{"FOOD_GROCERY", "Food & Grocery"},
	{"EDUCATION", "Education"},
	{"RENTS_BILLS", "Rents & Bills"},
	{"HEALTHCARE", "Healthcare"},
	{"ENTERTAINMENT", "Entertainment"},
	{"TRAVEL", "Travel"},
	{"OTHERS", "Others"},
	{"LOAN_EMI", "Loan-EMI"},
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: username, password")
		return
	}

	status, body, err := s.upstream.Do(r.Context(), http.MethodPost, "/fintrack/addUsers", sessionToken(r), req)
	if err != nil {
		s.upstreamFailure(w, r, err, "Failed to create account")
		return
	}
	if status < 200 || status > 299 {
		s.passUpstreamError(w, r, status, body, "Signup failed")
		return
	}

	var created struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "Invalid response from server")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Account created successfully",
		"userId":  created.ID,
		"token":   created.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: username, password")
		return
	}

	status, body, err := s.upstream.Do(r.Context(), http.MethodPost, "/fintrack/findUsers", sessionToken(r), req)
	if err != nil {
		s.upstreamFailure(w, r, err, "Internal server error")
		return
	}
	if status < 200 || status > 299 {
		s.passUpstreamError(w, r, status, body, "Login failed")
		return
	}

	var result struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "Invalid response from server")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"userId":  result.User.ID,
		"token":   result.Token,
	})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64   `json:"userId"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID == 0 || req.Amount == 0 || req.Date == "" {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: userId, amount, date")
		return
	}

	payload := map[string]any{"user_id": req.UserID, "amount": req.Amount, "date": req.Date}
	status, body, err := s.upstream.Do(r.Context(), http.MethodPost, "/fintrack/addIncome", sessionToken(r), payload)
	if err != nil {
		s.upstreamFailure(w, r, err, "Failed to add income")
		return
	}
	if status < 200 || status > 299 {
		s.logUpstreamStatus(r, status, body)
		writeErrorJSON(w, http.StatusInternalServerError, "Failed to add income")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Income added successfully",
		"data":    json.RawMessage(body),
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64   `json:"userId"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Note     string  `json:"note"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID == 0 || req.Amount == 0 || req.Category == "" {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: userId, amount, category")
		return
	}

	payload := map[string]any{
		"user_id":  req.UserID,
		"amount":   req.Amount,
		"category": req.Category,
		"note":     req.Note,
	}
	status, body, err := s.upstream.Do(r.Context(), http.MethodPost, "/fintrack/addExpenses", sessionToken(r), payload)
	if err != nil {
		s.upstreamFailure(w, r, err, "Failed to add expense")
		return
	}
	if status < 200 || status > 299 {
		s.logUpstreamStatus(r, status, body)
		writeErrorJSON(w, http.StatusInternalServerError, "Failed to add expense")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Expense added successfully",
		"data":    json.RawMessage(body),
	})
}

func (s *Server) handleExpenseCategories(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeErrorJSON(w, http.StatusBadRequest, "User ID is required")
		return
	}

	status, body, err := s.upstream.Do(r.Context(), http.MethodGet, "/fintrack/getExpenses/"+userID, sessionToken(r), nil)
	if err != nil {
		s.upstreamFailure(w, r, err, "Failed to fetch expense categories")
		return
	}
	if status < 200 || status > 299 {
		s.logUpstreamStatus(r, status, body)
		writeErrorJSON(w, http.StatusInternalServerError, "Failed to fetch expense categories")
		return
	}

	var result struct {
		Categories map[string]float64 `json:"categories"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "Invalid response from server")
		return
	}

	// Map raw keys to display names; zero and unknown categories are
	// dropped for cleaner charts.
	expenses := make([]map[string]any, 0, len(displayNames))
	var total float64
	for _, dn := range displayNames {
		amount := result.Categories[dn.key]
		if amount <= 0 {
			continue
		}
		expenses = append(expenses, map[string]any{
			"category":    dn.key,
			"displayName": dn.name,
			"amount":      amount,
		})
		total += amount
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"expenses":      expenses,
		"totalExpenses": total,
	})
}

func (s *Server) handleMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeErrorJSON(w, http.StatusBadRequest, "User ID is required")
		return
	}
	s.passThrough(w, r, http.MethodGet, "/fintrack/getMonthlyExpenses/"+userID, nil, "Failed to fetch monthly expenses")
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeErrorJSON(w, http.StatusBadRequest, "User ID is required")
		return
	}
	s.passThrough(w, r, http.MethodGet, "/fintrack/goals/"+userID, nil, "Failed to fetch savings goals")
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int64   `json:"userId"`
		Name         string  `json:"name"`
		TargetAmount float64 `json:"targetAmount"`
		Deadline     string  `json:"deadline"`
		Category     string  `json:"category"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID == 0 || req.Name == "" || req.TargetAmount == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: userId, name, targetAmount")
		return
	}

	payload := map[string]any{
		"name":     req.Name,
		"category": req.Category,
		"target":   req.TargetAmount,
		"deadline": req.Deadline,
	}
	path := fmt.Sprintf("/fintrack/goals/%d", req.UserID)
	s.passThrough(w, r, http.MethodPost, path, payload, "Failed to create savings goal")
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")
	var req struct {
		UserID int64   `json:"userId"`
		Amount float64 `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil || req.UserID == 0 || req.Amount == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: userId, amount")
		return
	}

	path := fmt.Sprintf("/fintrack/goals/%d/%s/addFunds", req.UserID, goalID)
	s.passThrough(w, r, http.MethodPost, path, map[string]any{"amount": req.Amount}, "Failed to add funds")
}

func (s *Server) handleFinancialOverview(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeErrorJSON(w, http.StatusBadRequest, "User ID is required")
		return
	}
	s.passThrough(w, r, http.MethodGet, "/fintrack/getOverview/"+userID, nil, "Failed to fetch financial overview")
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Risk             string  `json:"risk"`
		Horizon          string  `json:"horizon"`
		InvestmentAmount float64 `json:"investment_amount"`
	}
	if err := decodeBody(r, &req); err != nil || req.Risk == "" || req.Horizon == "" || req.InvestmentAmount == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "Missing required fields: risk, horizon, investment_amount")
		return
	}
	s.passThrough(w, r, http.MethodPost, "/fintrack/recommend", req, "Failed to generate recommendation")
}

// passThrough forwards a call upstream and relays the JSON body untouched
// on success. Any upstream failure becomes a generic 500; the cause stays
// in the server log.
func (s *Server) passThrough(w http.ResponseWriter, r *http.Request, method, path string, body any, failMsg string) {
	status, respBody, err := s.upstream.Do(r.Context(), method, path, sessionToken(r), body)
	if err != nil {
		s.upstreamFailure(w, r, err, failMsg)
		return
	}
	if status < 200 || status > 299 {
		s.logUpstreamStatus(r, status, respBody)
		writeErrorJSON(w, http.StatusInternalServerError, failMsg)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(respBody)
}

func (s *Server) upstreamFailure(w http.ResponseWriter, r *http.Request, err error, msg string) {
	slog.ErrorContext(r.Context(), "Upstream call failed",
		"url", r.URL.Path,
		"error", err)
	writeErrorJSON(w, http.StatusInternalServerError, msg)
}

func (s *Server) logUpstreamStatus(r *http.Request, status int, body []byte) {
	slog.ErrorContext(r.Context(), "Upstream returned error status",
		"url", r.URL.Path,
		"upstream_status", status,
		"upstream_body", string(body))
}

// passUpstreamError relays the upstream's status and message. Used on the
// auth routes, where the browser needs to show why a login was rejected.
func (s *Server) passUpstreamError(w http.ResponseWriter, r *http.Request, status int, body []byte, fallback string) {
	msg := fallback
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		msg = parsed.Error
	}
	slog.WarnContext(r.Context(), "Upstream rejected request",
		"url", r.URL.Path,
		"upstream_status", status)
	writeErrorJSON(w, status, msg)
}

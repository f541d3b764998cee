package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/advisory"
	"fintrack/internal/core"
)

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := s.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    u.ID,
		"token": token,
	})
}

func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": map[string]any{
			"id":       u.ID,
			"username": u.Username,
		},
		"token": token,
	})
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64   `json:"user_id"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, req.UserID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	year, month, err := parsePeriod(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := core.MoneyFromAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rec, overwritten, err := s.ledger.RecordIncome(r.Context(), req.UserID, amount, year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := "inserted"
	if overwritten {
		status = "updated"
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"income_id": rec.ID,
		"amount":    rec.Amount.Amount(),
		"year":      rec.Year,
		"month":     rec.Month,
		"status":    status,
	})
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	rec, err := s.ledger.LatestIncome(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"income_id": rec.ID,
		"amount":    rec.Amount.Amount(),
		"year":      rec.Year,
		"month":     rec.Month,
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   int64   `json:"user_id"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		Note     string  `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, req.UserID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	amount, err := core.MoneyFromAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	saved, err := s.ledger.RecordExpense(r.Context(), core.Expense{
		UserID:   req.UserID,
		Amount:   amount,
		Category: core.Category(strings.ToUpper(strings.TrimSpace(req.Category))),
		Note:     strings.TrimSpace(req.Note),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"expense_id": saved.ID,
		"amount":     saved.Amount.Amount(),
		"category":   saved.Category.String(),
	})
}

func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	totals, err := s.ledger.CategoryTotals(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	categories := make(map[string]float64, len(totals))
	for _, t := range totals {
		categories[t.Category.String()] = t.Total.Amount()
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleMonthlyExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	trends, err := s.ledger.MonthlyTrend(r.Context(), userID, time.Now().UTC())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rows := make([]map[string]any, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, map[string]any{
			"category": t.Category.String(),
			"month1":   t.Month1.Amount(),
			"month2":   t.Month2.Amount(),
			"month3":   t.Month3.Amount(),
			"trend":    string(t.Trend),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": rows})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	ov, err := s.ledger.Overview(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalIncome":   ov.TotalIncome.Amount(),
		"totalExpenses": ov.TotalExpenses.Amount(),
		"totalSavings":  ov.TotalSavings.Amount(),
	})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	goals, err := s.goals.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	ov, err := s.goals.Overview(r.Context(), userID, time.Now().UTC())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(goals))
	for _, g := range goals {
		out = append(out, goalJSON(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goals": out,
		"overview": map[string]any{
			"totalSavings":      ov.TotalSavings.Amount(),
			"monthlyInvested":   ov.MonthlyInvested.Amount(),
			"monthlyTarget":     ov.MonthlyTarget.Amount(),
			"remainingToInvest": ov.RemainingToInvest.Amount(),
		},
	})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	var req struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Target   float64 `json:"target"`
		Deadline string  `json:"deadline"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	target, err := core.MoneyFromAmount(req.Target)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var deadline time.Time
	if strings.TrimSpace(req.Deadline) != "" {
		deadline, err = time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline: use YYYY-MM-DD")
			return
		}
	}

	g, err := s.goals.Create(r.Context(), core.SavingsGoal{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Target:   target,
		Deadline: deadline,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, goalJSON(g))
}

func (s *Server) handleAddFunds(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	goalID, err := pathID(r, "goal_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := core.MoneyFromAmount(req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	g, err := s.goals.AddFunds(r.Context(), userID, goalID, amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goalJSON(g))
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Risk             string  `json:"risk"`
		Horizon          string  `json:"horizon"`
		InvestmentAmount float64 `json:"investment_amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := core.MoneyFromAmount(req.InvestmentAmount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	rec, err := advisory.Recommend(req.Risk, req.Horizon, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authorize(r, userID) {
		writeError(w, http.StatusForbidden, "token does not match user")
		return
	}

	if err := s.accounts.Delete(r.Context(), userID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "User deleted successfully"})
}

func goalJSON(g core.SavingsGoal) map[string]any {
	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.Format("2006-01-02")
	}
	return map[string]any{
		"id":       g.ID,
		"name":     g.Name,
		"category": g.Category,
		"target":   g.Target.Amount(),
		"current":  g.Current.Amount(),
		"deadline": deadline,
		"progress": g.Progress(),
	}
}

// parsePeriod reads the income month from a YYYY-MM or YYYY-MM-DD string.
func parsePeriod(date string) (int, int, error) {
	date = strings.TrimSpace(date)
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), int(t.Month()), nil
		}
	}
	return 0, 0, core.ErrInvalidDate
}

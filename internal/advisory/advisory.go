// Package advisory produces deterministic investment suggestions from a
// user's risk profile and investment horizon. A fixed rule table maps each
// profile to a stock category, a mutual fund category, and a split between
// the two; no market data is fetched.
package advisory

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// Accepted risk profiles.
const (
	RiskConservative = "Conservative"
	RiskModerate     = "Moderate"
	RiskAggressive   = "Aggressive"
)

// Accepted investment horizons.
const (
	HorizonShort  = "Short-term"
	HorizonMedium = "Medium-term"
	HorizonLong   = "Long-term"
)

type Recommendation struct {
	StockCategory string   `json:"stockCategory"`
	FundCategory  string   `json:"mfCategory"`
	StockPercent  int      `json:"stockPercent"`
	FundPercent   int      `json:"mfPercent"`
	StockAmount   float64  `json:"stockAmount"`
	FundAmount    float64  `json:"mfAmount"`
	Stocks        []string `json:"recommendedStocks"`
}

type profile struct {
	risk    string
	horizon string
}

type allocation struct {
	stockCategory string
	fundCategory  string
	stockPercent  int
}

// One row per (risk, horizon) pair. Longer horizons and higher risk shift
// toward equity; short conservative profiles stay in debt.
var rules = map[profile]allocation{
	{RiskConservative, HorizonShort}:  {"Dividend", "Debt", 20},
	{RiskConservative, HorizonMedium}: {"Value", "Debt", 30},
	{RiskConservative, HorizonLong}:   {"Index", "Index", 40},
	{RiskModerate, HorizonShort}:      {"Dividend", "Hybrid", 40},
	{RiskModerate, HorizonMedium}:     {"Index", "Hybrid", 50},
	{RiskModerate, HorizonLong}:       {"Blend", "ELSS", 60},
	{RiskAggressive, HorizonShort}:    {"Growth", "Hybrid", 60},
	{RiskAggressive, HorizonMedium}:   {"Growth", "Equity", 70},
	{RiskAggressive, HorizonLong}:     {"Small-Cap", "Equity", 80},
}

// NSE tickers representative of each stock category.
var tickersByCategory = map[string][]string{
	"Small-Cap": {"IRCTC.NS", "JIOFIN.NS", "POLICYBZR.NS", "NAUKRI.NS", "AUBANK.NS"},
	"Growth":    {"RELIANCE.NS", "TCS.NS", "INFY.NS", "DMART.NS", "HDFCBANK.NS"},
	"Index":     {"NIFTYBEES.NS", "BANKBEES.NS", "ICICIB22.NS", "MOM100.NS", "GOLDBEES.NS"},
	"Value":     {"HINDALCO.NS", "TATASTEEL.NS", "COALINDIA.NS", "NTPC.NS", "POWERGRID.NS"},
	"Dividend":  {"SBIN.NS", "AXISBANK.NS", "BPCL.NS", "VEDL.NS", "GAIL.NS"},
	"Blend":     {"ITC.NS", "NESTLEIND.NS", "BRITANNIA.NS", "CIPLA.NS", "HDFC.NS"},
}

// Recommend looks up the allocation for the given profile. Risk and horizon
// are matched case-insensitively; "short" is accepted for "Short-term".
func Recommend(risk, horizon string, amount core.Money) (Recommendation, error) {
	r, err := normalizeRisk(risk)
	if err != nil {
		return Recommendation{}, err
	}
	h, err := normalizeHorizon(horizon)
	if err != nil {
		return Recommendation{}, err
	}
	if err := amount.Validate(); err != nil {
		return Recommendation{}, err
	}

	alloc := rules[profile{r, h}]
	stockCents := amount.Cents * int64(alloc.stockPercent) / 100

	return Recommendation{
		StockCategory: alloc.stockCategory,
		FundCategory:  alloc.fundCategory,
		StockPercent:  alloc.stockPercent,
		FundPercent:   100 - alloc.stockPercent,
		StockAmount:   core.Money{Cents: stockCents}.Amount(),
		FundAmount:    core.Money{Cents: amount.Cents - stockCents}.Amount(),
		Stocks:        tickersByCategory[alloc.stockCategory],
	}, nil
}

func normalizeRisk(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conservative":
		return RiskConservative, nil
	case "moderate":
		return RiskModerate, nil
	case "aggressive":
		return RiskAggressive, nil
	default:
		return "", fmt.Errorf("invalid risk %q: use Conservative, Moderate, or Aggressive", s)
	}
}

func normalizeHorizon(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short-term", "short":
		return HorizonShort, nil
	case "medium-term", "medium":
		return HorizonMedium, nil
	case "long-term", "long":
		return HorizonLong, nil
	default:
		return "", fmt.Errorf("invalid horizon %q: use Short-term, Medium-term, or Long-term", s)
	}
}

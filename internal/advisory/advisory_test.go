package advisory

import (
	"errors"
	"testing"

	"fintrack/internal/core"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name          string
		risk          string
		horizon       string
		cents         int64
		wantStockCat  string
		wantFundCat   string
		wantStockPct  int
		wantStockAmt  float64
	}{
		{
			name:         "aggressive long term",
			risk:         "Aggressive",
			horizon:      "Long-term",
			cents:        10000000,
			wantStockCat: "Small-Cap",
			wantFundCat:  "Equity",
			wantStockPct: 80,
			wantStockAmt: 80000,
		},
		{
			name:         "conservative short term",
			risk:         "Conservative",
			horizon:      "Short-term",
			cents:        10000000,
			wantStockCat: "Dividend",
			wantFundCat:  "Debt",
			wantStockPct: 20,
			wantStockAmt: 20000,
		},
		{
			name:         "moderate medium term case insensitive",
			risk:         "moderate",
			horizon:      "MEDIUM-TERM",
			cents:        5000000,
			wantStockCat: "Index",
			wantFundCat:  "Hybrid",
			wantStockPct: 50,
			wantStockAmt: 25000,
		},
		{
			name:         "short form horizon",
			risk:         "aggressive",
			horizon:      "long",
			cents:        100000,
			wantStockCat: "Small-Cap",
			wantFundCat:  "Equity",
			wantStockPct: 80,
			wantStockAmt: 800,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Recommend(tt.risk, tt.horizon, core.Money{Cents: tt.cents})
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if got.StockCategory != tt.wantStockCat {
				t.Errorf("StockCategory = %q, want %q", got.StockCategory, tt.wantStockCat)
			}
			if got.FundCategory != tt.wantFundCat {
				t.Errorf("FundCategory = %q, want %q", got.FundCategory, tt.wantFundCat)
			}
			if got.StockPercent != tt.wantStockPct {
				t.Errorf("StockPercent = %d, want %d", got.StockPercent, tt.wantStockPct)
			}
			if got.StockPercent+got.FundPercent != 100 {
				t.Errorf("split = %d + %d, want 100", got.StockPercent, got.FundPercent)
			}
			if got.StockAmount != tt.wantStockAmt {
				t.Errorf("StockAmount = %v, want %v", got.StockAmount, tt.wantStockAmt)
			}
			if len(got.Stocks) == 0 {
				t.Error("Recommend() returned no tickers")
			}
		})
	}
}

func TestRecommendRejections(t *testing.T) {
	if _, err := Recommend("reckless", "Long-term", core.Money{Cents: 1000}); err == nil {
		t.Error("Recommend(bad risk) should fail")
	}
	if _, err := Recommend("Moderate", "forever", core.Money{Cents: 1000}); err == nil {
		t.Error("Recommend(bad horizon) should fail")
	}
	if _, err := Recommend("Moderate", "Long-term", core.Money{Cents: 0}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Recommend(zero amount) error = %v, want ErrInvalidAmount", err)
	}
}

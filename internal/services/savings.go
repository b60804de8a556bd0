package services

import (
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

// InvestmentBank returns how much would have been set aside in the month
// ("YYYY-MM") if every expense were rounded up to a multiple of limit.
// A non-positive limit, an invalid month or no expenses give 0.
func InvestmentBank(month string, rows []core.Transaction, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	ref, err := core.ParseMonth(month)
	if err != nil {
		return 0
	}
	step := decimal.NewFromInt(int64(limit))
	total := decimal.Zero
	for _, t := range rows {
		if !t.IsExpense() || !sameMonth(t.OperationDate, ref.Year(), ref.Month()) {
			continue
		}
		if rest := t.Amount.Abs().Mod(step); !rest.IsZero() {
			total = total.Add(step.Sub(rest))
		}
	}
	return core.Round2(total)
}

// CashbackByCategory sums the recorded cashback of completed transactions
// per category for one calendar month. Rows without a category are skipped.
func CashbackByCategory(rows []core.Transaction, year int, month int) map[string]float64 {
	sums := map[string]decimal.Decimal{}
	for _, t := range rows {
		if !t.IsOK() || t.Category == "" || !sameMonth(t.OperationDate, year, time.Month(month)) {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Cashback)
	}

	out := make(map[string]float64, len(sums))
	for category, sum := range sums {
		out[category] = sum.InexactFloat64()
	}
	return out
}

func sameMonth(t time.Time, year int, month time.Month) bool {
	return !t.IsZero() && t.Year() == year && t.Month() == month
}

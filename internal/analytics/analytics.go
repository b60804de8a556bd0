// Package analytics turns a transaction dataset into the summaries shown on
// the home and events pages: per-card spend, top transactions, the expense
// category rollup and income by category.
//
// Every function is a pure transform over its input dataset. Callers decide
// what to do with errors and empty results.
package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

const (
	// TopTransactionsCount caps the home page transaction list.
	TopTransactionsCount = 5
	// MainCategoriesCount is the number of expense categories shown verbatim
	// before the rest is rolled into core.CategoryOther.
	MainCategoriesCount = 7
)

// CashbackRate is the flat rate applied to per-card spend.
var CashbackRate = decimal.New(1, -2)

// separateCategories are reported outside the ranked list, in this order.
var separateCategories = []string{core.CategoryTransfers, core.CategoryCash}

type (
	// Filter narrows a dataset before aggregation. An empty CardLastDigits
	// matches every card.
	Filter struct {
		Window         core.Window
		CardLastDigits string
	}

	CardSummary struct {
		LastDigits string  `json:"last_digits"`
		TotalSpent float64 `json:"total_spent"`
		Cashback   float64 `json:"cashback"`
	}

	TopTransaction struct {
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
	}

	Expenses struct {
		TotalAmount      int64                 `json:"total_amount"`
		Main             []core.CategoryAmount `json:"main"`
		TransfersAndCash []core.CategoryAmount `json:"transfers_and_cash"`
	}

	Income struct {
		TotalAmount int64                 `json:"total_amount"`
		Main        []core.CategoryAmount `json:"main"`
	}

	categoryTotal struct {
		category string
		total    decimal.Decimal
	}
)

// Select keeps completed rows inside the window, optionally on one card.
func Select(ds core.Dataset, f Filter) core.Dataset {
	preds := []core.Predicate{core.Completed, core.InWindow(f.Window)}
	if digits := strings.TrimSpace(f.CardLastDigits); digits != "" {
		preds = append(preds, core.OnCard(digits))
	}
	return ds.Filter(preds...)
}

// CardSummaries totals expenses per card and applies the flat cashback rate.
// Cards are ordered by spend, largest first; ties keep card-number order.
// Rows without a card number are not attributed to any card.
func CardSummaries(ds core.Dataset) []CardSummary {
	expenses := ds.Filter(core.Expense, func(t core.Transaction) bool {
		return strings.TrimSpace(t.CardNumber) != ""
	})
	groups := core.GroupBy(expenses, func(t core.Transaction) string { return t.CardNumber })

	out := make([]CardSummary, 0, len(groups))
	for _, g := range groups {
		spent := core.SumAmounts(g.Rows).Abs()
		out = append(out, CardSummary{
			LastDigits: core.LastDigits(g.Key),
			TotalSpent: core.Round2(spent),
			Cashback:   core.Round2(spent.Mul(CashbackRate)),
		})
	}
	slices.SortStableFunc(out, func(a, b CardSummary) int {
		return cmp.Compare(b.TotalSpent, a.TotalSpent)
	})
	return out
}

// TopTransactions returns up to n rows with the largest absolute amount,
// income included. Equal magnitudes keep dataset order.
func TopTransactions(ds core.Dataset, n int) []TopTransaction {
	rows := ds.Rows()
	slices.SortStableFunc(rows, func(a, b core.Transaction) int {
		return b.Amount.Abs().Cmp(a.Amount.Abs())
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := make([]TopTransaction, 0, len(rows))
	for _, t := range rows {
		out = append(out, TopTransaction{
			Date:        t.OperationDate.Format(core.DisplayDateLayout),
			Amount:      core.Round2(t.Amount),
			Category:    t.Category,
			Description: t.Description,
		})
	}
	return out
}

// ExpenseBreakdown ranks expense categories by spend. Transfers and cash are
// kept out of the ranking and reported on their own; the grand total still
// includes them.
func ExpenseBreakdown(ds core.Dataset) Expenses {
	expenses := ds.Filter(core.Expense)
	res := Expenses{
		TotalAmount:      core.Truncate(expenses.Sum().Abs()),
		Main:             []core.CategoryAmount{},
		TransfersAndCash: []core.CategoryAmount{},
	}

	totals := categoryTotals(expenses, func(sum decimal.Decimal) decimal.Decimal { return sum.Abs() })
	separate := map[string]decimal.Decimal{}
	ranked := make([]categoryTotal, 0, len(totals))
	for _, ct := range totals {
		if slices.Contains(separateCategories, ct.category) {
			separate[ct.category] = ct.total
			continue
		}
		ranked = append(ranked, ct)
	}

	other := decimal.Zero
	for i, ct := range ranked {
		if i < MainCategoriesCount {
			res.Main = append(res.Main, core.CategoryAmount{Category: ct.category, Amount: core.Truncate(ct.total)})
			continue
		}
		other = other.Add(ct.total)
	}
	if other.IsPositive() {
		res.Main = append(res.Main, core.CategoryAmount{Category: core.CategoryOther, Amount: core.Truncate(other)})
	}

	for _, name := range separateCategories {
		if total, ok := separate[name]; ok {
			res.TransfersAndCash = append(res.TransfersAndCash, core.CategoryAmount{Category: name, Amount: core.Truncate(total)})
		}
	}
	return res
}

// IncomeBreakdown lists every income category by received amount.
func IncomeBreakdown(ds core.Dataset) Income {
	income := ds.Filter(core.Income)
	res := Income{
		TotalAmount: core.Truncate(income.Sum()),
		Main:        []core.CategoryAmount{},
	}
	for _, ct := range categoryTotals(income, func(sum decimal.Decimal) decimal.Decimal { return sum }) {
		res.Main = append(res.Main, core.CategoryAmount{Category: ct.category, Amount: core.Truncate(ct.total)})
	}
	return res
}

// categoryTotals sums each category and orders the totals descending. Equal
// totals stay in category name order.
func categoryTotals(ds core.Dataset, project func(decimal.Decimal) decimal.Decimal) []categoryTotal {
	groups := core.GroupBy(ds, func(t core.Transaction) string { return t.Category })
	out := make([]categoryTotal, 0, len(groups))
	for _, g := range groups {
		out = append(out, categoryTotal{category: g.Key, total: project(core.SumAmounts(g.Rows))})
	}
	slices.SortStableFunc(out, func(a, b categoryTotal) int { return b.total.Cmp(a.total) })
	return out
}

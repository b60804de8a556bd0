package core

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Dataset is an immutable, ordered collection of transactions. Every
// operation returning a Dataset works on a copy of the rows.
type Dataset struct {
	rows []Transaction
}

// Predicate selects transactions in Filter.
type Predicate func(Transaction) bool

// Group is one bucket produced by GroupBy, in ascending key order.
type Group[K cmp.Ordered] struct {
	Key  K
	Rows []Transaction
}

// NewDataset copies rows into a new dataset.
func NewDataset(rows []Transaction) Dataset {
	return Dataset{rows: slices.Clone(rows)}
}

func (d Dataset) Len() int      { return len(d.rows) }
func (d Dataset) IsEmpty() bool { return len(d.rows) == 0 }

// Rows returns a copy of the transactions in dataset order.
func (d Dataset) Rows() []Transaction {
	return slices.Clone(d.rows)
}

// Filter returns the rows matching every predicate.
func (d Dataset) Filter(preds ...Predicate) Dataset {
	match := All(preds...)
	out := make([]Transaction, 0, len(d.rows))
	for _, t := range d.rows {
		if match(t) {
			out = append(out, t)
		}
	}
	return Dataset{rows: out}
}

// Sum adds up the signed payment amounts.
func (d Dataset) Sum() decimal.Decimal {
	return SumAmounts(d.rows)
}

// LatestOperation returns the most recent operation date, or false when the
// dataset holds no dated row.
func (d Dataset) LatestOperation() (time.Time, bool) {
	var latest time.Time
	for _, t := range d.rows {
		if t.OperationDate.After(latest) {
			latest = t.OperationDate
		}
	}
	return latest, !latest.IsZero()
}

// GroupBy buckets rows by key. Groups come back sorted by key; rows keep
// dataset order within a group.
func GroupBy[K cmp.Ordered](d Dataset, key func(Transaction) K) []Group[K] {
	idx := map[K]int{}
	var groups []Group[K]
	for _, t := range d.rows {
		k := key(t)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group[K]{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, t)
	}
	slices.SortFunc(groups, func(a, b Group[K]) int { return cmp.Compare(a.Key, b.Key) })
	return groups
}

// SumAmounts adds up the signed payment amounts of rows.
func SumAmounts(rows []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range rows {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// MeanAbs returns the mean absolute payment amount, zero for no rows.
func MeanAbs(rows []Transaction) decimal.Decimal {
	if len(rows) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range rows {
		sum = sum.Add(t.Amount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(rows))))
}

// All combines predicates with logical AND. No predicates match everything.
func All(preds ...Predicate) Predicate {
	return func(t Transaction) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

func Completed(t Transaction) bool { return t.IsOK() }
func Expense(t Transaction) bool   { return t.IsExpense() }
func Income(t Transaction) bool    { return t.IsIncome() }

// InWindow keeps rows whose operation date falls inside w.
func InWindow(w Window) Predicate {
	return func(t Transaction) bool { return w.Contains(t.OperationDate) }
}

// OnCard keeps rows whose card ends with the given last digits.
func OnCard(lastDigits string) Predicate {
	return func(t Transaction) bool { return t.CardLastDigits() == lastDigits }
}

// InCategory keeps rows of exactly one category.
func InCategory(category string) Predicate {
	return func(t Transaction) bool { return t.Category == category }
}

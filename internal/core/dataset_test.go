package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func tx(card, category, amount string) Transaction {
	return Transaction{
		OperationDate: day(2024, 3, 10),
		CardNumber:    card,
		Status:        StatusOK,
		Amount:        decimal.RequireFromString(amount),
		Category:      category,
	}
}

func TestDatasetIsImmutable(t *testing.T) {
	rows := []Transaction{tx("*1111", "A", "-10")}
	ds := NewDataset(rows)
	rows[0].Category = "mutated"
	if ds.Rows()[0].Category != "A" {
		t.Fatal("dataset must not alias the input slice")
	}
	out := ds.Rows()
	out[0].Category = "mutated"
	if ds.Rows()[0].Category != "A" {
		t.Fatal("Rows must return a copy")
	}
	filtered := ds.Filter(Expense)
	if filtered.Len() != 1 || ds.Len() != 1 {
		t.Fatalf("unexpected lengths %d/%d", filtered.Len(), ds.Len())
	}
}

func TestDatasetFilter(t *testing.T) {
	failed := tx("*1111", "A", "-5")
	failed.Status = StatusFailed
	ds := NewDataset([]Transaction{
		tx("*1111", "A", "-10"),
		tx("*2222", "B", "20"),
		tx("*1111", "C", "0"),
		failed,
	})
	if got := ds.Filter(Completed, Expense).Len(); got != 1 {
		t.Fatalf("expected 1 ok expense, got %d", got)
	}
	if got := ds.Filter(Income).Len(); got != 1 {
		t.Fatalf("expected 1 income, got %d", got)
	}
	if got := ds.Filter(OnCard("1111")).Len(); got != 3 {
		t.Fatalf("expected 3 rows on card, got %d", got)
	}
	if got := ds.Filter().Len(); got != 4 {
		t.Fatalf("no predicates should keep every row, got %d", got)
	}
	if !ds.Sum().Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected sum %s", ds.Sum())
	}
}

func TestGroupBySortsKeys(t *testing.T) {
	ds := NewDataset([]Transaction{
		tx("*3", "Z", "-1"),
		tx("*1", "A", "-2"),
		tx("*3", "Z", "-3"),
		tx("*2", "M", "-4"),
	})
	groups := GroupBy(ds, func(t Transaction) string { return t.Category })
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	want := []string{"A", "M", "Z"}
	for i, g := range groups {
		if g.Key != want[i] {
			t.Fatalf("group %d key %q, want %q", i, g.Key, want[i])
		}
	}
	if n := len(groups[2].Rows); n != 2 || !groups[2].Rows[0].Amount.Equal(decimal.NewFromInt(-1)) {
		t.Fatalf("rows must keep dataset order within a group")
	}
}

func TestLatestOperationAndMean(t *testing.T) {
	if _, ok := NewDataset(nil).LatestOperation(); ok {
		t.Fatal("empty dataset has no latest operation")
	}
	a := tx("*1", "A", "-10")
	b := tx("*1", "A", "-20")
	b.OperationDate = day(2024, 3, 20)
	latest, ok := NewDataset([]Transaction{b, a}).LatestOperation()
	if !ok || !latest.Equal(day(2024, 3, 20)) {
		t.Fatalf("got %v %v", latest, ok)
	}
	if m := MeanAbs([]Transaction{a, b}); !m.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected mean 15, got %s", m)
	}
	if !MeanAbs(nil).IsZero() {
		t.Fatal("mean of no rows is zero")
	}
}

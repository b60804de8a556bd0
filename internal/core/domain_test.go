package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLastDigits(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"*7197", "7197"},
		{"1234567890", "7890"},
		{"**12", "12"},
		{"", ""},
		{" *5091 ", "5091"},
	}
	for _, tc := range cases {
		if got := LastDigits(tc.in); got != tc.out {
			t.Fatalf("LastDigits(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestTransactionDirection(t *testing.T) {
	cases := []struct {
		amount          string
		expense, income bool
	}{
		{"-1", true, false},
		{"1", false, true},
		{"0", false, false},
	}
	for _, tc := range cases {
		tx := Transaction{Amount: decimal.RequireFromString(tc.amount)}
		if tx.IsExpense() != tc.expense || tx.IsIncome() != tc.income {
			t.Fatalf("amount %s: expense=%v income=%v", tc.amount, tx.IsExpense(), tx.IsIncome())
		}
	}
}

func TestParseDates(t *testing.T) {
	if _, err := ParseDate("2024-03-15"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if _, err := ParseDateTime("2024-03-15 10:00:00"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if _, err := ParseMonth("2024-03"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"15.03.2024", "2024-13-01", ""} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDateFormat) {
			t.Fatalf("%q expected ErrInvalidDateFormat, got %v", bad, err)
		}
	}
}

package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"-160.89", "-160.89", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"1 234,50", "1234.5", true},
		{"1 234.50", "1234.5", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestParseOptionalAmount(t *testing.T) {
	for _, in := range []string{"", "  ", "nan", "NaN"} {
		got, err := ParseOptionalAmount(in)
		if err != nil || !got.IsZero() {
			t.Fatalf("%q expected zero, got %s (err=%v)", in, got, err)
		}
	}
	got, err := ParseOptionalAmount("3,5")
	if err != nil || !got.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("expected 3.5, got %s (err=%v)", got, err)
	}
	if _, err := ParseOptionalAmount("x"); err == nil {
		t.Fatal("expected error for garbage cashback")
	}
}

func TestTruncateAndRound(t *testing.T) {
	cases := []struct {
		in    string
		trunc int64
		round float64
	}{
		{"12.9", 12, 12.9},
		{"-12.9", -12, -12.9},
		{"160.899", 160, 160.9},
		{"0.005", 0, 0.01},
		{"-0.005", 0, -0.01},
	}
	for _, tc := range cases {
		d := decimal.RequireFromString(tc.in)
		if got := Truncate(d); got != tc.trunc {
			t.Fatalf("Truncate(%s) = %d, want %d", tc.in, got, tc.trunc)
		}
		if got := Round2(d); got != tc.round {
			t.Fatalf("Round2(%s) = %v, want %v", tc.in, got, tc.round)
		}
	}
}

func TestCents(t *testing.T) {
	if got := Cents(decimal.RequireFromString("-1.239")); got != -123 {
		t.Fatalf("expected -123, got %d", got)
	}
}

// Package core provides the transaction model, the dataset abstraction and
// the calendar and period rules shared by every aggregation.
//
// This file contains helpers for parsing amounts from spreadsheet cells and
// for the two numeric projections used in JSON output.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var hundredth = decimal.New(1, -2)

// ParseAmount converts a spreadsheet cell into a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// ignores spaces used as thousands separators, including non-breaking ones.
// Signs are preserved.
//
// Examples:
//
//	ParseAmount("-160.89")   -> -160.89, nil
//	ParseAmount("1 234,50")  -> 1234.5, nil
//	ParseAmount("")          -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseOptionalAmount is ParseAmount for nullable columns: blank cells and
// "nan" placeholders are zero.
func ParseOptionalAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return decimal.Zero, nil
	}
	return ParseAmount(trimmed)
}

// Truncate drops the fractional part, rounding toward zero (12.9 -> 12,
// -12.9 -> -12).
func Truncate(d decimal.Decimal) int64 {
	return d.IntPart()
}

// Round2 rounds to two decimal places for display.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Cents returns the amount in hundredths, truncated.
func Cents(d decimal.Decimal) int64 {
	return d.Div(hundredth).IntPart()
}

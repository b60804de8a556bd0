package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOK     Status = "OK"
	StatusFailed Status = "FAILED"
)

// Categories with special treatment in the expense breakdown.
const (
	CategoryTransfers = "Переводы"
	CategoryCash      = "Наличные"
	CategoryOther     = "Остальное"
)

// Layouts used for textual dates across the module.
const (
	DateLayout          = "2006-01-02"
	DateTimeLayout      = "2006-01-02 15:04:05"
	MonthLayout         = "2006-01"
	DisplayDateLayout   = "02.01.2006"
	OperationDateLayout = "02.01.2006 15:04:05"
)

type (
	Status string

	// Transaction is one row of a bank statement export.
	Transaction struct {
		OperationDate time.Time       `json:"operation_date"`
		PaymentDate   time.Time       `json:"payment_date"`
		CardNumber    string          `json:"card_number"`
		Status        Status          `json:"status"`
		Amount        decimal.Decimal `json:"amount"` // payment amount, negative for expenses
		Currency      string          `json:"currency"`
		Cashback      decimal.Decimal `json:"cashback"`
		Category      string          `json:"category"`
		MCC           string          `json:"mcc"`
		Description   string          `json:"description"`
	}

	// CategoryAmount is a category total truncated to whole currency units.
	CategoryAmount struct {
		Category string `json:"category"`
		Amount   int64  `json:"amount"`
	}
)

var (
	ErrInvalidDateFormat  = errors.New("invalid date format")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrMissingCustomRange = errors.New("custom period requires start and end dates")
)

// IsOK reports whether the transaction completed successfully.
func (t Transaction) IsOK() bool {
	return t.Status == StatusOK
}

// IsExpense reports whether money left the account. Zero amounts are neither
// expenses nor income.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether money came into the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// CardLastDigits returns the last four characters of the card number once
// mask characters are removed.
func (t Transaction) CardLastDigits() string {
	return LastDigits(t.CardNumber)
}

// LastDigits strips "*" masking from a card identifier and keeps the trailing
// four characters. Shorter identifiers are returned whole.
func LastDigits(card string) string {
	clean := strings.ReplaceAll(strings.TrimSpace(card), "*", "")
	r := []rune(clean)
	if len(r) <= 4 {
		return clean
	}
	return string(r[len(r)-4:])
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return parseLayout(DateLayout, s)
}

// ParseDateTime parses a YYYY-MM-DD HH:MM:SS timestamp.
func ParseDateTime(s string) (time.Time, error) {
	return parseLayout(DateTimeLayout, s)
}

// ParseMonth parses a YYYY-MM month reference.
func ParseMonth(s string) (time.Time, error) {
	return parseLayout(MonthLayout, s)
}

func parseLayout(layout, s string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, expected %s", ErrInvalidDateFormat, s, layout)
	}
	return t, nil
}

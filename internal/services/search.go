// Package services holds the small list-based helpers built on top of the
// transaction model: keyword and pattern searches, the investment round-up
// and cashback totals per category.
package services

import (
	"regexp"
	"strings"

	"finview/internal/core"
)

var (
	// Russian mobile numbers: +7 followed by 3-3-2-2 digit groups.
	phonePattern = regexp.MustCompile(`\+7\s?\d{3}\s?\d{3}-?\d{2}-?\d{2}`)
	// One capitalized name, a space and a capital initial with a period.
	personNamePattern = regexp.MustCompile(`^[А-ЯЁ][а-яё]+\s[А-ЯЁ]\.$`)
)

type (
	// Match is the JSON view of a found transaction.
	Match struct {
		Date        string  `json:"date"`
		CardNumber  string  `json:"card_number"`
		Status      string  `json:"status"`
		Amount      float64 `json:"amount"`
		Cashback    float64 `json:"cashback"`
		Category    string  `json:"category"`
		MCC         string  `json:"mcc,omitempty"`
		Description string  `json:"description"`
	}

	QueryResult struct {
		Query        string  `json:"query"`
		Transactions []Match `json:"transactions"`
	}

	Result struct {
		Transactions []Match `json:"transactions"`
	}
)

// SimpleSearch finds rows whose description or category contains query,
// ignoring case. An empty query matches nothing.
func SimpleSearch(query string, rows []core.Transaction) QueryResult {
	res := QueryResult{Query: query, Transactions: []Match{}}
	if query == "" {
		return res
	}
	q := strings.ToLower(query)
	res.Transactions = collect(rows, func(t core.Transaction) bool {
		return strings.Contains(strings.ToLower(t.Description), q) ||
			strings.Contains(strings.ToLower(t.Category), q)
	})
	return res
}

// SearchByPhone finds rows mentioning a Russian mobile number.
func SearchByPhone(rows []core.Transaction) Result {
	return Result{Transactions: collect(rows, func(t core.Transaction) bool {
		return phonePattern.MatchString(t.Description)
	})}
}

// SearchPersonTransfers finds transfers addressed to a private person,
// written as "Name I.".
func SearchPersonTransfers(rows []core.Transaction) Result {
	return Result{Transactions: collect(rows, IsPersonTransfer)}
}

// IsPersonTransfer reports whether t is a transfer to a private person.
func IsPersonTransfer(t core.Transaction) bool {
	return t.Category == core.CategoryTransfers &&
		personNamePattern.MatchString(strings.TrimSpace(t.Description))
}

func collect(rows []core.Transaction, keep func(core.Transaction) bool) []Match {
	out := []Match{}
	for _, t := range rows {
		if keep(t) {
			out = append(out, NewMatch(t))
		}
	}
	return out
}

// NewMatch renders t for JSON output.
func NewMatch(t core.Transaction) Match {
	m := Match{
		CardNumber:  t.CardNumber,
		Status:      string(t.Status),
		Amount:      core.Round2(t.Amount),
		Cashback:    core.Round2(t.Cashback),
		Category:    t.Category,
		MCC:         t.MCC,
		Description: t.Description,
	}
	if !t.OperationDate.IsZero() {
		m.Date = t.OperationDate.Format(core.OperationDateLayout)
	}
	return m
}

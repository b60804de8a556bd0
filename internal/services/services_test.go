package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
)

func txn(date time.Time, category, description, amount string) core.Transaction {
	return core.Transaction{
		OperationDate: date,
		CardNumber:    "*7197",
		Status:        core.StatusOK,
		Amount:        decimal.RequireFromString(amount),
		Category:      category,
		Description:   description,
	}
}

var mar15 = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestInvestmentBank(t *testing.T) {
	cases := []struct {
		name   string
		month  string
		rows   []core.Transaction
		limit  int
		expect float64
	}{
		{"rounds up", "2024-03", []core.Transaction{txn(mar15, "A", "", "-1712")}, 50, 38},
		{"exact multiple", "2024-03", []core.Transaction{txn(mar15, "A", "", "-850")}, 50, 0},
		{"sums rows", "2024-03", []core.Transaction{
			txn(mar15, "A", "", "-1712"),
			txn(mar15, "A", "", "-99.5"),
			txn(mar15, "A", "", "500"), // income ignored
		}, 100, 88.5},
		{"other month", "2024-04", []core.Transaction{txn(mar15, "A", "", "-1712")}, 50, 0},
		{"zero limit", "2024-03", []core.Transaction{txn(mar15, "A", "", "-1712")}, 0, 0},
		{"bad month", "03.2024", []core.Transaction{txn(mar15, "A", "", "-1712")}, 50, 0},
		{"no rows", "2024-03", nil, 50, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InvestmentBank(tc.month, tc.rows, tc.limit); got != tc.expect {
				t.Fatalf("got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestCashbackByCategory(t *testing.T) {
	a := txn(mar15, "Супермаркеты", "", "-1000")
	a.Cashback = decimal.RequireFromString("10.5")
	b := txn(mar15.AddDate(0, 0, 5), "Супермаркеты", "", "-500")
	b.Cashback = decimal.RequireFromString("5.2")
	failed := b
	failed.Status = core.StatusFailed
	other := txn(mar15.AddDate(0, 1, 0), "Супермаркеты", "", "-500")
	other.Cashback = decimal.RequireFromString("100")
	noCashback := txn(mar15, "Аптеки", "", "-300")

	got := CashbackByCategory([]core.Transaction{a, b, failed, other, noCashback}, 2024, 3)
	if len(got) != 2 || got["Супермаркеты"] != 15.7 || got["Аптеки"] != 0 {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestSimpleSearch(t *testing.T) {
	rows := []core.Transaction{
		txn(mar15, "Супермаркеты", "Лента", "-100"),
		txn(mar15, "Переводы", "Перевод", "-50"),
		txn(mar15, "Фастфуд", "ЛЕНТА кафе", "-20"),
	}
	res := SimpleSearch("лента", rows)
	if res.Query != "лента" || len(res.Transactions) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Transactions[0].Date != "15.03.2024 10:00:00" || res.Transactions[0].Amount != -100 {
		t.Fatalf("unexpected match %+v", res.Transactions[0])
	}
	if got := SimpleSearch("переводы", rows); len(got.Transactions) != 1 {
		t.Fatalf("category must be searched too, got %+v", got)
	}
	if got := SimpleSearch("", rows); got.Transactions == nil || len(got.Transactions) != 0 {
		t.Fatalf("empty query must match nothing, got %+v", got)
	}
}

func TestSearchByPhone(t *testing.T) {
	rows := []core.Transaction{
		txn(mar15, "Мобильная связь", "Пополнение +7 921 11-22-33", "-100"),
		txn(mar15, "Мобильная связь", "Я МТС +7 921 111-22-33", "-100"),
		txn(mar15, "Мобильная связь", "МТС +79211112233", "-100"),
		txn(mar15, "Супермаркеты", "Оплата покупки", "-100"),
		txn(mar15, "Супермаркеты", "8 921 111-22-33", "-100"),
	}
	res := SearchByPhone(rows)
	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 matches, got %+v", res.Transactions)
	}
	if res.Transactions[0].Description != "Я МТС +7 921 111-22-33" {
		t.Fatalf("unexpected first match %+v", res.Transactions[0])
	}
}

func TestSearchPersonTransfers(t *testing.T) {
	cases := []struct {
		category, description string
		match                 bool
	}{
		{"Переводы", "Валерий А.", true},
		{"Переводы", "  Сергей З. ", true},
		{"Переводы", "Ёлка Ё.", true},
		{"Супермаркеты", "Валерий А.", false},
		{"Переводы", "Перевод на счет", false},
		{"Переводы", "валерий А.", false},
		{"Переводы", "Валерий Андреев", false},
	}
	for _, tc := range cases {
		got := IsPersonTransfer(txn(mar15, tc.category, tc.description, "-100"))
		if got != tc.match {
			t.Fatalf("%q/%q: got %v, want %v", tc.category, tc.description, got, tc.match)
		}
	}
	res := SearchPersonTransfers([]core.Transaction{
		txn(mar15, "Переводы", "Валерий А.", "-100"),
		txn(mar15, "Переводы", "Перевод на счет", "-100"),
	})
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 match, got %+v", res.Transactions)
	}
}

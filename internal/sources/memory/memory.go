// Package memory is an in-process transaction source used for demos and
// tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/sources"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

var _ sources.Loader = (*Store)(nil)

func New(rows ...core.Transaction) *Store {
	return &Store{items: append([]core.Transaction(nil), rows...)}
}

// NewFromFile seeds the store from a JSON array of transactions. A missing
// or unreadable file falls back to the built-in sample statement.
func NewFromFile(path string) *Store {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(Sample()...)
	}
	var rows []core.Transaction
	if err := json.Unmarshal(data, &rows); err != nil {
		return New(Sample()...)
	}
	return New(rows...)
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, t)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Load returns a snapshot; later appends do not affect it.
func (s *Store) Load(_ context.Context) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewDataset(s.items), nil
}

// Sample is a small March 2024 statement covering every category kind the
// analytics distinguish.
func Sample() []core.Transaction {
	tx := func(day, hour int, card string, status core.Status, amount, cashback, category, description string) core.Transaction {
		op := time.Date(2024, 3, day, hour, 15, 0, 0, time.UTC)
		return core.Transaction{
			OperationDate: op,
			PaymentDate:   core.StartOfDay(op),
			CardNumber:    card,
			Status:        status,
			Amount:        decimal.RequireFromString(amount),
			Currency:      "RUB",
			Cashback:      decimal.RequireFromString(cashback),
			Category:      category,
			Description:   description,
		}
	}
	return []core.Transaction{
		tx(1, 10, "*7197", core.StatusOK, "-1562.30", "15", "Супермаркеты", "Лента"),
		tx(2, 13, "*7197", core.StatusOK, "-349.00", "3", "Фастфуд", "Теремок"),
		tx(3, 19, "*5091", core.StatusOK, "-2500.00", "0", "Переводы", "Иван С."),
		tx(4, 9, "*5091", core.StatusOK, "-120.00", "1", "Транспорт", "Метро"),
		tx(5, 12, "*7197", core.StatusOK, "-5000.00", "0", "Наличные", "Снятие в банкомате"),
		tx(6, 18, "*7197", core.StatusOK, "-899.99", "9", "Рестораны", "Шоколадница"),
		tx(8, 11, "*5091", core.StatusOK, "-400.00", "0", "Мобильная связь", "Я МТС +7 921 111-22-33"),
		tx(9, 15, "*7197", core.StatusOK, "-2100.50", "21", "Супермаркеты", "Лента"),
		tx(10, 10, "*7197", core.StatusFailed, "-750.00", "0", "Одежда", "Ozon"),
		tx(11, 20, "*5091", core.StatusOK, "-1299.00", "13", "Аптеки", "Ригла"),
		tx(12, 14, "*7197", core.StatusOK, "-650.00", "6", "Красота", "Барбершоп"),
		tx(13, 8, "", core.StatusOK, "75000.00", "0", "Пополнения", "Зарплата"),
		tx(14, 17, "*5091", core.StatusOK, "-3200.00", "32", "Дом и ремонт", "Леруа Мерлен"),
		tx(15, 9, "*7197", core.StatusOK, "1500.00", "0", "Переводы", "Петр П."),
		tx(15, 12, "*7197", core.StatusOK, "-259.90", "2", "Кафе", "Кофемания"),
	}
}

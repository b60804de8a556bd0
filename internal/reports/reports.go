// Package reports computes the trailing three-month spending reports.
//
// The aggregation functions are pure. Service wraps them with date parsing,
// logging and persistence of every produced report.
package reports

import (
	"time"

	"finview/internal/core"
)

// Day types used by SpendingByWorkday.
const (
	DayTypeWorkday = "рабочий"
	DayTypeWeekend = "выходной"
)

type (
	// CategoryMonth is the spend in one category during one calendar month.
	CategoryMonth struct {
		Month string  `json:"месяц"`
		Spent float64 `json:"сумма_трат"`
	}

	// WeekdayAverage is the mean expense for a weekday (Monday is 0).
	WeekdayAverage struct {
		Weekday int     `json:"день_недели"`
		Average float64 `json:"средняя_сумма"`
	}

	// DayTypeAverage is the mean expense on workdays or weekends.
	DayTypeAverage struct {
		DayType string  `json:"тип_дня"`
		Average float64 `json:"средняя_сумма"`
	}
)

// trailingExpenses keeps completed expenses inside the trailing three-month
// window around ref.
func trailingExpenses(ds core.Dataset, ref time.Time, extra ...core.Predicate) core.Dataset {
	start, end := core.TrailingThreeMonths(ref)
	preds := append([]core.Predicate{
		core.Completed,
		core.Expense,
		core.InWindow(core.Window{Start: start, End: end}),
	}, extra...)
	return ds.Filter(preds...)
}

// SpendingByCategory sums the spend in category per calendar month, oldest
// month first. Months without spend are omitted.
func SpendingByCategory(ds core.Dataset, category string, ref time.Time) []CategoryMonth {
	rows := trailingExpenses(ds, ref, core.InCategory(category))
	groups := core.GroupBy(rows, func(t core.Transaction) string {
		return t.OperationDate.Format(core.MonthLayout)
	})

	out := make([]CategoryMonth, 0, len(groups))
	for _, g := range groups {
		out = append(out, CategoryMonth{
			Month: g.Key,
			Spent: core.SumAmounts(g.Rows).Abs().InexactFloat64(),
		})
	}
	return out
}

// SpendingByWeekday averages expenses per weekday, Monday first. Weekdays
// without spend are omitted.
func SpendingByWeekday(ds core.Dataset, ref time.Time) []WeekdayAverage {
	groups := core.GroupBy(trailingExpenses(ds, ref), func(t core.Transaction) int {
		return core.Weekday(t.OperationDate)
	})

	out := make([]WeekdayAverage, 0, len(groups))
	for _, g := range groups {
		out = append(out, WeekdayAverage{
			Weekday: g.Key,
			Average: core.MeanAbs(g.Rows).InexactFloat64(),
		})
	}
	return out
}

// SpendingByWorkday averages expenses on workdays (Monday to Friday) and
// weekends.
func SpendingByWorkday(ds core.Dataset, ref time.Time) []DayTypeAverage {
	groups := core.GroupBy(trailingExpenses(ds, ref), func(t core.Transaction) string {
		return DayType(t.OperationDate)
	})

	out := make([]DayTypeAverage, 0, len(groups))
	for _, g := range groups {
		out = append(out, DayTypeAverage{
			DayType: g.Key,
			Average: core.MeanAbs(g.Rows).InexactFloat64(),
		})
	}
	return out
}

// DayType classifies t as a workday or a weekend day.
func DayType(t time.Time) string {
	if core.Weekday(t) <= 4 {
		return DayTypeWorkday
	}
	return DayTypeWeekend
}

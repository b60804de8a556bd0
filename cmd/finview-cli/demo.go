package main

import (
	"context"
	"time"

	"finview/internal/cli"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/reports"
	"finview/internal/services"
	"finview/internal/views"
)

// demoOptions are the inputs of the demo run.
type demoOptions struct {
	Date     string
	Category string
	Query    string
	Limit    int
}

func defaultDemoOptions() demoOptions {
	return demoOptions{
		Date:     "2024-03-15",
		Category: "Супермаркеты",
		Query:    "Лента",
		Limit:    50,
	}
}

// demoSummary collects the headline numbers logged by runDemo.
type demoSummary struct {
	Cards, TopTransactions        int
	Expenses, Income              int64
	SearchHits, Phones, Transfers int
	Investment                    float64
	CashbackCategories            int
	CategoryMonths, Weekdays      int
	DayTypes                      int
}

func runDemo(ctx context.Context, app *cli.App, ds core.Dataset, opts demoOptions, logger *log.Logger) (demoSummary, error) {
	ref, err := core.ParseDate(opts.Date)
	if err != nil {
		return demoSummary{}, err
	}
	var sum demoSummary

	home := app.Views.HomePage(ctx, opts.Date+" 12:00:00", ds)
	sum.Cards, sum.TopTransactions = len(home.Cards), len(home.TopTransactions)
	logger.InfoContext(ctx, "Home page",
		"greeting", home.Greeting,
		"cards", sum.Cards,
		"top_transactions", sum.TopTransactions,
		"currency_rates", len(home.CurrencyRates),
		"stock_prices", len(home.StockPrices))

	events := app.Views.EventsPage(ctx, views.EventsRequest{Date: opts.Date, Period: core.PeriodMonth}, ds)
	sum.Expenses, sum.Income = events.Expenses.TotalAmount, events.Income.TotalAmount
	logger.InfoContext(ctx, "Events page",
		log.FieldPeriod, string(core.PeriodMonth),
		"expenses", sum.Expenses,
		"income", sum.Income)

	rows := ds.Rows()
	sum.SearchHits = len(services.SimpleSearch(opts.Query, rows).Transactions)
	sum.Phones = len(services.SearchByPhone(rows).Transactions)
	sum.Transfers = len(services.SearchPersonTransfers(rows).Transactions)
	logger.InfoContext(ctx, "Searches",
		log.FieldSearchQuery, opts.Query,
		"matches", sum.SearchHits,
		"phone_matches", sum.Phones,
		"transfer_matches", sum.Transfers)

	month := ref.Format(core.MonthLayout)
	sum.Investment = services.InvestmentBank(month, rows, opts.Limit)
	cashback := services.CashbackByCategory(rows, ref.Year(), int(ref.Month()))
	sum.CashbackCategories = len(cashback)
	logger.InfoContext(ctx, "Savings",
		log.FieldMonth, month,
		"investment_bank", sum.Investment,
		"cashback_categories", sum.CashbackCategories)

	ropts := reports.Options{Date: opts.Date}
	sum.CategoryMonths = len(app.Reports.SpendingByCategory(ctx, ds, opts.Category, ropts))
	sum.Weekdays = len(app.Reports.SpendingByWeekday(ctx, ds, ropts))
	sum.DayTypes = len(app.Reports.SpendingByWorkday(ctx, ds, ropts))
	logger.InfoContext(ctx, "Reports",
		log.FieldCategory, opts.Category,
		"category_months", sum.CategoryMonths,
		"weekdays", sum.Weekdays,
		"day_types", sum.DayTypes,
		"finished_at", time.Now().Format(core.DateTimeLayout))
	return sum, nil
}

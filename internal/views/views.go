// Package views assembles the JSON documents served for the home dashboard
// and the events page.
//
// BuildHome and BuildEvents return errors. HomePage and EventsPage are the
// public entry points: they log any error and fall back to the empty
// document, so callers always get a well-formed response.
package views

import (
	"context"

	"finview/internal/analytics"
	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/quotes"
	"finview/internal/settings"
)

// DefaultGreeting is used when the request time cannot be parsed.
const DefaultGreeting = "Добрый день"

type (
	// SettingsLoader supplies the symbols to quote.
	SettingsLoader interface {
		Load() settings.Settings
	}

	Builder struct {
		quotes   quotes.Provider
		settings SettingsLoader
		log      *log.Logger
	}

	HomeResponse struct {
		Greeting        string                     `json:"greeting"`
		Cards           []analytics.CardSummary    `json:"cards"`
		TopTransactions []analytics.TopTransaction `json:"top_transactions"`
		CurrencyRates   []quotes.CurrencyRate      `json:"currency_rates"`
		StockPrices     []quotes.StockPrice        `json:"stock_prices"`
	}

	EventsRequest struct {
		Date      string
		Period    core.Period
		StartDate string
		EndDate   string
		Card      string
	}

	EventsResponse struct {
		Expenses      analytics.Expenses    `json:"expenses"`
		Income        analytics.Income      `json:"income"`
		CurrencyRates []quotes.CurrencyRate `json:"currency_rates"`
		StockPrices   []quotes.StockPrice   `json:"stock_prices"`
	}
)

func NewBuilder(provider quotes.Provider, store SettingsLoader, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Discard()
	}
	return &Builder{
		quotes:   provider,
		settings: store,
		log:      logger.WithComponent(log.ComponentViews),
	}
}

// Greeting picks the salutation for an hour of the day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Доброе утро"
	case hour >= 12 && hour < 17:
		return "Добрый день"
	case hour >= 17 && hour < 22:
		return "Добрый вечер"
	default:
		return "Доброй ночи"
	}
}

// EmptyHome is the home document with no data.
func EmptyHome(greeting string) HomeResponse {
	return HomeResponse{
		Greeting:        greeting,
		Cards:           []analytics.CardSummary{},
		TopTransactions: []analytics.TopTransaction{},
		CurrencyRates:   []quotes.CurrencyRate{},
		StockPrices:     []quotes.StockPrice{},
	}
}

// EmptyEvents is the events document with no data.
func EmptyEvents() EventsResponse {
	return EventsResponse{
		Expenses: analytics.Expenses{
			Main:             []core.CategoryAmount{},
			TransfersAndCash: []core.CategoryAmount{},
		},
		Income:        analytics.Income{Main: []core.CategoryAmount{}},
		CurrencyRates: []quotes.CurrencyRate{},
		StockPrices:   []quotes.StockPrice{},
	}
}

// HomePage builds the dashboard for dateTime ("YYYY-MM-DD HH:MM:SS"),
// covering the month up to the end of that day.
func (b *Builder) HomePage(ctx context.Context, dateTime string, ds core.Dataset) HomeResponse {
	res, err := b.BuildHome(ctx, dateTime, ds)
	if err != nil {
		b.log.ErrorContext(ctx, "Home page degraded to empty response", log.FieldError, err)
		greeting := DefaultGreeting
		if ts, perr := core.ParseDateTime(dateTime); perr == nil {
			greeting = Greeting(ts.Hour())
		}
		return EmptyHome(greeting)
	}
	return res
}

func (b *Builder) BuildHome(ctx context.Context, dateTime string, ds core.Dataset) (HomeResponse, error) {
	ts, err := core.ParseDateTime(dateTime)
	if err != nil {
		return HomeResponse{}, err
	}
	res := EmptyHome(Greeting(ts.Hour()))
	if ds.IsEmpty() {
		b.log.WarnContext(ctx, "Empty dataset for home page")
		return res, nil
	}

	w, err := core.Resolve(ts, core.PeriodMonth)
	if err != nil {
		return HomeResponse{}, err
	}
	selected := analytics.Select(ds, analytics.Filter{Window: w})
	fields := windowFields(w)
	fields[log.FieldRows] = selected.Len()
	b.log.InfoContext(ctx, "Home page window selected", fields.ToSlice()...)

	res.Cards = analytics.CardSummaries(selected)
	res.TopTransactions = analytics.TopTransactions(selected, analytics.TopTransactionsCount)
	res.CurrencyRates, res.StockPrices = b.enrich(ctx)
	return res, nil
}

// EventsPage builds the period breakdown described by req.
func (b *Builder) EventsPage(ctx context.Context, req EventsRequest, ds core.Dataset) EventsResponse {
	res, err := b.BuildEvents(ctx, req, ds)
	if err != nil {
		b.log.ErrorContext(ctx, "Events page degraded to empty response",
			log.FieldPeriod, string(req.Period),
			log.FieldError, err)
		return EmptyEvents()
	}
	return res
}

func (b *Builder) BuildEvents(ctx context.Context, req EventsRequest, ds core.Dataset) (EventsResponse, error) {
	w, err := core.ParseWindow(req.Date, req.Period, req.StartDate, req.EndDate)
	if err != nil {
		return EventsResponse{}, err
	}
	res := EmptyEvents()
	if ds.IsEmpty() {
		b.log.WarnContext(ctx, "Empty dataset for events page")
		return res, nil
	}

	selected := analytics.Select(ds, analytics.Filter{Window: w, CardLastDigits: req.Card})
	fields := windowFields(w)
	fields[log.FieldPeriod] = string(req.Period)
	fields[log.FieldCard] = req.Card
	fields[log.FieldRows] = selected.Len()
	b.log.InfoContext(ctx, "Events page window selected", fields.ToSlice()...)

	res.Expenses = analytics.ExpenseBreakdown(selected)
	res.Income = analytics.IncomeBreakdown(selected)
	res.CurrencyRates, res.StockPrices = b.enrich(ctx)
	return res, nil
}

func windowFields(w core.Window) log.LogFields {
	return log.NewFields().WithWindow(
		w.Start.Format(core.DateTimeLayout),
		w.End.Format(core.DateTimeLayout))
}

// enrich fetches quotes for the symbols listed in the user settings. Empty
// lists skip the provider entirely.
func (b *Builder) enrich(ctx context.Context) ([]quotes.CurrencyRate, []quotes.StockPrice) {
	rates, prices := []quotes.CurrencyRate{}, []quotes.StockPrice{}
	if b.quotes == nil || b.settings == nil {
		return rates, prices
	}
	st := b.settings.Load()
	if len(st.UserCurrencies) > 0 {
		if r := b.quotes.CurrencyRates(ctx, st.UserCurrencies); r != nil {
			rates = r
		}
	}
	if len(st.UserStocks) > 0 {
		if p := b.quotes.StockPrices(ctx, st.UserStocks); p != nil {
			prices = p
		}
	}
	return rates, prices
}

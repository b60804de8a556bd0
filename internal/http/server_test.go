package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finview/internal/core"
	"finview/internal/log"
	"finview/internal/reports"
	"finview/internal/services"
	"finview/internal/sources"
	"finview/internal/sources/memory"
	"finview/internal/storage"
	"finview/internal/views"
)

func tx(day, hour int, card, category, description, amount, cashback string) core.Transaction {
	return core.Transaction{
		OperationDate: time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC),
		CardNumber:    card,
		Status:        core.StatusOK,
		Amount:        decimal.RequireFromString(amount),
		Cashback:      decimal.RequireFromString(cashback),
		Category:      category,
		Description:   description,
	}
}

func testRows() []core.Transaction {
	return []core.Transaction{
		tx(1, 9, "*7197", "Супермаркеты", "Лента", "-1000", "10"),
		tx(10, 9, "*7197", "Переводы", "Иван П.", "-5000", "0"),
		tx(14, 9, "*5091", "Фастфуд", "Burger King", "-250.75", "0"),
		tx(15, 23, "*5091", "Зарплата", "Зарплата", "60000", "0"),
	}
}

func fixedNow() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Loader == nil {
		deps.Loader = memory.New(testRows()...)
	}
	if deps.Now == nil {
		deps.Now = fixedNow
	}
	s := NewServer(":0", deps, log.Discard())
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Deps{})
	if rec := do(s, http.MethodGet, "/healthz"); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	if rec := do(s, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rec.Code)
	}

	empty := newTestServer(t, Deps{Loader: memory.New()})
	if rec := do(empty, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz on empty dataset: %d", rec.Code)
	}
}

func TestHome(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := do(s, http.MethodGet, "/api/home")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" || rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("missing CORS or request id headers: %v", rec.Header())
	}
	if !strings.Contains(rec.Body.String(), "Доброе утро") {
		t.Fatalf("body must carry raw UTF-8: %s", rec.Body.String())
	}

	res := decode[views.HomeResponse](t, rec)
	if res.Greeting != "Доброе утро" {
		t.Fatalf("greeting must follow the current hour, got %q", res.Greeting)
	}
	if len(res.Cards) != 2 || res.Cards[0].TotalSpent != 6000 || res.Cards[1].TotalSpent != 250.75 {
		t.Fatalf("unexpected cards %+v", res.Cards)
	}
	if len(res.TopTransactions) != 4 || res.TopTransactions[0].Amount != 60000 {
		t.Fatalf("unexpected top transactions %+v", res.TopTransactions)
	}
	if res.CurrencyRates == nil || res.StockPrices == nil {
		t.Fatal("quote lists must be present even when empty")
	}
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, Deps{})
	cases := []struct {
		target string
		total  int64
	}{
		{"/api/events", 6250},
		{"/api/events/m", 6250},
		{"/api/events/w", 5250},
		{"/api/events?card=5091", 250},
		{"/api/events/Y?start_date=2024-03-10&end_date=2024-03-16", 5250},
		{"/api/events/Q", 0},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := do(s, http.MethodGet, tc.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status %d", rec.Code)
			}
			res := decode[views.EventsResponse](t, rec)
			if int64(res.Expenses.TotalAmount) != tc.total {
				t.Fatalf("got total %d, want %d", res.Expenses.TotalAmount, tc.total)
			}
		})
	}
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) (core.Dataset, error) {
	return core.Dataset{}, errors.New("disk on fire")
}

func TestLoadFailures(t *testing.T) {
	cases := map[string]struct {
		loader sources.Loader
		want   string
	}{
		"error": {failingLoader{}, "failed to load transactions"},
		"empty": {memory.New(), "no transactions available"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, Deps{Loader: tc.loader})
			for _, target := range []string{"/api/home", "/api/events/M", "/api/search?q=x"} {
				rec := do(s, http.MethodGet, target)
				if rec.Code != http.StatusInternalServerError {
					t.Fatalf("%s: unexpected status %d", target, rec.Code)
				}
				if body := decode[ErrorBody](t, rec); body.Error != tc.want {
					t.Fatalf("%s: unexpected error %q", target, body.Error)
				}
			}
		})
	}
}

func TestSearchEndpoints(t *testing.T) {
	s := newTestServer(t, Deps{})

	res := decode[services.QueryResult](t, do(s, http.MethodGet, "/api/search?q=%D0%BB%D0%B5%D0%BD%D1%82%D0%B0"))
	if res.Query != "лента" || len(res.Transactions) != 1 || res.Transactions[0].Description != "Лента" {
		t.Fatalf("unexpected search result %+v", res)
	}

	transfers := decode[services.Result](t, do(s, http.MethodGet, "/api/search/transfers"))
	if len(transfers.Transactions) != 1 || transfers.Transactions[0].Description != "Иван П." {
		t.Fatalf("unexpected transfers %+v", transfers)
	}

	phones := decode[services.Result](t, do(s, http.MethodGet, "/api/search/phones"))
	if phones.Transactions == nil || len(phones.Transactions) != 0 {
		t.Fatalf("expected an empty list, got %+v", phones)
	}
}

func TestCashbackAndInvestment(t *testing.T) {
	s := newTestServer(t, Deps{})

	cb := decode[CashbackResponse](t, do(s, http.MethodGet, "/api/cashback"))
	if cb.Year != 2024 || cb.Month != 3 || cb.Cashback["Супермаркеты"] != 10 {
		t.Fatalf("unexpected cashback %+v", cb)
	}
	cb = decode[CashbackResponse](t, do(s, http.MethodGet, "/api/cashback?year=2023&month=1"))
	if len(cb.Cashback) != 0 {
		t.Fatalf("expected no cashback for january 2023, got %+v", cb)
	}

	inv := decode[InvestmentResponse](t, do(s, http.MethodGet, "/api/investment"))
	if inv.Month != "2024-03" || inv.Limit != 50 || inv.Amount != 49.25 {
		t.Fatalf("unexpected investment %+v", inv)
	}
	inv = decode[InvestmentResponse](t, do(s, http.MethodGet, "/api/investment?month=2024-03&limit=100"))
	if inv.Amount != 49.25 {
		t.Fatalf("unexpected investment with limit 100 %+v", inv)
	}
	if rec := do(s, http.MethodGet, "/api/investment?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid limit: unexpected status %d", rec.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	dir := t.TempDir()
	svc := reports.NewService(reports.NewSaver(dir, nil, log.Discard()), log.Discard())
	s := newTestServer(t, Deps{Reports: svc})

	if rec := do(s, http.MethodGet, "/api/reports/category"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing category: unexpected status %d", rec.Code)
	}

	rows := decode[[]reports.CategoryMonth](t, do(s, http.MethodGet, "/api/reports/category?category=%D0%A1%D1%83%D0%BF%D0%B5%D1%80%D0%BC%D0%B0%D1%80%D0%BA%D0%B5%D1%82%D1%8B"))
	if len(rows) != 1 || rows[0].Month != "2024-03" || rows[0].Spent != 1000 {
		t.Fatalf("unexpected category report %+v", rows)
	}

	for _, target := range []string{"/api/reports/weekday", "/api/reports/workday?date=2024-03-15"} {
		if rec := do(s, http.MethodGet, target); rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "[") {
			t.Fatalf("%s: %d %s", target, rec.Code, rec.Body.String())
		}
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("expected three saved reports, got %d", len(files))
	}
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			t.Fatalf("unexpected report file %s", f.Name())
		}
	}
}

func TestPreflightAndUnknownMethod(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := do(s, http.MethodOptions, "/api/home")
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("unexpected preflight response %d %v", rec.Code, rec.Header())
	}
	if rec := do(s, http.MethodPost, "/api/home"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status for POST %d", rec.Code)
	}
}

func TestPageRateLimit(t *testing.T) {
	s := newTestServer(t, Deps{RequestsPerMinute: 2})
	for i := 0; i < 2; i++ {
		if rec := do(s, http.MethodGet, "/api/events"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: unexpected status %d", i, rec.Code)
		}
	}
	rec := do(s, http.MethodGet, "/api/home")
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected rate limiting, got %d", rec.Code)
	}
	// Non-page endpoints are not limited.
	if rec := do(s, http.MethodGet, "/api/search/phones"); rec.Code != http.StatusOK {
		t.Fatalf("search must not be rate limited, got %d", rec.Code)
	}
	if s.metrics.rateLimitHits != 1 {
		t.Fatalf("expected one rate limit hit, got %d", s.metrics.rateLimitHits)
	}
}

type countingLoader struct {
	calls int32
	next  sources.Loader
}

func (c *countingLoader) Load(ctx context.Context) (core.Dataset, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.next.Load(ctx)
}

func TestDatasetCache(t *testing.T) {
	cached := &countingLoader{next: memory.New(testRows()...)}
	s := newTestServer(t, Deps{Loader: cached})
	do(s, http.MethodGet, "/api/search?q=a")
	do(s, http.MethodGet, "/api/search/phones")
	if cached.calls != 1 {
		t.Fatalf("expected one load, got %d", cached.calls)
	}
	if len(s.Caches()) != 1 {
		t.Fatal("dataset cache must be exposed for cleanup")
	}

	uncached := &countingLoader{next: memory.New(testRows()...)}
	s = newTestServer(t, Deps{Loader: uncached, DatasetTTL: -1})
	do(s, http.MethodGet, "/api/search?q=a")
	do(s, http.MethodGet, "/api/search/phones")
	if uncached.calls != 2 {
		t.Fatalf("expected two loads without caching, got %d", uncached.calls)
	}
	if s.Caches() != nil {
		t.Fatal("no cache expected when caching is disabled")
	}
}

func TestReadyWithLedger(t *testing.T) {
	ledger, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"), log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Import(context.Background(), "test", core.NewDataset(testRows())); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, Deps{Loader: ledger, DatasetTTL: -1})
	if rec := do(s, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz: %d %s", rec.Code, rec.Body.String())
	}

	if err := ledger.Close(); err != nil {
		t.Fatal(err)
	}
	rec := do(s, http.MethodGet, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz on closed ledger: %d", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); body.Error != "transaction store unreachable" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

package quotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"finview/internal/log"
)

func TestCurrencyRates_KeyedEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("access_key") != "secret" || r.URL.Query().Get("symbols") != "USD,EUR" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"rates": {"USD": 92.5, "EUR": 100.1, "GBP": 117}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "secret", CurrencyURL: srv.URL}, log.Discard())
	got := c.CurrencyRates(context.Background(), []string{"USD", " EUR ", ""})
	want := []CurrencyRate{{Currency: "USD", Rate: 92.5}, {Currency: "EUR", Rate: 100.1}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCurrencyRates_KeylessConversionRates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/RUB" || r.URL.RawQuery != "" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"conversion_rates": {"USD": 0.011}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{CurrencyURL: srv.URL + "/", KeylessRates: true}, log.Discard())
	got := c.CurrencyRates(context.Background(), []string{"USD", "JPY"})
	if !slices.Equal(got, []CurrencyRate{{Currency: "USD", Rate: 0.011}}) {
		t.Fatalf("unexpected rates %+v", got)
	}
}

func TestCurrencyRates_Failures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("symbols") {
		case "ERR":
			w.WriteHeader(http.StatusInternalServerError)
		case "BAD":
			w.Write([]byte(`not json`))
		default:
			w.Write([]byte(`{"result": "ok"}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	noKey := NewClient(Config{CurrencyURL: srv.URL}, log.Discard())
	if got := noKey.CurrencyRates(ctx, []string{"USD"}); got == nil || len(got) != 0 {
		t.Fatalf("missing key must give an empty result, got %#v", got)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatal("no request should be made without a key")
	}

	c := NewClient(Config{APIKey: "k", CurrencyURL: srv.URL}, log.Discard())
	for _, sym := range []string{"ERR", "BAD", "NONE"} {
		if got := c.CurrencyRates(ctx, []string{sym}); got == nil || len(got) != 0 {
			t.Fatalf("%s: expected empty result, got %#v", sym, got)
		}
	}
	if got := c.CurrencyRates(ctx, nil); got == nil || len(got) != 0 {
		t.Fatalf("no symbols must give an empty result, got %#v", got)
	}
}

func TestStockPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("function") != "GLOBAL_QUOTE" || q.Get("apikey") != "k" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		switch q.Get("symbol") {
		case "AAPL":
			w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "150.1200"}}`))
		case "AMZN":
			w.Write([]byte(`{"Global Quote": {"01. symbol": "AMZN", "05. price": "3173.18"}}`))
		case "LIMIT":
			w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage! apikey=k"}`))
		case "BAD":
			w.Write([]byte(`{"Error Message": "Invalid API call."}`))
		default:
			w.Write([]byte(`{"Global Quote": {}}`))
		}
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", StockURL: srv.URL, StockDelay: time.Millisecond}, log.Discard())
	got := c.StockPrices(context.Background(), []string{"AAPL", "LIMIT", "BAD", "NOPE", "AMZN"})
	want := []StockPrice{{Stock: "AAPL", Price: 150.12}, {Stock: "AMZN", Price: 3173.18}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	noKey := NewClient(Config{StockURL: srv.URL}, log.Discard())
	if got := noKey.StockPrices(context.Background(), []string{"AAPL"}); got == nil || len(got) != 0 {
		t.Fatalf("missing key must give an empty result, got %#v", got)
	}
}

func TestStockPrices_StopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Global Quote": {"05. price": "1"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(Config{APIKey: "k", StockURL: srv.URL, StockDelay: time.Hour}, log.Discard())
	done := make(chan []StockPrice)
	go func() { done <- c.StockPrices(ctx, []string{"A", "B"}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case got := <-done:
		if len(got) != 1 {
			t.Fatalf("expected the first quote only, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("StockPrices did not honour cancellation")
	}
}

type countingProvider struct {
	rates, stocks int32
	empty         bool
}

func (p *countingProvider) CurrencyRates(context.Context, []string) []CurrencyRate {
	atomic.AddInt32(&p.rates, 1)
	if p.empty {
		return []CurrencyRate{}
	}
	return []CurrencyRate{{Currency: "USD", Rate: 90}}
}

func (p *countingProvider) StockPrices(context.Context, []string) []StockPrice {
	atomic.AddInt32(&p.stocks, 1)
	return []StockPrice{{Stock: "AAPL", Price: 150}}
}

func TestCachedProvider(t *testing.T) {
	next := &countingProvider{}
	p := NewCachedProvider(next, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p.CurrencyRates(ctx, []string{"USD"})
		p.StockPrices(ctx, []string{"AAPL"})
	}
	if next.rates != 1 || next.stocks != 1 {
		t.Fatalf("expected one upstream call each, got %d/%d", next.rates, next.stocks)
	}

	got := p.CurrencyRates(ctx, []string{"USD"})
	got[0].Rate = 0
	if again := p.CurrencyRates(ctx, []string{"USD"}); again[0].Rate != 90 {
		t.Fatal("cached slices must not be shared with callers")
	}

	p.CurrencyRates(ctx, []string{"USD", "EUR"})
	if next.rates != 2 {
		t.Fatalf("a different symbol set must miss the cache, got %d calls", next.rates)
	}
	if len(p.Caches()) != 2 {
		t.Fatal("expected both caches to be exposed")
	}
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	next := &countingProvider{empty: true}
	p := NewCachedProvider(next, 8, time.Minute)
	p.CurrencyRates(context.Background(), []string{"USD"})
	p.CurrencyRates(context.Background(), []string{"USD"})
	if next.rates != 2 {
		t.Fatalf("empty results must not be cached, got %d calls", next.rates)
	}
}

type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	calls   int32
}

func (p *gatedProvider) CurrencyRates(ctx context.Context, _ []string) []CurrencyRate {
	if atomic.AddInt32(&p.calls, 1) == 1 {
		close(p.started)
	}
	select {
	case <-p.release:
		return []CurrencyRate{{Currency: "USD", Rate: 90}}
	case <-ctx.Done():
		return []CurrencyRate{}
	}
}

func (p *gatedProvider) StockPrices(context.Context, []string) []StockPrice {
	return []StockPrice{}
}

func TestCachedProvider_SharedLookupSurvivesCallerCancel(t *testing.T) {
	next := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	p := NewCachedProvider(next, 8, time.Minute)

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan []CurrencyRate, 1)
	go func() { firstDone <- p.CurrencyRates(first, []string{"USD"}) }()
	<-next.started

	secondDone := make(chan []CurrencyRate, 1)
	go func() { secondDone <- p.CurrencyRates(context.Background(), []string{"USD"}) }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case got := <-firstDone:
		if got == nil || len(got) != 0 {
			t.Fatalf("a cancelled caller must get an empty result, got %#v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(next.release)
	select {
	case got := <-secondDone:
		if len(got) != 1 || got[0].Currency != "USD" {
			t.Fatalf("the other caller must still get rates, got %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("shared lookup never finished")
	}
	if again := p.CurrencyRates(context.Background(), []string{"USD"}); len(again) != 1 {
		t.Fatalf("the shared result must be cached, got %+v", again)
	}
}

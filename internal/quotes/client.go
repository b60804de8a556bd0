// Package quotes fetches currency exchange rates and stock prices from
// external HTTP APIs.
//
// Providers never fail: any transport, status or decoding problem is logged
// and the affected symbols are left out of the result.
package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finview/internal/log"
)

const (
	DefaultCurrencyURL = "https://api.exchangerate-api.com/v4"
	DefaultStockURL    = "https://www.alphavantage.co/query"
	DefaultTimeout     = 10 * time.Second
	DefaultStockDelay  = 200 * time.Millisecond

	// BaseCurrency is the base of keyless exchangerate-api lookups.
	BaseCurrency = "RUB"
)

// ErrExternalService wraps every failure of an upstream quote API.
var ErrExternalService = errors.New("external service error")

type (
	CurrencyRate struct {
		Currency string  `json:"currency"`
		Rate     float64 `json:"rate"`
	}

	StockPrice struct {
		Stock string  `json:"stock"`
		Price float64 `json:"price"`
	}

	// Provider returns quotes for the requested symbols, in request order.
	// Symbols that cannot be resolved are omitted; a total failure yields an
	// empty slice.
	Provider interface {
		CurrencyRates(ctx context.Context, symbols []string) []CurrencyRate
		StockPrices(ctx context.Context, symbols []string) []StockPrice
	}

	Config struct {
		APIKey      string
		CurrencyURL string
		StockURL    string
		Timeout     time.Duration
		StockDelay  time.Duration
		// KeylessRates forces the keyless /latest/{base} endpoint. It is
		// implied for exchangerate-api.com URLs.
		KeylessRates bool
	}

	// Client queries exchangerate-api style endpoints for currencies and
	// Alpha Vantage GLOBAL_QUOTE for stocks.
	Client struct {
		cfg     Config
		keyless bool
		http    *http.Client
		log     *log.Logger
	}

	ratesResponse struct {
		Rates           map[string]float64 `json:"rates"`
		ConversionRates map[string]float64 `json:"conversion_rates"`
	}

	globalQuoteResponse struct {
		GlobalQuote  map[string]string `json:"Global Quote"`
		ErrorMessage string            `json:"Error Message"`
		Note         string            `json:"Note"`
		Information  string            `json:"Information"`
	}
)

// NewClient creates a quote client. Zero config values fall back to the
// package defaults.
func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.CurrencyURL == "" {
		cfg.CurrencyURL = DefaultCurrencyURL
	}
	if cfg.StockURL == "" {
		cfg.StockURL = DefaultStockURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StockDelay < 0 {
		cfg.StockDelay = 0
	}
	if logger == nil {
		logger = log.Discard()
	}
	cfg.CurrencyURL = strings.TrimRight(cfg.CurrencyURL, "/")
	return &Client{
		cfg:     cfg,
		keyless: cfg.KeylessRates || strings.Contains(cfg.CurrencyURL, "exchangerate-api.com"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     logger.WithComponent(log.ComponentQuotes),
	}
}

// CurrencyRates implements Provider.
func (c *Client) CurrencyRates(ctx context.Context, symbols []string) []CurrencyRate {
	symbols = cleanSymbols(symbols)
	if len(symbols) == 0 {
		return []CurrencyRate{}
	}
	rates, err := c.fetchRates(ctx, symbols)
	if err != nil {
		c.log.ErrorContext(ctx, "Currency rates unavailable",
			log.FieldOperation, log.OpFetch,
			log.FieldSymbols, strings.Join(symbols, ","),
			log.FieldError, err)
		return []CurrencyRate{}
	}
	return rates
}

func (c *Client) fetchRates(ctx context.Context, symbols []string) ([]CurrencyRate, error) {
	var endpoint string
	if c.keyless {
		endpoint = c.cfg.CurrencyURL + "/latest/" + BaseCurrency
	} else {
		if c.cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: API key is not configured", ErrExternalService)
		}
		q := url.Values{}
		q.Set("access_key", c.cfg.APIKey)
		q.Set("symbols", strings.Join(symbols, ","))
		endpoint = c.cfg.CurrencyURL + "/latest?" + q.Encode()
	}

	var body ratesResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	table := body.Rates
	if table == nil {
		table = body.ConversionRates
	}
	if table == nil {
		return nil, fmt.Errorf("%w: response has no rates", ErrExternalService)
	}

	out := make([]CurrencyRate, 0, len(symbols))
	for _, s := range symbols {
		rate, ok := table[s]
		if !ok {
			c.log.WarnContext(ctx, "Currency not found in response", log.FieldSymbols, s)
			continue
		}
		out = append(out, CurrencyRate{Currency: s, Rate: rate})
	}
	return out, nil
}

// StockPrices implements Provider. Each symbol is a separate request, spaced
// by the configured delay.
func (c *Client) StockPrices(ctx context.Context, symbols []string) []StockPrice {
	symbols = cleanSymbols(symbols)
	out := []StockPrice{}
	if len(symbols) == 0 {
		return out
	}
	if c.cfg.APIKey == "" {
		c.log.ErrorContext(ctx, "Stock prices unavailable",
			log.FieldOperation, log.OpFetch,
			log.FieldError, fmt.Errorf("%w: API key is not configured", ErrExternalService))
		return out
	}

	for i, s := range symbols {
		if i > 0 && c.cfg.StockDelay > 0 {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(c.cfg.StockDelay):
			}
		}
		price, err := c.fetchStock(ctx, s)
		if err != nil {
			c.log.WarnContext(ctx, "Stock price unavailable",
				log.FieldSymbols, s,
				log.FieldError, err)
			continue
		}
		out = append(out, StockPrice{Stock: s, Price: price})
	}
	return out
}

func (c *Client) fetchStock(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", c.cfg.APIKey)

	var body globalQuoteResponse
	if err := c.getJSON(ctx, c.cfg.StockURL+"?"+q.Encode(), &body); err != nil {
		return 0, err
	}
	switch {
	case len(body.GlobalQuote) > 0:
		raw := body.GlobalQuote["05. price"]
		if raw == "" {
			return 0, fmt.Errorf("%w: quote has no price", ErrExternalService)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid price %q", ErrExternalService, raw)
		}
		return price, nil
	case body.ErrorMessage != "":
		return 0, fmt.Errorf("%w: %s", ErrExternalService, body.ErrorMessage)
	case body.Note != "" || body.Information != "":
		// The note echoes the API key; keep it out of the logs.
		return 0, fmt.Errorf("%w: request limit reached", ErrExternalService)
	default:
		return 0, fmt.Errorf("%w: empty quote", ErrExternalService)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrExternalService, redact(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalService, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrExternalService, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrExternalService, err)
	}
	return nil
}

// redact strips the request URL, which carries the API key, from transport
// errors.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

func cleanSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

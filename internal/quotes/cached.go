package quotes

import (
	"context"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"finview/internal/cache"
)

// sharedFetchTimeout bounds one upstream lookup shared by concurrent callers.
const sharedFetchTimeout = time.Minute

// CachedProvider memoizes successful lookups per symbol set and collapses
// concurrent identical requests into one upstream call. Empty results are
// not cached so a failed lookup is retried on the next call.
type CachedProvider struct {
	next   Provider
	rates  *cache.LRUCache[[]CurrencyRate]
	stocks *cache.LRUCache[[]StockPrice]
	group  singleflight.Group
}

func NewCachedProvider(next Provider, size int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:   next,
		rates:  cache.NewLRUCache[[]CurrencyRate](size, ttl),
		stocks: cache.NewLRUCache[[]StockPrice](size, ttl),
	}
}

// Caches exposes the underlying caches for periodic cleanup.
func (p *CachedProvider) Caches() []cache.Cleaner {
	return []cache.Cleaner{p.rates, p.stocks}
}

func (p *CachedProvider) CurrencyRates(ctx context.Context, symbols []string) []CurrencyRate {
	key := "rates:" + strings.Join(symbols, ",")
	if v, ok := p.rates.Get(key); ok {
		return slices.Clone(v)
	}
	v, ok := p.shared(ctx, key, func(fctx context.Context) any {
		r := p.next.CurrencyRates(fctx, symbols)
		if len(r) > 0 {
			p.rates.Set(key, r)
		}
		return r
	})
	if !ok {
		return []CurrencyRate{}
	}
	return slices.Clone(v.([]CurrencyRate))
}

func (p *CachedProvider) StockPrices(ctx context.Context, symbols []string) []StockPrice {
	key := "stocks:" + strings.Join(symbols, ",")
	if v, ok := p.stocks.Get(key); ok {
		return slices.Clone(v)
	}
	v, ok := p.shared(ctx, key, func(fctx context.Context) any {
		r := p.next.StockPrices(fctx, symbols)
		if len(r) > 0 {
			p.stocks.Set(key, r)
		}
		return r
	})
	if !ok {
		return []StockPrice{}
	}
	return slices.Clone(v.([]StockPrice))
}

// shared runs fetch once for every concurrent caller of key. The fetch is
// detached from any single caller's cancellation and bounded by
// sharedFetchTimeout instead; a caller whose ctx ends stops waiting and
// reports false.
func (p *CachedProvider) shared(ctx context.Context, key string, fetch func(context.Context) any) (any, bool) {
	ch := p.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fetch(fctx), nil
	})
	select {
	case res := <-ch:
		return res.Val, true
	case <-ctx.Done():
		return nil, false
	}
}

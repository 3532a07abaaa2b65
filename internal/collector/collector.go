package collector

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"CryptoBreadth/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string][]model.Kline
	Info   []model.SymbolInfo
	Errs   map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyKlines(_ context.Context, symbol string, limit int) ([]model.Kline, error) {
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	klines, ok := m.Series[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no data for %s", symbol)
	}
	if len(klines) > limit {
		klines = klines[len(klines)-limit:]
	}
	return klines, nil
}

func (m *MockFetcher) FetchExchangeInfo(_ context.Context) ([]model.SymbolInfo, error) {
	return m.Info, nil
}

// GenerateKlines builds count daily bars ending today, drifting
// around basePrice; useful for tests and local runs.
func GenerateKlines(basePrice float64, count int) []model.Kline {
	klines := make([]model.Kline, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		klines[i] = model.Kline{
			OpenTime: time.Now().UTC().AddDate(0, 0, -(count - i)),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000000,
		}
	}
	return klines
}

// Collector fetches price history for a whole universe of symbols.
type Collector struct {
	Fetcher     Fetcher
	Concurrency int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, concurrency int) *Collector {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Collector{Fetcher: fetcher, Concurrency: concurrency}
}

// Collect fetches daily history for every symbol with a bounded worker
// pool. A symbol whose fetch fails is logged and skipped; the returned
// series keep the universe order. Collect fails only when no symbol
// could be fetched at all.
func (c *Collector) Collect(ctx context.Context, symbols []string, limit int) ([]model.PriceSeries, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("empty universe")
	}

	results := make([]*model.PriceSeries, len(symbols))
	var mu sync.Mutex
	var failed []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Concurrency)

	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			klines, err := c.Fetcher.FetchDailyKlines(ctx, sym, limit)
			if err != nil {
				log.Printf("[WARN] fetch %s: %v, skipping symbol", sym, err)
				mu.Lock()
				failed = append(failed, sym)
				mu.Unlock()
				return nil
			}
			results[i] = &model.PriceSeries{
				Symbol:    sym,
				Klines:    klines,
				FetchedAt: time.Now().UTC(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make([]model.PriceSeries, 0, len(symbols))
	for _, r := range results {
		if r != nil {
			series = append(series, *r)
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("all %d symbols failed to fetch", len(symbols))
	}
	if len(failed) > 0 {
		log.Printf("[WARN] %d/%d symbols skipped: %v", len(failed), len(symbols), failed)
	}
	return series, nil
}

// DiscoverUniverse builds the symbol list from exchange metadata:
// spot-tradable TRADING pairs quoted in quote, excluding stablecoin
// base assets. The result is sorted for deterministic ordering.
func (c *Collector) DiscoverUniverse(ctx context.Context, quote string, stablecoins []string) ([]string, error) {
	info, err := c.Fetcher.FetchExchangeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange info: %w", err)
	}
	stable := make(map[string]bool, len(stablecoins))
	for _, s := range stablecoins {
		stable[s] = true
	}
	var symbols []string
	for _, s := range info {
		if s.Status != "TRADING" || !s.SpotTradingAllowed {
			continue
		}
		if s.QuoteAsset != quote || stable[s.BaseAsset] {
			continue
		}
		symbols = append(symbols, s.Symbol)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("universe discovery returned no symbols for quote %s", quote)
	}
	sort.Strings(symbols)
	return symbols, nil
}

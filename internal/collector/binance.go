package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"CryptoBreadth/internal/model"
)

// BinanceFetcher implements Fetcher against the Binance spot REST API.
// It tries each base URL in order (the CDN mirror first, then the main
// API) and shares a rate limiter across all requests.
type BinanceFetcher struct {
	BaseURLs []string
	APIKey   string
	Client   *http.Client
	Limiter  *rate.Limiter

	maxTries int
	pause    time.Duration
}

// NewBinanceFetcher creates a fetcher with optional proxy support.
// rps is the shared request budget in requests per second.
func NewBinanceFetcher(baseURLs []string, apiKey, proxyURL string, rps float64) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if rps <= 0 {
		rps = 10
	}
	return &BinanceFetcher{
		BaseURLs: baseURLs,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		Limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		maxTries: 3,
		pause:    2 * time.Second,
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// getJSON fetches path from the first base URL that returns a JSON
// 2xx response, retrying each base a few times. Rate-limit pages come
// back as HTML with status 200, so the content type is checked too.
func (f *BinanceFetcher) getJSON(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for _, base := range f.BaseURLs {
		endpoint := base + path
		for attempt := 1; attempt <= f.maxTries; attempt++ {
			if err := f.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
			body, err := f.getOnce(ctx, endpoint)
			if err == nil {
				return body, nil
			}
			lastErr = err
			log.Printf("[WARN] %s (attempt %d/%d via %s)", err, attempt, f.maxTries, base)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.pause):
			}
		}
	}
	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func (f *BinanceFetcher) getOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("binance read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return nil, fmt.Errorf("binance: non-JSON response (%s)", ct)
	}
	return body, nil
}

// FetchDailyKlines returns up to limit most recent daily bars for the
// symbol, ascending by open time. Binance caps limit at 1000 per call.
func (f *BinanceFetcher) FetchDailyKlines(ctx context.Context, symbol string, limit int) ([]model.Kline, error) {
	if limit > 1000 {
		limit = 1000
	}
	path := fmt.Sprintf("/api/v3/klines?symbol=%s&interval=1d&limit=%d", url.QueryEscape(symbol), limit)
	body, err := f.getJSON(ctx, path)
	if err != nil {
		return nil, err
	}

	// Each kline comes back as a mixed array:
	// [openTime, open, high, low, close, volume, closeTime, ...]
	// with prices encoded as strings.
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("binance decode klines for %s: %w", symbol, err)
	}

	klines := make([]model.Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			return nil, fmt.Errorf("binance: short kline row for %s", symbol)
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, fmt.Errorf("binance decode open time for %s: %w", symbol, err)
		}
		vals := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			var s string
			if err := json.Unmarshal(row[i], &s); err != nil {
				return nil, fmt.Errorf("binance decode kline field for %s: %w", symbol, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("binance parse kline value for %s: %w", symbol, err)
			}
			vals[i-1] = v
		}
		klines = append(klines, model.Kline{
			OpenTime: time.UnixMilli(openTime).UTC(),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}

	sort.Slice(klines, func(i, j int) bool { return klines[i].OpenTime.Before(klines[j].OpenTime) })
	return klines, nil
}

// exchangeInfo is the response subset from /api/v3/exchangeInfo.
type exchangeInfo struct {
	Symbols []struct {
		Symbol               string `json:"symbol"`
		Status               string `json:"status"`
		BaseAsset            string `json:"baseAsset"`
		QuoteAsset           string `json:"quoteAsset"`
		IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
	} `json:"symbols"`
}

// FetchExchangeInfo returns metadata for all listed symbols.
func (f *BinanceFetcher) FetchExchangeInfo(ctx context.Context) ([]model.SymbolInfo, error) {
	body, err := f.getJSON(ctx, "/api/v3/exchangeInfo")
	if err != nil {
		return nil, err
	}
	var info exchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance decode exchange info: %w", err)
	}
	if len(info.Symbols) == 0 {
		return nil, fmt.Errorf("binance: empty exchange info")
	}
	symbols := make([]model.SymbolInfo, len(info.Symbols))
	for i, s := range info.Symbols {
		symbols[i] = model.SymbolInfo{
			Symbol:             s.Symbol,
			BaseAsset:          s.BaseAsset,
			QuoteAsset:         s.QuoteAsset,
			Status:             s.Status,
			SpotTradingAllowed: s.IsSpotTradingAllowed,
		}
	}
	return symbols, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

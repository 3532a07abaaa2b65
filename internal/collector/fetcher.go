package collector

import (
	"context"

	"CryptoBreadth/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchDailyKlines(ctx context.Context, symbol string, limit int) ([]model.Kline, error)
	FetchExchangeInfo(ctx context.Context) ([]model.SymbolInfo, error)
	Name() string
}

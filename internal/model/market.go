package model

import "time"

// Kline represents a single daily candlestick bar.
type Kline struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// PriceSeries holds the fetched daily history for one symbol.
// Klines are ordered ascending by open time.
type PriceSeries struct {
	Symbol    string
	Klines    []Kline
	FetchedAt time.Time
}

// Closes extracts the close prices in chronological order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Klines))
	for i, k := range s.Klines {
		closes[i] = k.Close
	}
	return closes
}

// SymbolInfo is the subset of exchange metadata used for universe discovery.
type SymbolInfo struct {
	Symbol             string
	BaseAsset          string
	QuoteAsset         string
	Status             string
	SpotTradingAllowed bool
}

package calculator

import "errors"

// ErrNotEnoughData is returned when a series is shorter than the
// requested moving-average period.
var ErrNotEnoughData = errors.New("not enough data for moving average")

// SMA computes the simple moving average of the most recent `period`
// prices, including the last (current) value.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average over the whole series
// with the given period, including the last (current) value. The first
// `period` prices seed the average with their SMA, then the standard
// recurrence ema = alpha*price + (1-alpha)*ema is applied.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, ErrNotEnoughData
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	ema := seed / float64(period)
	alpha := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
	}
	return ema, nil
}

// MovingAverage dispatches on maType ("sma" or "ema").
func MovingAverage(maType string, prices []float64, period int) (float64, error) {
	switch maType {
	case "sma":
		return SMA(prices, period)
	case "ema", "":
		return EMA(prices, period)
	default:
		return 0, errors.New("unknown ma type: " + maType)
	}
}

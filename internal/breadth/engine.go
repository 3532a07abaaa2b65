package breadth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"CryptoBreadth/internal/calculator"
	"CryptoBreadth/internal/model"
)

// Engine computes market breadth: the percentage of symbols whose
// latest close is strictly above their own moving average, evaluated
// per configured window length.
type Engine struct {
	Windows []int
	MAType  string // "sma" or "ema"
}

// NewEngine creates an Engine.
func NewEngine(windows []int, maType string) (*Engine, error) {
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no window lengths configured", ErrConfig)
	}
	for _, w := range windows {
		if w <= 0 {
			return nil, fmt.Errorf("%w: window length must be positive, got %d", ErrConfig, w)
		}
	}
	if maType != "sma" && maType != "ema" {
		return nil, fmt.Errorf("%w: unknown ma type %q", ErrConfig, maType)
	}
	return &Engine{Windows: windows, MAType: maType}, nil
}

// Compute evaluates every configured window over the fetched series.
// The moving average includes the latest close. A symbol with fewer
// closes than a window is excluded from that window only; a window
// with no eligible symbols yields no result. Date is taken from `now`
// in UTC.
func (e *Engine) Compute(series []model.PriceSeries, now time.Time) ([]model.WindowResult, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no price series to evaluate", ErrFetch)
	}
	date := now.UTC().Format("2006-01-02")

	results := make([]model.WindowResult, 0, len(e.Windows))
	for _, w := range e.Windows {
		res := model.WindowResult{Window: w}
		for i := range series {
			s := &series[i]
			closes := s.Closes()
			ma, err := calculator.MovingAverage(e.MAType, closes, w)
			if err != nil {
				if errors.Is(err, calculator.ErrNotEnoughData) {
					log.Printf("[WARN] %s: %v: %d closes < window %d, excluded",
						s.Symbol, ErrInsufficientHistory, len(closes), w)
					res.Skipped = append(res.Skipped, s.Symbol)
					continue
				}
				return nil, fmt.Errorf("%w: %s window %d: %v", ErrConfig, s.Symbol, w, err)
			}
			res.Eligible++
			if closes[len(closes)-1] > ma {
				res.Above++
			}
		}
		if res.Eligible == 0 {
			log.Printf("[WARN] window %d: no symbol has enough history, skipping", w)
			continue
		}
		res.Point = model.BreadthPoint{
			Date: date,
			Pct:  100 * float64(res.Above) / float64(res.Eligible),
		}
		results = append(results, res)
	}
	return results, nil
}

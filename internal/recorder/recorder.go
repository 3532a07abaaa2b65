package recorder

import "CryptoBreadth/internal/model"

// Recorder persists breadth time series.
type Recorder interface {
	// Upsert writes the point for its window, replacing any existing
	// row with the same date so re-runs for one day stay idempotent.
	Upsert(window int, point model.BreadthPoint) error
	Close() error
}

package model

// BreadthPoint is one persisted row of a breadth time series:
// the percentage of eligible symbols closing above their moving
// average on the given date.
type BreadthPoint struct {
	Date string // "2006-01-02", UTC
	Pct  float64
}

// WindowResult holds the outcome of one window's breadth calculation.
type WindowResult struct {
	Window   int
	Point    BreadthPoint
	Above    int
	Eligible int
	Skipped  []string // symbols excluded for insufficient history
}

package breadth

import "errors"

// Error classes surfaced by a run. Callers match with errors.Is.
var (
	// ErrConfig marks a bad or missing universe/window configuration.
	ErrConfig = errors.New("config error")
	// ErrFetch marks an unrecoverable data-provider failure.
	ErrFetch = errors.New("fetch error")
	// ErrInsufficientHistory marks a series shorter than a window.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrWrite marks a filesystem failure writing output.
	ErrWrite = errors.New("write error")
)

package recorder

import "CryptoBreadth/internal/model"

// NoopRecorder is a no-op implementation used when the SQLite mirror
// is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Upsert(_ int, _ model.BreadthPoint) error { return nil }
func (n *NoopRecorder) Close() error                             { return nil }

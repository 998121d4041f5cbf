package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(context.Context, *ForecastRun) error { return nil }
func (n *NoopRecorder) Recent(context.Context, string, int) ([]ForecastRun, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }

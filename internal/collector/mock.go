package collector

import (
	"context"
	"math"
	"sync"
	"time"

	"TickerCast/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Metas map[string]*model.AssetMeta
	// Err, when set, is returned from every call.
	Err error

	mu    sync.Mutex
	calls int
}

// Calls returns how many series fetches were made.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, symbol string, start, end time.Time, _ string) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	bars, ok := m.Bars[symbol]
	if !ok {
		return nil, &model.LookupError{Ticker: symbol, Source: m.Name()}
	}
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *MockFetcher) FetchMeta(_ context.Context, symbol string) (*model.AssetMeta, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	meta, ok := m.Metas[symbol]
	if !ok {
		return nil, &model.LookupError{Ticker: symbol, Source: m.Name()}
	}
	return meta, nil
}

// GenerateBars builds a synthetic daily series with a drift and a weekly
// cycle. Weekends are skipped unless everyDay is set.
func GenerateBars(start time.Time, days int, basePrice float64, everyDay bool) []model.OHLCV {
	bars := make([]model.OHLCV, 0, days)
	for i := 0; i < days; i++ {
		t := start.AddDate(0, 0, i)
		if !everyDay && (t.Weekday() == time.Saturday || t.Weekday() == time.Sunday) {
			continue
		}
		p := basePrice * (1 + 0.002*float64(i) + 0.01*math.Sin(2*math.Pi*float64(t.Weekday())/7))
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars
}

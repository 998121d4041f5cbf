package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"TickerCast/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchSeries returns bars in [start, end], oldest first.
	FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.OHLCV, error)
	// FetchMeta returns the provider's metadata record for symbol.
	FetchMeta(ctx context.Context, symbol string) (*model.AssetMeta, error)
	Name() string
}

// newHTTPClient builds a client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// dayOf truncates t to its calendar date in loc and returns that date as a
// zone-free (UTC) midnight.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wallClock keeps the wall-clock reading of t in loc and drops the zone.
func wallClock(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), 0, time.UTC)
}

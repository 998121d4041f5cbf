package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"TickerCast/internal/model"
)

// RESTFetcher implements Fetcher against a self-hosted bars service that
// exposes /api/v1/bars and /api/v1/meta.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restMeta struct {
	ShortName      string `json:"short_name"`
	LongName       string `json:"long_name"`
	InstrumentType string `json:"instrument_type"`
	Currency       string `json:"currency"`
	Exchange       string `json:"exchange"`
	Timezone       string `json:"timezone"`
}

func (f *RESTFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))

	var raw []restBar
	if err := f.get(ctx, symbol, "/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupe(bars), nil
}

func (f *RESTFetcher) FetchMeta(ctx context.Context, symbol string) (*model.AssetMeta, error) {
	var m restMeta
	if err := f.get(ctx, symbol, "/api/v1/meta?symbol="+url.QueryEscape(symbol), &m); err != nil {
		return nil, fmt.Errorf("fetch meta: %w", err)
	}
	return &model.AssetMeta{
		Symbol:         symbol,
		ShortName:      m.ShortName,
		LongName:       m.LongName,
		InstrumentType: m.InstrumentType,
		Currency:       m.Currency,
		Exchange:       m.Exchange,
		Timezone:       m.Timezone,
	}, nil
}

func (f *RESTFetcher) get(ctx context.Context, symbol, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return &model.LookupError{Ticker: symbol, Source: f.Name()}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

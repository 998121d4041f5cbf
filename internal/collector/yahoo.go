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

	"golang.org/x/time/rate"

	"TickerCast/internal/model"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	// Location is used for intraday wall-clock timestamps.
	Location *time.Location
	limiter  *rate.Limiter
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. requestsPerSecond <= 0
// disables pacing.
func NewYahooFetcher(proxyURL string, requestsPerSecond float64) *YahooFetcher {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	f := &YahooFetcher{
		BaseURL: defaultYahooBaseURL,
		Client:  newHTTPClient(proxyURL, 30*time.Second),
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"FB":     "META",
		},
		Location: loc,
	}
	if requestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ShortName            string `json:"shortName"`
				LongName             string `json:"longName"`
				InstrumentType       string `json:"instrumentType"`
				Currency             string `json:"currency"`
				ExchangeName         string `json:"exchangeName"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, params url.Values) (*yahooChart, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("yahoo rate limit: %w", err)
		}
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		strings.TrimRight(f.BaseURL, "/"), url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if resp.StatusCode == http.StatusNotFound || (decodeErr == nil && chart.Chart.Error != nil && chart.Chart.Error.Code == "Not Found") {
		reason := ""
		if decodeErr == nil && chart.Chart.Error != nil {
			reason = chart.Chart.Error.Description
		}
		return nil, &model.LookupError{Ticker: symbol, Source: f.Name(), Reason: reason}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, &model.LookupError{Ticker: symbol, Source: f.Name(), Reason: "empty result"}
	}
	return &chart, nil
}

// exchangeLocation resolves the exchange time zone from chart metadata.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}

// FetchSeries fetches bars between start and end inclusive. Daily bars are
// keyed by their exchange-local date; intraday bars keep the wall clock of
// f.Location.
func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.OHLCV, error) {
	if interval == "" {
		interval = "1d"
	}
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	params.Set("interval", interval)
	params.Set("events", "history")

	chart, err := f.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	exLoc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)
	daily := interval == "1d" || interval == "5d" || interval == "1wk" || interval == "1mo"

	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		var t time.Time
		if daily {
			t = dayOf(time.Unix(ts, 0), exLoc)
		} else {
			t = wallClock(time.Unix(ts, 0), f.Location)
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	bars = dedupe(bars)
	if daily {
		bars = clipDays(bars, start, end)
	}
	return bars, nil
}

// FetchMeta reads the metadata block of a one-day chart request.
func (f *YahooFetcher) FetchMeta(ctx context.Context, symbol string) (*model.AssetMeta, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")
	chart, err := f.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	m := chart.Chart.Result[0].Meta
	return &model.AssetMeta{
		Symbol:         symbol,
		ShortName:      m.ShortName,
		LongName:       m.LongName,
		InstrumentType: m.InstrumentType,
		Currency:       m.Currency,
		Exchange:       m.ExchangeName,
		Timezone:       m.ExchangeTimezoneName,
	}, nil
}

// dedupe keeps the last bar for each timestamp of a sorted slice.
func dedupe(bars []model.OHLCV) []model.OHLCV {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// clipDays drops daily bars dated outside [start, end].
func clipDays(bars []model.OHLCV, start, end time.Time) []model.OHLCV {
	lo := dayOf(start, start.Location())
	hi := dayOf(end, end.Location())
	out := bars[:0]
	for _, b := range bars {
		if b.Time.Before(lo) || b.Time.After(hi) {
			continue
		}
		out = append(out, b)
	}
	return out
}

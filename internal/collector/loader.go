package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"TickerCast/internal/metrics"
	"TickerCast/internal/model"
)

// Request selects a series to load.
type Request struct {
	Ticker   string
	Start    time.Time
	End      time.Time
	Interval string
	// ClassOverride replaces the metadata-derived classification when set.
	ClassOverride model.AssetClass
}

func (r Request) key(ticker string) string {
	return fmt.Sprintf("%s|%s|%s|%s", ticker, r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339), r.Interval)
}

// Loaded is a fetched series together with its resolved asset.
type Loaded struct {
	Series *model.PriceSeries
	Asset  model.Asset
	Meta   *model.AssetMeta
}

// Loader fetches series and metadata, memoising per request.
type Loader struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration

	group singleflight.Group
	now   func() time.Time
}

// NewLoader creates a Loader. A nil cache disables memoisation.
func NewLoader(fetcher Fetcher, cache Cache, ttl time.Duration) *Loader {
	if cache == nil {
		cache = NopCache{}
	}
	return &Loader{Fetcher: fetcher, Cache: cache, TTL: ttl, now: time.Now}
}

// Load returns the price series for req and the classified asset. Unknown
// tickers fail with an error matching model.ErrAssetNotFound.
func (l *Loader) Load(ctx context.Context, req Request) (*Loaded, error) {
	ticker, err := SanitizeTicker(req.Ticker)
	if err != nil {
		return nil, err
	}
	if req.Interval == "" {
		req.Interval = "1d"
	}
	if req.End.Before(req.Start) {
		return nil, fmt.Errorf("end %s before start %s: %w",
			req.End.Format(time.DateOnly), req.Start.Format(time.DateOnly), model.ErrInvalidRequest)
	}

	key := req.key(ticker)
	snap, hit, err := l.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("series cache read failed")
	}
	metrics.IncCache(hit)

	if !hit {
		// The shared fetch outlives any one caller; each caller still stops
		// waiting when its own ctx is done.
		ch := l.group.DoChan(key, func() (any, error) {
			fctx := context.WithoutCancel(ctx)
			s, err := l.fetch(fctx, ticker, req)
			if err != nil {
				return nil, err
			}
			if err := l.Cache.Set(fctx, key, s, l.TTL); err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("series cache write failed")
			}
			return s, nil
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				return nil, r.Err
			}
			snap = r.Val.(*Snapshot)
		}
	}

	series := &model.PriceSeries{
		Ticker:    ticker,
		Interval:  req.Interval,
		Bars:      snap.Bars,
		FetchedAt: snap.At,
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}
	return &Loaded{
		Series: series,
		Asset:  ResolveAsset(ticker, snap.Meta, req.ClassOverride),
		Meta:   snap.Meta,
	}, nil
}

func (l *Loader) fetch(ctx context.Context, ticker string, req Request) (*Snapshot, error) {
	meta, err := l.Fetcher.FetchMeta(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch meta: %w", err)
	}

	began := l.now()
	bars, err := l.Fetcher.FetchSeries(ctx, ticker, req.Start, req.End, req.Interval)
	metrics.ObserveFetch(l.Fetcher.Name(), l.now().Sub(began))
	if err != nil {
		return nil, fmt.Errorf("fetch series: %w", err)
	}
	if len(bars) == 0 {
		return nil, &model.LookupError{Ticker: ticker, Source: l.Fetcher.Name(), Reason: "no bars in range"}
	}
	log.Info().Str("ticker", ticker).Str("source", l.Fetcher.Name()).Int("bars", len(bars)).Msg("series fetched")
	return &Snapshot{Bars: bars, Meta: meta, At: l.now()}, nil
}

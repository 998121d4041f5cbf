package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"TickerCast/internal/collector"
	"TickerCast/internal/forecast"
	"TickerCast/internal/recorder"
	"TickerCast/internal/service"
)

// buildService wires the fetcher, cache, pipeline and recorder.
// The returned cleanup closes what was opened.
func buildService(ctx context.Context) (*service.Service, func()) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Msg("close")
			}
		}
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.RequestsPerSecond)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source")

	mem := collector.NewMemoryCache()
	var cache collector.Cache = mem
	if cfg.Cache.RedisAddr != "" {
		rc, err := collector.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.Prefix)
		if err != nil {
			log.Warn().Err(err).Msg("redis cache unavailable, using memory cache")
		} else {
			cache = rc
			closers = append(closers, rc.Close)
		}
	}
	if cache == mem {
		go sweep(ctx, mem, cfg.Cache.TTL)
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			closers = append(closers, sr.Close)
		}
	}

	loader := collector.NewLoader(fetcher, cache, cfg.Cache.TTL)
	return service.New(forecast.NewPipeline(loader), cfg, rec), cleanup
}

// sweep evicts expired memory cache entries until ctx is done.
func sweep(ctx context.Context, c *collector.MemoryCache, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Cleanup()
		}
	}
}

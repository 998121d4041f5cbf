package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TickerCast/internal/backtest"
	"TickerCast/internal/collector"
	"TickerCast/internal/config"
	"TickerCast/internal/forecast"
	"TickerCast/internal/model"
	"TickerCast/internal/recorder"
)

var start = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)

func newService(t *testing.T, rec recorder.Recorder) *Service {
	t.Helper()
	f := &collector.MockFetcher{
		Bars: map[string][]model.OHLCV{
			"BTC-USD": collector.GenerateBars(start, 400, 4000, true),
		},
		Metas: map[string]*model.AssetMeta{
			"BTC-USD": {Symbol: "BTC-USD", InstrumentType: "CRYPTOCURRENCY", ShortName: "Bitcoin USD"},
		},
	}
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Forecast.StartDate = "2019-01-01"

	s := New(forecast.NewPipeline(collector.NewLoader(f, nil, 0)), cfg, rec)
	s.Now = func() time.Time { return time.Date(2020, 2, 4, 15, 30, 0, 0, time.UTC) }
	return s
}

func TestService_Options(t *testing.T) {
	s := newService(t, nil)
	opts := s.Options("BTC-USD", 2)
	assert.Equal(t, 730, opts.Horizon)
	assert.Equal(t, time.Date(2020, 2, 4, 0, 0, 0, 0, time.UTC), opts.AsOf)
	assert.Equal(t, start, opts.Start)

	assert.Equal(t, 365, s.Options("BTC-USD", 0).Horizon)
}

func TestService_ForecastWithBacktestAndRecord(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer rec.Close()
	s := newService(t, rec)

	out, err := s.Forecast(context.Background(), Request{
		Options:  s.Options("BTC-USD", 1),
		Backtest: true,
		Record:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ModeMultiplicative, out.Result.Mode)
	assert.Equal(t, 365, len(out.Result.Future()))
	assert.Equal(t, out.Series.Bars[len(out.Series.Bars)-1].Open, out.LastPrice)
	require.NotEmpty(t, out.Performance)
	rmse, ok := out.MeanRMSE()
	require.True(t, ok)

	runs, err := s.History(context.Background(), "btc-usd", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].BacktestRMSE)
	assert.InDelta(t, rmse, *runs[0].BacktestRMSE, 1e-9)
	assert.Equal(t, 365, runs[0].Horizon)
}

func TestService_BacktestTooShort(t *testing.T) {
	s := newService(t, nil)
	opts := s.Options("BTC-USD", 1)
	opts.Start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Forecast(context.Background(), Request{Options: opts, Backtest: true, Window: backtest.DefaultWindow})
	assert.ErrorIs(t, err, model.ErrInsufficientHistory)
}

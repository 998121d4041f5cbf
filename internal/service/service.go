// Package service runs forecasts end to end for the CLI, dashboard and
// watcher: pipeline, optional backtest and recording.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"TickerCast/internal/backtest"
	"TickerCast/internal/calculator"
	"TickerCast/internal/collector"
	"TickerCast/internal/config"
	"TickerCast/internal/forecast"
	"TickerCast/internal/metrics"
	"TickerCast/internal/model"
	"TickerCast/internal/recorder"
)

// Request is one forecast request.
type Request struct {
	Options  model.ForecastOptions
	Backtest bool
	Window   backtest.Window
	Record   bool
}

// Outcome is a completed forecast with its optional backtest.
type Outcome struct {
	*forecast.Run
	Performance []backtest.Metrics
	Indicators  calculator.Indicators
	LastPrice   float64
	AsOf        time.Time
}

// MeanRMSE averages RMSE across horizons.
func (o *Outcome) MeanRMSE() (float64, bool) {
	if len(o.Performance) == 0 {
		return 0, false
	}
	var sum float64
	for _, m := range o.Performance {
		sum += m.RMSE
	}
	return sum / float64(len(o.Performance)), true
}

// Service wires the pipeline to configuration and persistence.
type Service struct {
	Pipeline *forecast.Pipeline
	Config   *config.Config
	Recorder recorder.Recorder
	// Now supplies "today"; it is read once per request.
	Now func() time.Time
}

// New creates a Service. A nil recorder disables recording.
func New(p *forecast.Pipeline, cfg *config.Config, rec recorder.Recorder) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Pipeline: p, Config: cfg, Recorder: rec, Now: time.Now}
}

// Today is the current date as a UTC midnight.
func (s *Service) Today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Options returns configured options for ticker with a years*365 horizon.
// years <= 0 keeps the configured horizon.
func (s *Service) Options(ticker string, years int) model.ForecastOptions {
	opts := s.Config.Options(ticker, s.Today())
	if years > 0 {
		opts.Horizon = years * 365
	}
	return opts
}

// History returns up to limit recorded runs for ticker, newest first.
func (s *Service) History(ctx context.Context, ticker string, limit int) ([]recorder.ForecastRun, error) {
	ticker, err := collector.SanitizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return s.Recorder.Recent(ctx, ticker, limit)
}

// Forecast runs the pipeline and, when asked, a backtest and a record.
func (s *Service) Forecast(ctx context.Context, req Request) (*Outcome, error) {
	run, err := s.Pipeline.Run(ctx, req.Options)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Run: run, AsOf: req.Options.AsOf}
	if y := run.History.Column(forecast.ColumnY); len(y) > 0 {
		out.LastPrice = y[len(y)-1]
	}
	if ind, err := calculator.Summarize(run.Series.Bars); err == nil {
		out.Indicators = ind
	}

	if req.Backtest {
		w := req.Window
		if w == (backtest.Window{}) {
			w = backtest.DefaultWindow
		}
		factory := s.Pipeline.Factory
		if factory == nil {
			factory = forecast.DefaultFactory
		}
		points, err := backtest.CrossValidate(ctx, run.History, factory, run.Config, w)
		if err != nil {
			metrics.IncError("backtest")
			return nil, fmt.Errorf("backtest %s: %w", run.Asset.Ticker, err)
		}
		if out.Performance, err = backtest.PerformanceMetrics(points); err != nil {
			return nil, err
		}
	}

	if req.Record {
		rec := recorder.NewForecastRun(run.Result, out.LastPrice, s.Now())
		if rmse, ok := out.MeanRMSE(); ok {
			rec.BacktestRMSE = &rmse
		}
		if err := s.Recorder.RecordForecast(ctx, rec); err != nil {
			metrics.IncError("record")
			log.Error().Err(err).Str("ticker", run.Asset.Ticker).Msg("record forecast")
		}
	}
	return out, nil
}

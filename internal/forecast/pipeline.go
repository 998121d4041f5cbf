package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"TickerCast/internal/collector"
	"TickerCast/internal/metrics"
	"TickerCast/internal/model"
)

// Run is the outcome of one pipeline execution.
type Run struct {
	Asset   model.Asset
	Series  *model.PriceSeries
	History *Table
	Config  Config
	Model   Model
	Result  *model.ForecastResult
}

// Pipeline loads a series and forecasts its opening price.
type Pipeline struct {
	Loader  *collector.Loader
	Factory Factory

	validate *validator.Validate
}

// NewPipeline creates a pipeline using the bundled model.
func NewPipeline(loader *collector.Loader) *Pipeline {
	return &Pipeline{Loader: loader, Factory: DefaultFactory, validate: validator.New()}
}

// Prepare fills defaults and validates opts.
func (p *Pipeline) Prepare(opts *model.ForecastOptions) error {
	if err := defaults.Set(opts); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if p.validate == nil {
		p.validate = validator.New()
	}
	if err := p.validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %w", model.ErrInvalidRequest, err)
	}
	return nil
}

// Run executes load, reshape, mode selection, fit, future index and predict.
func (p *Pipeline) Run(ctx context.Context, opts model.ForecastOptions) (*Run, error) {
	if err := p.Prepare(&opts); err != nil {
		return nil, err
	}
	loaded, err := p.Loader.Load(ctx, collector.Request{
		Ticker:        opts.Ticker,
		Start:         opts.Start,
		End:           opts.AsOf,
		Interval:      opts.Interval,
		ClassOverride: opts.AssetClassOverride,
	})
	if err != nil {
		metrics.IncError("load")
		return nil, err
	}
	factory := p.Factory
	if factory == nil {
		factory = DefaultFactory
	}
	run, err := Forecast(ctx, factory, loaded.Series, loaded.Asset, opts)
	if err != nil {
		metrics.IncError("forecast")
		return nil, err
	}
	return run, nil
}

// Forecast runs the model stages on an already loaded series.
func Forecast(ctx context.Context, factory Factory, series *model.PriceSeries, asset model.Asset, opts model.ForecastOptions) (*Run, error) {
	if opts.Unit == "" {
		opts.Unit = model.UnitDay
	}
	history, err := Reshape(FromSeries(series), TargetColumn)
	if err != nil {
		return nil, err
	}
	cfg := ConfigFor(asset, opts)
	m := factory(cfg)

	started := time.Now()
	if err := m.Fit(ctx, history); err != nil {
		return nil, fmt.Errorf("fit %s: %w: %w", asset.Ticker, model.ErrModelFit, err)
	}
	metrics.ObserveFit(string(cfg.Mode), time.Since(started))

	future, err := m.MakeFuture(opts.Horizon, opts.Unit)
	if err != nil {
		return nil, err
	}
	pred, err := m.Predict(ctx, future)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w: %w", asset.Ticker, model.ErrModelFit, err)
	}

	log.Info().
		Str("ticker", asset.Ticker).
		Str("class", string(asset.Class)).
		Str("mode", string(cfg.Mode)).
		Int("history", history.Len()).
		Int("horizon", opts.Horizon).
		Dur("fit", time.Since(started)).
		Msg("forecast complete")
	metrics.IncForecast(asset.Ticker, string(cfg.Mode))

	return &Run{
		Asset:   asset,
		Series:  series,
		History: history,
		Config:  cfg,
		Model:   m,
		Result: &model.ForecastResult{
			Asset:      asset,
			Mode:       cfg.Mode,
			Unit:       opts.Unit,
			HistoryLen: history.Len(),
			Rows:       pred.Rows,
			Components: pred.Components,
		},
	}, nil
}

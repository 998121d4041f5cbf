package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TickerCast/internal/collector"
	"TickerCast/internal/model"
	"TickerCast/internal/render"
	"TickerCast/internal/service"
)

func runForecast(cmd *cobra.Command, args []string) error {
	ticker, err := collector.SanitizeTicker(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup := buildService(ctx)
	defer cleanup()

	opts, err := forecastOptions(svc, ticker)
	if err != nil {
		return err
	}
	out, err := svc.Forecast(ctx, service.Request{Options: opts, Backtest: fBacktest, Record: true})
	if err != nil {
		return err
	}
	if err := writeOutputs(out, fOut); err != nil {
		return err
	}

	last := out.Result.Last()
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s): last %.2f, %s yhat %.2f [%.2f, %.2f]\n",
		out.Asset.Name, out.Asset.Class, out.Result.Mode, out.LastPrice,
		last.DS.Format(time.DateOnly), last.YHat, last.Lower, last.Upper)
	if rmse, ok := out.MeanRMSE(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "backtest mean RMSE %.4f over %d horizons\n", rmse, len(out.Performance))
	}
	return nil
}

// forecastOptions layers command-line flags over the configured options.
func forecastOptions(svc *service.Service, ticker string) (model.ForecastOptions, error) {
	opts := svc.Options(ticker, fYears)
	if fStart != "" {
		t, err := time.Parse(time.DateOnly, fStart)
		if err != nil {
			return opts, fmt.Errorf("--start: %w", err)
		}
		opts.Start = t
	}
	if fEnd != "" {
		t, err := time.Parse(time.DateOnly, fEnd)
		if err != nil {
			return opts, fmt.Errorf("--end: %w", err)
		}
		opts.AsOf = t
	}
	if fInterval != "" {
		opts.Interval = fInterval
	}
	if fHorizon >= 0 {
		opts.Horizon = fHorizon
	}
	if fUnit != "" {
		u, err := model.ParsePeriodUnit(fUnit)
		if err != nil {
			return opts, err
		}
		opts.Unit = u
	}
	if fHolidays != "" {
		opts.HolidayCountry = strings.ToUpper(fHolidays)
	}
	if fSamples >= 0 {
		opts.UncertaintySamples = fSamples
	}
	if fWidth > 0 {
		opts.IntervalWidth = fWidth
	}
	opts.Seed = fSeed
	if fMode != "" {
		m, err := model.ParseSeasonalityMode(fMode)
		if err != nil {
			return opts, err
		}
		opts.SeasonalityOverride = m
	}
	if fClass != "" {
		c, ok := model.ParseAssetClass(fClass)
		if !ok {
			return opts, fmt.Errorf("unknown asset class %q", fClass)
		}
		opts.AssetClassOverride = c
	}
	return opts, nil
}

// writeOutputs saves the forecast CSV and the charts under dir.
func writeOutputs(out *service.Outcome, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, strings.ToLower(out.Asset.Ticker))

	f, err := os.Create(base + "_forecast.csv")
	if err != nil {
		return err
	}
	if err := render.WriteCSV(f, out.Result); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	w := render.Window{}
	raw, err := render.Series(out.Series, w)
	if err != nil {
		return err
	}
	if err := render.SaveFile(raw, base+"_raw.png"); err != nil {
		return err
	}
	fc, err := render.Forecast(out.Result, out.History, w)
	if err != nil {
		return err
	}
	if err := render.SaveFile(fc, base+"_forecast.png"); err != nil {
		return err
	}
	panels, err := render.Components(out.Result, w)
	if err != nil {
		return err
	}
	if err := render.SavePanels(panels, base+"_components.png"); err != nil {
		return err
	}
	if len(out.Performance) > 0 {
		bt, err := render.Backtest(out.Asset.Ticker, out.Performance)
		if err != nil {
			return err
		}
		if err := render.SaveFile(bt, base+"_backtest.png"); err != nil {
			return err
		}
	}
	log.Info().Str("dir", dir).Str("ticker", out.Asset.Ticker).Msg("outputs written")
	return nil
}

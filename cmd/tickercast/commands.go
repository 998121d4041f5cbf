package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"TickerCast/internal/collector"
	"TickerCast/internal/config"
	"TickerCast/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:          "tickercast",
		Short:        "Forecast stock and crypto prices with a trend and seasonality model",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return logging.Setup(cfg.Log.Level, cfg.Log.Format)
		},
	}

	forecastCmd = &cobra.Command{
		Use:   "forecast TICKER",
		Short: "Fit the model on a ticker and write the forecast as CSV and charts",
		Args:  cobra.ExactArgs(1),
		RunE:  runForecast,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP dashboard",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Run scheduled forecasts and answer Telegram commands",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}

	tickersCmd = &cobra.Command{
		Use:   "tickers",
		Short: "List the configured tickers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range tickerList() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
)

// forecast flags
var (
	fStart    string
	fEnd      string
	fInterval string
	fHorizon  int
	fUnit     string
	fYears    int
	fHolidays string
	fSamples  int
	fSeed     uint64
	fWidth    float64
	fMode     string
	fClass    string
	fBacktest bool
	fOut      string
)

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	f := forecastCmd.Flags()
	f.StringVar(&fStart, "start", "", "First date of history (YYYY-MM-DD, default from config)")
	f.StringVar(&fEnd, "end", "", "Last date of history (YYYY-MM-DD, default today)")
	f.StringVar(&fInterval, "interval", "", "Bar interval: 1d or 1h (default from config)")
	f.IntVar(&fHorizon, "horizon", -1, "Periods to forecast past the history (overrides --years)")
	f.StringVar(&fUnit, "unit", "", "Period unit: D, H or B (default from config)")
	f.IntVar(&fYears, "years", 0, "Years to forecast, 1 to 3, as years*365 periods")
	f.StringVar(&fHolidays, "holidays", "", "Country code for holiday effects, e.g. US")
	f.IntVar(&fSamples, "samples", -1, "Simulated uncertainty draws (0 for analytic bands)")
	f.Uint64Var(&fSeed, "seed", 0, "Seed for simulated bands (0 draws a fresh seed)")
	f.Float64Var(&fWidth, "width", 0, "Uncertainty interval width in (0,1)")
	f.StringVar(&fMode, "mode", "", "Force seasonality mode: additive or multiplicative")
	f.StringVar(&fClass, "class", "", "Force asset class: volatile, traditional or unknown")
	f.BoolVar(&fBacktest, "backtest", false, "Run cross-validation and chart RMSE by horizon")
	f.StringVar(&fOut, "out", "out", "Directory for the CSV and charts")

	rootCmd.AddCommand(forecastCmd, serveCmd, watchCmd, tickersCmd)
}

// tickerList is the configured list, falling back to the built-in one.
func tickerList() []string {
	if len(cfg.Forecast.Tickers) == 0 {
		return collector.DefaultTickers
	}
	return cfg.Forecast.Tickers
}

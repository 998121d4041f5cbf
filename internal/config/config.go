package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"TickerCast/internal/collector"
	"TickerCast/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string  `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest"`
		BaseURL           string  `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey            string  `yaml:"api_key"`
		RequestsPerSecond float64 `yaml:"requests_per_second" default:"2" validate:"gte=0"`
	} `yaml:"data_source"`
	Cache struct {
		TTL           time.Duration `yaml:"ttl" default:"15m"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
		Prefix        string        `yaml:"prefix" default:"tickercast:"`
	} `yaml:"cache"`
	Forecast struct {
		StartDate          string   `yaml:"start_date" default:"2015-01-01" validate:"datetime=2006-01-02"`
		Years              int      `yaml:"years" default:"1" validate:"gte=1,lte=3"`
		Interval           string   `yaml:"interval" default:"1d" validate:"oneof=1d 1h"`
		Unit               string   `yaml:"unit" default:"D" validate:"oneof=D H B"`
		HolidayCountry     string   `yaml:"holiday_country" validate:"omitempty,oneof=US USA"`
		UncertaintySamples int      `yaml:"uncertainty_samples" validate:"gte=0,lte=10000"`
		IntervalWidth      float64  `yaml:"interval_width" default:"0.8" validate:"gt=0,lt=1"`
		Tickers            []string `yaml:"tickers" validate:"dive,required"`
	} `yaml:"forecast"`
	Dashboard struct {
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"dashboard"`
	Schedule struct {
		ForecastCron string `yaml:"forecast_cron" default:"0 0 22 * * 1-5"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/tickercast.db"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(cfg.Forecast.Tickers) == 0 {
		cfg.Forecast.Tickers = slices.Clone(collector.DefaultTickers)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN":    &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":      &cfg.Telegram.ChatID,
		"TICKERCAST_PROVIDER":   &cfg.DataSource.Provider,
		"TICKERCAST_BASE_URL":   &cfg.DataSource.BaseURL,
		"TICKERCAST_API_KEY":    &cfg.DataSource.APIKey,
		"HTTPS_PROXY":           &cfg.Proxy,
		"REDIS_ADDR":            &cfg.Cache.RedisAddr,
		"REDIS_PASSWORD":        &cfg.Cache.RedisPassword,
		"TICKERCAST_ADDR":       &cfg.Dashboard.Addr,
		"CRON_FORECAST":         &cfg.Schedule.ForecastCron,
		"SQLITE_PATH":           &cfg.Database.SQLitePath,
		"LOG_LEVEL":             &cfg.Log.Level,
		"LOG_FORMAT":            &cfg.Log.Format,
		"TICKERCAST_HOLIDAYS":   &cfg.Forecast.HolidayCountry,
		"TICKERCAST_START_DATE": &cfg.Forecast.StartDate,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TICKERCAST_YEARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Years = n
		}
	}
	if os.Getenv("RUN_ON_START") == "true" {
		cfg.Schedule.RunOnStart = true
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, t := range c.Forecast.Tickers {
		if _, err := collector.SanitizeTicker(t); err != nil {
			return fmt.Errorf("forecast.tickers: %w", err)
		}
	}
	return nil
}

// RequireTelegram checks the settings the watcher needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// Start parses the configured history start date.
func (c *Config) Start() time.Time {
	t, err := time.Parse(time.DateOnly, c.Forecast.StartDate)
	if err != nil {
		return time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Options builds forecast options for ticker as of asOf with the configured
// horizon of Years*365 periods.
func (c *Config) Options(ticker string, asOf time.Time) model.ForecastOptions {
	return model.ForecastOptions{
		Ticker:             ticker,
		Start:              c.Start(),
		AsOf:               asOf,
		Interval:           c.Forecast.Interval,
		Horizon:            c.Forecast.Years * 365,
		Unit:               model.PeriodUnit(c.Forecast.Unit),
		HolidayCountry:     c.Forecast.HolidayCountry,
		UncertaintySamples: c.Forecast.UncertaintySamples,
		IntervalWidth:      c.Forecast.IntervalWidth,
	}
}

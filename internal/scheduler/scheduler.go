package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"TickerCast/internal/collector"
	"TickerCast/internal/notifier"
	"TickerCast/internal/service"

	"github.com/robfig/cron/v3"
)

const historyLimit = 5

// Scheduler runs periodic forecasts and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *service.Service
	Notifier notifier.Notifier
	Tickers  []string
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.Service, n notifier.Notifier, tickers []string) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: n,
		Tickers:  tickers,
		Ctx:      ctx,
	}
}

// RegisterAll registers the forecast task.
func (s *Scheduler) RegisterAll(forecastCron string) error {
	if _, err := s.Cron.AddFunc(forecastCron, s.forecastTask); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the forecast task immediately.
func (s *Scheduler) RunNow() {
	s.forecastTask()
}

func (s *Scheduler) forecastTask() {
	log.Info().Strs("tickers", s.Tickers).Msg("running forecast task")
	for _, ticker := range s.Tickers {
		if s.Ctx.Err() != nil {
			return
		}
		s.trySend(s.forecast(ticker, 0))
	}
}

// forecast runs and formats one forecast; failures are formatted too.
func (s *Scheduler) forecast(ticker string, years int) string {
	out, err := s.Service.Forecast(s.Ctx, service.Request{
		Options: s.Service.Options(ticker, years),
		Record:  true,
	})
	if err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("forecast failed")
		return notifier.FormatError(ticker, err)
	}
	return notifier.FormatForecast(out.Result, out.LastPrice, out.AsOf) + "\n" + notifier.FormatIndicators(out.Indicators)
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	switch strings.ToLower(fields[0]) {
	case "/forecast":
		ticker, years, err := parseForecastArgs(fields[1:])
		if err != nil {
			return err.Error() + "\n\n" + notifier.FormatHelp()
		}
		return s.forecast(ticker, years)
	case "/history":
		if len(fields) != 2 {
			return "usage: /history TICKER\n\n" + notifier.FormatHelp()
		}
		runs, err := s.Service.History(ctx, fields[1], historyLimit)
		if err != nil {
			return notifier.FormatError(fields[1], err)
		}
		return notifier.FormatHistory(strings.ToUpper(fields[1]), runs)
	case "/tickers":
		return notifier.FormatTickers(s.Tickers)
	default:
		return notifier.FormatHelp()
	}
}

func parseForecastArgs(args []string) (string, int, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", 0, errors.New("usage: /forecast TICKER [years]")
	}
	ticker, err := collector.SanitizeTicker(args[0])
	if err != nil {
		return "", 0, err
	}
	years := 1
	if len(args) == 2 {
		years, err = strconv.Atoi(args[1])
		if err != nil || years < 1 || years > 3 {
			return "", 0, fmt.Errorf("years must be 1 to 3, got %q", args[1])
		}
	}
	return ticker, years, nil
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"TickerCast/internal/notifier"
	"TickerCast/internal/scheduler"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup := buildService(ctx)
	defer cleanup()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	sched := scheduler.NewScheduler(ctx, svc, tn, tickerList())
	if err := sched.RegisterAll(cfg.Schedule.ForecastCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, forecasting now")
		go sched.RunNow()
	}

	log.Info().Msg("TickerCast is watching. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	return nil
}

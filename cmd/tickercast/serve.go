package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"TickerCast/internal/dashboard"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, cleanup := buildService(ctx)
	defer cleanup()

	return dashboard.NewServer(svc, tickerList()).Run(ctx, cfg.Dashboard.Addr)
}

// Binary marketmaker rotates every managed account between the base and quote token until
// interrupted.
package main

import (
	"context"
	"errors"
	"os"
	ossignal "os/signal"
	"syscall"

	"solana-mmaker/internal/app"
	"solana-mmaker/internal/config"
	"solana-mmaker/internal/metrics"
	"solana-mmaker/internal/util"
)

func main() {
	boot := util.NewLogger("info")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}
	log, closer := util.NewLoggerWithFile(cfg.App.LogLevel, cfg.App.LogFile)
	defer closer.Close()

	if cfg.App.MetricsAddr != "" {
		srv := metrics.Serve(cfg.App.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	sched, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build scheduler")
	}
	if !cfg.Trading.Enabled {
		log.Warn().Msg("trading disabled: swaps are quoted and logged, never submitted")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("scheduler stopped")
		return
	}
	log.Info().Msg("shutting down")
}

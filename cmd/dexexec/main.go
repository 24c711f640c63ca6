// Binary dexexec runs a single round over every account and exits. It is an operational
// smoke test for configuration, RPC and aggregator connectivity.
package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"solana-mmaker/internal/app"
	"solana-mmaker/internal/config"
	"solana-mmaker/internal/util"
)

func main() {
	boot := util.NewLogger("info")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		boot.Fatal().Err(err).Msg("config")
	}
	log, closer := util.NewLoggerWithFile(cfg.App.LogLevel, cfg.App.LogFile)
	defer closer.Close()

	sched, err := app.Build(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build scheduler")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := sched.RunRound(ctx)
	if err != nil {
		log.Error().Err(err).Msg("round interrupted")
	}
	for _, res := range report.Results {
		event := log.Info()
		if res.Err != nil {
			event = log.Error().Err(res.Err)
		}
		if res.Outcome != nil {
			event = event.Str("sig", res.Outcome.Signature)
		}
		event.Int("index", res.Index).Str("account", res.Address).Str("action", res.Decision.Action.String()).Msg("result")
	}
	if err != nil || report.Failed() > 0 {
		closer.Close()
		os.Exit(1)
	}
}

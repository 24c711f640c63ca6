// Package app wires configuration into a runnable scheduler.
package app

import (
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"solana-mmaker/internal/config"
	dex "solana-mmaker/internal/dex/solana"
	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/execution"
	"solana-mmaker/internal/scheduler"
	"solana-mmaker/internal/strategy"
)

// GatewayFactory returns Jupiter clients that confirm over websocket with polling alongside.
func GatewayFactory(cfg *config.Config, client *rpc.Client) scheduler.GatewayFactory {
	ws := cfg.Dex.WsURL
	if ws == "" {
		ws = dex.WebsocketURL(cfg.Dex.RpcURL)
	}
	return func(account domain.Account) (execution.Gateway, error) {
		jc := dex.NewJupiterClient(client, cfg.Dex.JupiterBase, account.Key, cfg.Dex.Commitment, cfg.Dex.HTTPTimeout())
		jc.Confirm = &dex.WSConfirmer{
			Endpoint: ws,
			Poll:     &dex.PollingConfirmer{RPC: client, Commit: jc.Commit},
		}
		return jc, nil
	}
}

// Build loads accounts and assembles the scheduler described by cfg.
func Build(cfg *config.Config, log zerolog.Logger) (*scheduler.Scheduler, error) {
	tokens, err := cfg.TokenSet()
	if err != nil {
		return nil, &domain.ConfigError{Field: "tokens", Err: err}
	}
	accounts, err := dex.ResolveAccounts(cfg.Wallet.KeypairsCSV, cfg.Wallet.PrivateKey, cfg.Wallet.KeypairsRequired())
	if err != nil {
		return nil, &domain.ConfigError{Field: "accounts", Err: err}
	}
	log.Info().Int("accounts", len(accounts)).Str("source", cfg.Wallet.KeypairsCSV).Msg("accounts loaded")

	client := rpc.New(cfg.Dex.RpcURL)
	balances := dex.NewBalanceReader(client, cfg.Dex.Commitment)
	strat, err := strategy.Build(cfg.Trading.Strategy, strategy.Params{Epsilon: cfg.Epsilon()})
	if err != nil {
		return nil, &domain.ConfigError{Field: "STRATEGY", Err: err}
	}
	exec := execution.NewExecutor(execution.Options{
		Tokens:      tokens,
		SlippageBps: cfg.Trading.SlippageBps,
		Trading:     cfg.Trading.Enabled,
	}, log)

	return scheduler.New(accounts, tokens, balances, strat, exec, GatewayFactory(cfg, client), scheduler.Config{
		AccountDelay: cfg.AccountDelay(),
		RoundDelay:   cfg.RoundDelay(),
		Valuation:    cfg.Trading.Valuation,
		SlippageBps:  cfg.Trading.SlippageBps,
	}, log)
}

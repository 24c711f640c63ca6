// Package execution turns trade decisions into aggregator swaps.
package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/metrics"
	"solana-mmaker/internal/strategy"
	"solana-mmaker/internal/token"
)

// ErrNothingToTrade is returned when a decision's amount floors to zero smallest units.
var ErrNothingToTrade = errors.New("amount below one smallest unit")

// Quoter is the read-only half of a gateway.
type Quoter interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.Quote, error)
}

// Gateway is an aggregator client bound to one signing account.
type Gateway interface {
	Quoter
	GetSwapTransaction(ctx context.Context, quote *domain.Quote) (*domain.SwapPlan, error)
	ExecuteSwap(ctx context.Context, plan *domain.SwapPlan) (string, error)
}

// Options configures an Executor.
type Options struct {
	Tokens      token.Set
	SlippageBps int
	Trading     bool
}

// Executor carries out at most one swap per call.
type Executor struct {
	opts Options
	log  zerolog.Logger
}

// NewExecutor wraps a zerolog logger for swap submissions.
func NewExecutor(opts Options, log zerolog.Logger) *Executor {
	return &Executor{opts: opts, log: log}
}

// Trading reports whether swaps are really submitted.
func (executor *Executor) Trading() bool { return executor.opts.Trading }

// Execute quotes decision through gw and submits it when trading is enabled. A dry run and a
// NoOp both return a nil outcome and a nil error.
func (executor *Executor) Execute(ctx context.Context, gw Gateway, account domain.Account, decision strategy.Decision) (*domain.SwapOutcome, error) {
	if decision.IsNoOp() {
		return nil, nil
	}
	from := executor.opts.Tokens.Get(decision.From)
	to := executor.opts.Tokens.Get(decision.To)
	direction := decision.Direction(executor.opts.Tokens)
	log := executor.log.With().Str("account", account.Address).Str("direction", direction).Logger()

	raw, err := from.Raw(decision.Amount)
	if err != nil {
		return nil, fmt.Errorf("convert %s %s: %w", decision.Amount, from.Symbol, err)
	}
	if raw == 0 {
		log.Debug().Str("amount", decision.Amount.String()).Msg("skip swap: nothing to trade")
		return nil, fmt.Errorf("%s: %w", direction, ErrNothingToTrade)
	}

	quote, err := gw.GetQuote(ctx, from.Mint, to.Mint, raw, executor.opts.SlippageBps)
	if err != nil {
		return nil, &domain.QuoteUnavailableError{Account: account.Address, Direction: direction, Err: err}
	}
	plan, err := gw.GetSwapTransaction(ctx, quote)
	if err != nil {
		return nil, &domain.QuoteUnavailableError{Account: account.Address, Direction: direction, Err: fmt.Errorf("swap transaction: %w", err)}
	}

	event := log.Info().
		Str("amount", decision.Amount.String()).
		Uint64("raw", raw).
		Str("out", to.Human(quote.OutAmount).String()).
		Str("impact", quote.PriceImpactPct)

	if !executor.opts.Trading {
		metrics.SwapsTotal.WithLabelValues(direction, "dry_run").Inc()
		event.Msg("simulated swap (trading disabled)")
		return nil, nil
	}

	sig, err := gw.ExecuteSwap(ctx, plan)
	if err != nil {
		return nil, &domain.SubmissionError{Account: account.Address, Direction: direction, Signature: sig, Err: err}
	}
	metrics.SwapsTotal.WithLabelValues(direction, "submitted").Inc()
	event.Str("sig", sig).Msg("swap confirmed")
	return &domain.SwapOutcome{Submitted: true, Signature: sig}, nil
}

// Package scheduler drives the per-account trading loop.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/execution"
	"solana-mmaker/internal/metrics"
	"solana-mmaker/internal/strategy"
	"solana-mmaker/internal/token"
)

// State is the scheduler's position in its loop.
type State int32

const (
	Idle State = iota
	Processing
	Sleeping
	RoundComplete
	Stopped
)

func (s State) String() string {
	switch s {
	case Processing:
		return "processing"
	case Sleeping:
		return "sleeping"
	case RoundComplete:
		return "round_complete"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// BalanceSource reads one token balance for one owner.
type BalanceSource interface {
	Balance(ctx context.Context, owner solana.PublicKey, d token.Descriptor) (domain.BalanceSnapshot, error)
}

// GatewayFactory binds an aggregator client to an account's signing key.
type GatewayFactory func(account domain.Account) (execution.Gateway, error)

// Config holds pacing and optional behaviour.
type Config struct {
	AccountDelay time.Duration
	RoundDelay   time.Duration
	Valuation    bool
	SlippageBps  int
}

// Scheduler visits accounts strictly in order, one at a time.
type Scheduler struct {
	accounts []domain.Account
	tokens   token.Set
	balances BalanceSource
	strategy strategy.Strategy
	executor *execution.Executor
	gateways GatewayFactory
	cfg      Config
	log      zerolog.Logger

	cache     map[int]execution.Gateway
	state     atomic.Int32
	completed atomic.Uint64
	round     uint64
}

// New validates its inputs; an empty account list is a configuration error.
func New(accounts []domain.Account, tokens token.Set, balances BalanceSource, strat strategy.Strategy,
	executor *execution.Executor, gateways GatewayFactory, cfg Config, log zerolog.Logger) (*Scheduler, error) {
	if len(accounts) == 0 {
		return nil, &domain.ConfigError{Field: "accounts", Err: domain.ErrNoAccounts}
	}
	if balances == nil || strat == nil || executor == nil || gateways == nil {
		return nil, errors.New("scheduler requires balances, strategy, executor and gateway factory")
	}
	return &Scheduler{
		accounts: accounts,
		tokens:   tokens,
		balances: balances,
		strategy: strat,
		executor: executor,
		gateways: gateways,
		cfg:      cfg,
		log:      log,
		cache:    make(map[int]execution.Gateway, len(accounts)),
	}, nil
}

// State returns the current loop state. Safe to call from other goroutines.
func (s *Scheduler) State() State { return State(s.state.Load()) }

func (s *Scheduler) setState(st State) { s.state.Store(int32(st)) }

// Completed counts rounds that visited every account. Safe to call from other goroutines.
func (s *Scheduler) Completed() uint64 { return s.completed.Load() }

// Run loops rounds until ctx ends. It returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().
		Int("accounts", len(s.accounts)).
		Str("strategy", s.strategy.Name()).
		Bool("trading", s.executor.Trading()).
		Msg("scheduler started")
	for {
		report, err := s.RunRound(ctx)
		if err != nil {
			s.log.Info().Uint64("round", report.Round).Msg("scheduler stopped")
			return err
		}
		if s.cfg.RoundDelay > 0 {
			s.setState(Sleeping)
			if err := sleep(ctx, s.cfg.RoundDelay); err != nil {
				s.setState(Stopped)
				return err
			}
		}
	}
}

// RunRound processes every account once, in order. On cancellation it returns the partial
// report together with ctx's error.
func (s *Scheduler) RunRound(ctx context.Context) (RoundReport, error) {
	s.round++
	report := RoundReport{Round: s.round, Started: time.Now(), Results: make([]AccountResult, 0, len(s.accounts))}
	for i := range s.accounts {
		if err := ctx.Err(); err != nil {
			s.setState(Stopped)
			report.Finished = time.Now()
			return report, err
		}
		s.setState(Processing)
		res := s.processAccount(ctx, i)
		report.Results = append(report.Results, res)
		s.record(res)

		s.setState(Sleeping)
		if err := sleep(ctx, s.cfg.AccountDelay); err != nil {
			s.setState(Stopped)
			report.Finished = time.Now()
			return report, err
		}
	}
	s.completed.Add(1)
	s.setState(RoundComplete)
	report.Finished = time.Now()
	metrics.RoundsTotal.Inc()
	s.log.Info().
		Uint64("round", report.Round).
		Int("failed", report.Failed()).
		Int("submitted", report.Submitted()).
		Dur("took", report.Finished.Sub(report.Started)).
		Msg("round complete")
	return report, nil
}

func (s *Scheduler) record(res AccountResult) {
	log := s.log.With().Int("index", res.Index).Str("account", res.Address).Logger()
	direction := res.Decision.Direction(s.tokens)
	switch {
	case res.Err != nil:
		kind := domain.ErrorKind(res.Err)
		metrics.ErrorsTotal.WithLabelValues(kind).Inc()
		metrics.AccountCyclesTotal.WithLabelValues("error").Inc()
		log.Error().Err(res.Err).Str("kind", kind).Str("direction", direction).Msg("account cycle failed")
	case res.Skipped:
		metrics.AccountCyclesTotal.WithLabelValues("skipped").Inc()
	case res.Outcome != nil:
		metrics.AccountCyclesTotal.WithLabelValues("submitted").Inc()
	default:
		metrics.AccountCyclesTotal.WithLabelValues("ok").Inc()
	}
}

func (s *Scheduler) processAccount(ctx context.Context, i int) (res AccountResult) {
	account := s.accounts[i]
	res = AccountResult{Index: i, Address: account.Address}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = nil
			res.Err = fmt.Errorf("panic in account cycle: %v", r)
		}
	}()

	gw, err := s.gateway(i)
	if err != nil {
		res.Err = err
		return res
	}

	base, err := s.balances.Balance(ctx, account.PublicKey(), s.tokens.Base())
	if err != nil {
		res.Err = asRetrieval(err, account, s.tokens.Base())
		return res
	}
	quote, err := s.balances.Balance(ctx, account.PublicKey(), s.tokens.Quote())
	if err != nil {
		res.Err = asRetrieval(err, account, s.tokens.Quote())
		return res
	}
	s.log.Debug().
		Int("index", i).
		Str("account", account.Address).
		Str(base.Token.Symbol, base.Amount.String()).
		Str(quote.Token.Symbol, quote.Amount.String()).
		Msg("balances")

	if s.cfg.Valuation {
		s.value(ctx, gw, account, base, quote)
	}

	res.Decision = s.strategy.Decide(base.Amount, quote.Amount)
	metrics.DecisionsTotal.WithLabelValues(res.Decision.Action.String()).Inc()

	outcome, err := s.executor.Execute(ctx, gw, account, res.Decision)
	if errors.Is(err, execution.ErrNothingToTrade) {
		res.Skipped = true
		return res
	}
	res.Outcome, res.Err = outcome, err
	return res
}

func (s *Scheduler) gateway(i int) (execution.Gateway, error) {
	if gw, ok := s.cache[i]; ok {
		return gw, nil
	}
	gw, err := s.gateways(s.accounts[i])
	if err != nil {
		return nil, fmt.Errorf("gateway for %s: %w", s.accounts[i].Address, err)
	}
	s.cache[i] = gw
	return gw, nil
}

func (s *Scheduler) value(ctx context.Context, q execution.Quoter, account domain.Account, base, quote domain.BalanceSnapshot) {
	v := execution.Valuer{Tokens: s.tokens, SlippageBps: s.cfg.SlippageBps}
	total, err := v.Holdings(ctx, q, base.Amount, quote.Amount)
	if err != nil {
		s.log.Warn().Err(err).Str("account", account.Address).Msg("valuation failed")
		return
	}
	f, _ := total.Float64()
	metrics.HoldingsValue.WithLabelValues(account.Address).Set(f)
	s.log.Info().
		Str("account", account.Address).
		Str("value", total.StringFixed(2)).
		Str("unit", s.tokens.Reference().Symbol).
		Msg("holdings")
}

func asRetrieval(err error, account domain.Account, d token.Descriptor) error {
	var retErr *domain.RetrievalError
	if errors.As(err, &retErr) {
		return err
	}
	return &domain.RetrievalError{Account: account.Address, Token: d.Symbol, Err: err}
}

// sleep pauses for d or until ctx ends. A non-positive d only checks ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

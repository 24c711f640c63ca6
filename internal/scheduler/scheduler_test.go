package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/execution"
	"solana-mmaker/internal/strategy"
	"solana-mmaker/internal/token"
)

type holding struct{ base, quote uint64 }

type fakeBalances struct {
	mu      sync.Mutex
	holding map[string]holding
	fail    map[string]error
	panics  map[string]bool
	reads   []string
}

func (f *fakeBalances) Balance(_ context.Context, owner solana.PublicKey, d token.Descriptor) (domain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	addr := owner.String()
	f.reads = append(f.reads, addr)
	if f.panics[addr] {
		panic("rpc client exploded")
	}
	if err := f.fail[addr]; err != nil {
		return domain.BalanceSnapshot{}, err
	}
	h := f.holding[addr]
	if d.Kind == token.Base {
		return domain.NewBalanceSnapshot(d, h.base), nil
	}
	return domain.NewBalanceSnapshot(d, h.quote), nil
}

type fakeGateway struct {
	address  string
	quotes   int
	executed int
	quoteErr error
	execErr  error
}

func (g *fakeGateway) GetQuote(_ context.Context, in, out string, amount uint64, _ int) (*domain.Quote, error) {
	g.quotes++
	if g.quoteErr != nil {
		return nil, g.quoteErr
	}
	return &domain.Quote{InputMint: in, OutputMint: out, InAmount: amount, OutAmount: 1_000_000, Raw: []byte(`{}`)}, nil
}

func (g *fakeGateway) GetSwapTransaction(context.Context, *domain.Quote) (*domain.SwapPlan, error) {
	return &domain.SwapPlan{Transaction: "AQID"}, nil
}

func (g *fakeGateway) ExecuteSwap(context.Context, *domain.SwapPlan) (string, error) {
	g.executed++
	if g.execErr != nil {
		return "sig-" + g.address[:4], g.execErr
	}
	return "sig-" + g.address[:4], nil
}

type fixture struct {
	accounts []domain.Account
	balances *fakeBalances
	gateways map[string]*fakeGateway
	built    []string
	epsilon  decimal.Decimal
	quoteErr map[string]error
	execErr  map[string]error
}

func newFixture(n int) *fixture {
	f := &fixture{
		balances: &fakeBalances{holding: map[string]holding{}, fail: map[string]error{}, panics: map[string]bool{}},
		gateways: map[string]*fakeGateway{},
		epsilon:  strategy.DefaultEpsilon,
		quoteErr: map[string]error{},
		execErr:  map[string]error{},
	}
	for i := 0; i < n; i++ {
		acc := domain.NewAccount(solana.NewWallet().PrivateKey)
		f.accounts = append(f.accounts, acc)
		f.balances.holding[acc.Address] = holding{base: 2_000_000_000}
	}
	return f
}

func (f *fixture) factory(acc domain.Account) (execution.Gateway, error) {
	f.built = append(f.built, acc.Address)
	gw := &fakeGateway{address: acc.Address, quoteErr: f.quoteErr[acc.Address], execErr: f.execErr[acc.Address]}
	f.gateways[acc.Address] = gw
	return gw, nil
}

func (f *fixture) scheduler(t *testing.T, trading bool, cfg Config) *Scheduler {
	t.Helper()
	set := token.DefaultSet()
	exec := execution.NewExecutor(execution.Options{Tokens: set, SlippageBps: 50, Trading: trading}, zerolog.Nop())
	strat, err := strategy.Build("rotator", strategy.Params{Epsilon: f.epsilon})
	require.NoError(t, err)
	s, err := New(f.accounts, set, f.balances, strat, exec, f.factory, cfg, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestNewRejectsEmptyAccounts(t *testing.T) {
	exec := execution.NewExecutor(execution.Options{Tokens: token.DefaultSet()}, zerolog.Nop())
	_, err := New(nil, token.DefaultSet(), &fakeBalances{}, strategy.NewRotator(strategy.DefaultEpsilon), exec,
		func(domain.Account) (execution.Gateway, error) { return nil, nil }, Config{}, zerolog.Nop())
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, domain.ErrNoAccounts)
}

func TestRunRoundIsolatesFailures(t *testing.T) {
	f := newFixture(3)
	f.balances.fail[f.accounts[1].Address] = errors.New("node is behind")
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.NoError(t, report.Results[0].Err)
	assert.Equal(t, "retrieval", domain.ErrorKind(report.Results[1].Err))
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 2, report.Submitted())
	assert.Equal(t, 0, f.gateways[f.accounts[1].Address].quotes, "failed account must not trade")
	assert.Equal(t, RoundComplete, s.State())
}

func TestRunRoundContinuesAfterQuoteFailure(t *testing.T) {
	f := newFixture(3)
	f.quoteErr[f.accounts[1].Address] = errors.New("no route")
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	var quoteErr *domain.QuoteUnavailableError
	require.ErrorAs(t, report.Results[1].Err, &quoteErr)
	assert.Equal(t, "quote_unavailable", domain.ErrorKind(report.Results[1].Err))
	assert.Zero(t, f.gateways[f.accounts[1].Address].executed)
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, 1, f.gateways[f.accounts[2].Address].executed, "later accounts keep trading")
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 2, report.Submitted())
}

func TestRunRoundContinuesAfterSubmissionFailure(t *testing.T) {
	f := newFixture(3)
	f.execErr[f.accounts[1].Address] = errors.New("blockhash not found")
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	var subErr *domain.SubmissionError
	require.ErrorAs(t, report.Results[1].Err, &subErr)
	assert.Equal(t, "submission", domain.ErrorKind(report.Results[1].Err))
	assert.Equal(t, 1, f.gateways[f.accounts[1].Address].executed)
	assert.NoError(t, report.Results[2].Err)
	assert.Equal(t, 1, f.gateways[f.accounts[2].Address].executed, "later accounts keep trading")
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, RoundComplete, s.State())
}

func TestRunRoundRecoversPanics(t *testing.T) {
	f := newFixture(2)
	f.balances.panics[f.accounts[0].Address] = true
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	require.Error(t, report.Results[0].Err)
	assert.Contains(t, report.Results[0].Err.Error(), "panic")
	assert.NoError(t, report.Results[1].Err)
	assert.Equal(t, 1, f.gateways[f.accounts[1].Address].executed)
}

func TestRoundsKeepOrderAndReuseGateways(t *testing.T) {
	f := newFixture(3)
	s := f.scheduler(t, false, Config{})

	first, err := s.RunRound(context.Background())
	require.NoError(t, err)
	second, err := s.RunRound(context.Background())
	require.NoError(t, err)

	for i, acc := range f.accounts {
		assert.Equal(t, acc.Address, first.Results[i].Address)
		assert.Equal(t, acc.Address, second.Results[i].Address)
		assert.Equal(t, i, second.Results[i].Index)
	}
	assert.Equal(t, uint64(2), second.Round)
	assert.Len(t, f.built, 3, "gateways are built once per account")
}

func TestDryRunNeverSubmits(t *testing.T) {
	f := newFixture(2)
	f.balances.holding[f.accounts[1].Address] = holding{quote: 120_000_000}
	s := f.scheduler(t, false, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strategy.Buy, report.Results[0].Decision.Action)
	assert.Equal(t, strategy.Sell, report.Results[1].Decision.Action)
	for _, res := range report.Results {
		assert.Nil(t, res.Outcome)
		assert.NoError(t, res.Err)
		assert.Zero(t, f.gateways[res.Address].executed)
		assert.Equal(t, 1, f.gateways[res.Address].quotes)
	}
	assert.Zero(t, report.Submitted())
}

func TestDustIsSkipped(t *testing.T) {
	f := newFixture(1)
	// A tenth of a lamport survives the epsilon.
	f.epsilon = decimal.RequireFromString("0.0099999999")
	f.balances.holding[f.accounts[0].Address] = holding{base: 10_000_000}
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Results[0].Skipped)
	assert.NoError(t, report.Results[0].Err)
	assert.Zero(t, f.gateways[f.accounts[0].Address].quotes)
}

func TestEmptyAccountIsNoOp(t *testing.T) {
	f := newFixture(1)
	f.balances.holding[f.accounts[0].Address] = holding{}
	s := f.scheduler(t, true, Config{})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Results[0].Decision.IsNoOp())
	assert.Nil(t, report.Results[0].Outcome)
}

func TestRunStopsOnCancelDuringPause(t *testing.T) {
	f := newFixture(3)
	s := f.scheduler(t, false, Config{AccountDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.State() == Sleeping }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, Stopped, s.State())
	assert.Len(t, f.built, 1, "only the first account should have been visited")
}

func TestRunSleepsBetweenRounds(t *testing.T) {
	f := newFixture(2)
	s := f.scheduler(t, false, Config{RoundDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return s.Completed() == 1 && s.State() == Sleeping
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, uint64(1), s.Completed(), "next round waits for the round delay")
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, Stopped, s.State())
	assert.Len(t, f.built, 2)
}

func TestRunRoundCancelledBeforeStart(t *testing.T) {
	f := newFixture(2)
	s := f.scheduler(t, false, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.RunRound(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Empty(t, f.balances.reads)
}

func TestValuationQuotesBeforeTrading(t *testing.T) {
	f := newFixture(1)
	s := f.scheduler(t, true, Config{Valuation: true})

	report, err := s.RunRound(context.Background())
	require.NoError(t, err)
	assert.NoError(t, report.Results[0].Err)
	gw := f.gateways[f.accounts[0].Address]
	assert.Equal(t, 2, gw.quotes, "one valuation quote plus the trade quote")
	assert.Equal(t, 1, gw.executed)
}

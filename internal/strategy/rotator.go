// Package strategy holds the trade decision policy. Decisions are pure functions of balances.
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"solana-mmaker/internal/token"
)

// Action enumerates the outcomes of a decision.
type Action int

const (
	// NoOp means nothing is traded this cycle.
	NoOp Action = iota
	// Sell liquidates the quote token into the base token.
	Sell
	// Buy spends the base token on the quote token.
	Buy
)

func (a Action) String() string {
	switch a {
	case Sell:
		return "sell"
	case Buy:
		return "buy"
	default:
		return "noop"
	}
}

// Decision is a tagged variant: for NoOp From, To and Amount are zero values.
type Decision struct {
	Action Action
	From   token.Kind
	To     token.Kind
	Amount decimal.Decimal // human units of From
}

// IsNoOp reports whether the decision trades nothing.
func (d Decision) IsNoOp() bool { return d.Action == NoOp }

// Direction renders the decision as "sell PECA->SOL" using the symbols in set.
func (d Decision) Direction(set token.Set) string {
	if d.IsNoOp() {
		return "noop"
	}
	return fmt.Sprintf("%s %s->%s", d.Action, set.Get(d.From).Symbol, set.Get(d.To).Symbol)
}

// DefaultEpsilon absorbs fee and rounding dust on the base side.
var DefaultEpsilon = decimal.RequireFromString("0.01")

// Rotator holds 100% of the account in one token at a time: any quote balance is sold,
// otherwise the whole base balance (minus epsilon) buys quote.
type Rotator struct {
	epsilon decimal.Decimal
}

// NewRotator builds a rotator. A negative epsilon falls back to DefaultEpsilon.
func NewRotator(epsilon decimal.Decimal) *Rotator {
	if epsilon.IsNegative() {
		epsilon = DefaultEpsilon
	}
	return &Rotator{epsilon: epsilon}
}

// Name returns the identifier for logging.
func (r *Rotator) Name() string { return "Rotator" }

// Epsilon returns the base-side deduction.
func (r *Rotator) Epsilon() decimal.Decimal { return r.epsilon }

// Decide maps balances in human units to exactly one decision.
func (r *Rotator) Decide(base, quote decimal.Decimal) Decision {
	adjusted := base.Sub(r.epsilon)
	switch {
	case quote.IsPositive():
		return Decision{Action: Sell, From: token.Quote, To: token.Base, Amount: quote}
	case adjusted.IsPositive():
		return Decision{Action: Buy, From: token.Base, To: token.Quote, Amount: adjusted}
	default:
		return Decision{Action: NoOp}
	}
}

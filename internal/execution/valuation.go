package execution

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"solana-mmaker/internal/token"
)

// Valuer prices tokens in the reference token by quoting one whole unit.
type Valuer struct {
	Tokens      token.Set
	SlippageBps int
}

// UnitPrice is the reference-token value of one whole unit of d.
func (v Valuer) UnitPrice(ctx context.Context, q Quoter, d token.Descriptor) (decimal.Decimal, error) {
	ref := v.Tokens.Reference()
	if d.Mint == ref.Mint {
		return decimal.NewFromInt(1), nil
	}
	quote, err := q.GetQuote(ctx, d.Mint, ref.Mint, d.One(), v.SlippageBps)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %s in %s: %w", d.Symbol, ref.Symbol, err)
	}
	return ref.Human(quote.OutAmount), nil
}

// Holdings values base and quote balances together in the reference token. Zero balances
// are not quoted.
func (v Valuer) Holdings(ctx context.Context, q Quoter, base, quote decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, h := range []struct {
		d      token.Descriptor
		amount decimal.Decimal
	}{{v.Tokens.Base(), base}, {v.Tokens.Quote(), quote}} {
		if !h.amount.IsPositive() {
			continue
		}
		price, err := v.UnitPrice(ctx, q, h.d)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(h.amount.Mul(price))
	}
	return total, nil
}

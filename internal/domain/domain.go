// Package domain standardizes payloads shared between the chain adapters, the executor, and the scheduler.
package domain

import (
	"encoding/json"

	solana "github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"solana-mmaker/internal/token"
)

// Account is a managed keypair. Accounts are loaded once and never mutated.
type Account struct {
	Address string
	Key     solana.PrivateKey
}

// NewAccount derives the address from key.
func NewAccount(key solana.PrivateKey) Account {
	return Account{Address: key.PublicKey().String(), Key: key}
}

// PublicKey returns the account's on-chain identity.
func (a Account) PublicKey() solana.PublicKey { return a.Key.PublicKey() }

// BalanceSnapshot is a freshly read balance of one token for one account.
type BalanceSnapshot struct {
	Token  token.Descriptor
	Raw    uint64
	Amount decimal.Decimal
}

// NewBalanceSnapshot scales raw with the token's decimals.
func NewBalanceSnapshot(d token.Descriptor, raw uint64) BalanceSnapshot {
	return BalanceSnapshot{Token: d, Raw: raw, Amount: d.Human(raw)}
}

// Quote is an aggregator route for a fixed input amount. Only OutAmount is interpreted;
// Raw carries the aggregator's original payload so it can be replayed when building the swap.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	SlippageBps    int
	PriceImpactPct string
	Raw            json.RawMessage
}

// SwapPlan is an unsigned, serialized swap transaction.
type SwapPlan struct {
	Transaction          string // base64
	LastValidBlockHeight uint64
}

// SwapOutcome reports a submission. Dry runs never produce one.
type SwapOutcome struct {
	Submitted bool
	Signature string
}

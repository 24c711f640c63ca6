package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/token"
)

// BalanceReader queries native and SPL balances over RPC.
type BalanceReader struct {
	RPC    *rpc.Client
	Commit rpc.CommitmentType
}

// NewBalanceReader wraps an RPC client.
func NewBalanceReader(client *rpc.Client, commit string) *BalanceReader {
	return &BalanceReader{RPC: client, Commit: ParseCommitment(commit)}
}

// Balance returns a fresh snapshot of owner's holding of d. Holding none of an SPL token is a
// zero balance; query failures come back as *domain.RetrievalError.
func (b *BalanceReader) Balance(ctx context.Context, owner solana.PublicKey, d token.Descriptor) (domain.BalanceSnapshot, error) {
	var (
		raw uint64
		err error
	)
	if d.Native {
		raw, err = b.nativeBalance(ctx, owner)
	} else {
		raw, err = b.tokenBalance(ctx, owner, d.Mint)
	}
	if err != nil {
		return domain.BalanceSnapshot{}, &domain.RetrievalError{Account: owner.String(), Token: d.Symbol, Err: err}
	}
	return domain.NewBalanceSnapshot(d, raw), nil
}

func (b *BalanceReader) nativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := b.RPC.GetBalance(ctx, owner, b.Commit)
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	return out.Value, nil
}

type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount string `json:"amount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// tokenBalance sums every token account owner holds for mint.
func (b *BalanceReader) tokenBalance(ctx context.Context, owner solana.PublicKey, mint string) (uint64, error) {
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("mint %q: %w", mint, err)
	}
	out, err := b.RPC.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{Mint: &mintKey},
		&rpc.GetTokenAccountsOpts{Commitment: b.Commit, Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return 0, fmt.Errorf("getTokenAccountsByOwner: %w", err)
	}

	var total uint64
	for _, acc := range out.Value {
		if acc == nil || acc.Account.Data == nil {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(acc.Account.Data.GetRawJSON(), &parsed); err != nil {
			return 0, fmt.Errorf("decode token account %s: %w", acc.Pubkey, err)
		}
		if parsed.Parsed.Info.Mint != "" && parsed.Parsed.Info.Mint != mint {
			continue
		}
		amount, err := strconv.ParseUint(parsed.Parsed.Info.TokenAmount.Amount, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("token account %s amount: %w", acc.Pubkey, err)
		}
		if amount > math.MaxUint64-total {
			return 0, fmt.Errorf("token balance for %s overflows uint64", mint)
		}
		total += amount
	}
	return total, nil
}

// ParseCommitment maps a config string to an RPC commitment, defaulting to confirmed.
func ParseCommitment(commit string) rpc.CommitmentType {
	switch commit {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

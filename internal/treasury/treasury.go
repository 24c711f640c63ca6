// Package treasury moves SOL between the funding wallet and the managed accounts.
package treasury

import (
	"context"
	"errors"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	dex "solana-mmaker/internal/dex/solana"
	"solana-mmaker/internal/domain"
)

// FeeEstimate is the flat per-transfer fee reserve in lamports.
const FeeEstimate uint64 = 5000

// ErrInsufficientBalance is returned when a split would not cover the fee reserve.
var ErrInsufficientBalance = errors.New("insufficient balance after fees")

// RPC is the subset of the Solana client the treasury needs.
type RPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Transfer records one attempted movement of SOL.
type Transfer struct {
	From      string
	To        string
	Lamports  uint64
	Signature string
	Skipped   bool
	Err       error
}

// Treasury signs and sends plain system transfers.
type Treasury struct {
	RPC     RPC
	Commit  rpc.CommitmentType
	Confirm dex.Confirmer // optional
	Log     zerolog.Logger
}

// New builds a Treasury on top of client.
func New(client RPC, commit string, log zerolog.Logger) *Treasury {
	return &Treasury{RPC: client, Commit: dex.ParseCommitment(commit), Log: log}
}

// SplitEvenly returns the lamports each of n recipients receives from balance, with the fee
// reserve already deducted.
func SplitEvenly(balance uint64, n int) (uint64, error) {
	if n <= 0 {
		return 0, domain.ErrNoAccounts
	}
	per := balance / uint64(n)
	if per <= FeeEstimate {
		return 0, fmt.Errorf("%w: %d lamports over %d recipients", ErrInsufficientBalance, balance, n)
	}
	return per - FeeEstimate, nil
}

// Sweepable is the amount collect moves out of balance; ok is false when nothing is left
// after the fee reserve.
func Sweepable(balance uint64) (uint64, bool) {
	if balance <= FeeEstimate {
		return 0, false
	}
	return balance - FeeEstimate, true
}

// Distribute splits the funder's balance evenly over recipients. Per-recipient failures are
// recorded and do not stop the run.
func (t *Treasury) Distribute(ctx context.Context, funder solana.PrivateKey, recipients []solana.PublicKey) ([]Transfer, error) {
	bal, err := t.RPC.GetBalance(ctx, funder.PublicKey(), t.Commit)
	if err != nil {
		return nil, &domain.RetrievalError{Account: funder.PublicKey().String(), Token: "SOL", Err: err}
	}
	amount, err := SplitEvenly(bal.Value, len(recipients))
	if err != nil {
		return nil, err
	}
	t.Log.Info().
		Str("funder", funder.PublicKey().String()).
		Uint64("balance", bal.Value).
		Int("recipients", len(recipients)).
		Uint64("each", amount).
		Msg("distributing")

	transfers := make([]Transfer, 0, len(recipients))
	for _, to := range recipients {
		if err := ctx.Err(); err != nil {
			return transfers, err
		}
		tr := Transfer{From: funder.PublicKey().String(), To: to.String(), Lamports: amount}
		if !dex.IsOnCurve(to) {
			tr.Err = fmt.Errorf("recipient %s is not a wallet address", to)
		} else {
			tr.Signature, tr.Err = t.send(ctx, funder, to, amount)
		}
		t.logTransfer(tr)
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

// Collect sweeps every account's SOL, less the fee reserve, back to dest.
func (t *Treasury) Collect(ctx context.Context, dest solana.PublicKey, accounts []domain.Account) ([]Transfer, error) {
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}
	transfers := make([]Transfer, 0, len(accounts))
	for _, acc := range accounts {
		if err := ctx.Err(); err != nil {
			return transfers, err
		}
		tr := Transfer{From: acc.Address, To: dest.String()}
		bal, err := t.RPC.GetBalance(ctx, acc.PublicKey(), t.Commit)
		switch {
		case err != nil:
			tr.Err = &domain.RetrievalError{Account: acc.Address, Token: "SOL", Err: err}
		default:
			amount, ok := Sweepable(bal.Value)
			if !ok {
				tr.Skipped = true
				break
			}
			tr.Lamports = amount
			tr.Signature, tr.Err = t.send(ctx, acc.Key, dest, amount)
		}
		t.logTransfer(tr)
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

func (t *Treasury) send(ctx context.Context, from solana.PrivateKey, to solana.PublicKey, lamports uint64) (string, error) {
	recent, err := t.RPC.GetLatestBlockhash(ctx, t.Commit)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, from.PublicKey(), to).Build()},
		recent.Value.Blockhash,
		solana.TransactionPayer(from.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("build transfer: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	sig, err := t.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{PreflightCommitment: t.Commit})
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	if t.Confirm != nil {
		if err := t.Confirm.Confirm(ctx, sig, recent.Value.LastValidBlockHeight); err != nil {
			return sig.String(), fmt.Errorf("confirm: %w", err)
		}
	}
	return sig.String(), nil
}

func (t *Treasury) logTransfer(tr Transfer) {
	event := t.Log.Info()
	if tr.Err != nil {
		event = t.Log.Error().Err(tr.Err)
	}
	event.
		Str("from", tr.From).
		Str("to", tr.To).
		Uint64("lamports", tr.Lamports).
		Str("sig", tr.Signature).
		Bool("skipped", tr.Skipped).
		Msg("transfer")
}

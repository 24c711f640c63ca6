// Package solana adapts the Solana RPC and the Jupiter aggregator to the market maker's domain types.
package solana

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solana-mmaker/internal/domain"
)

// DefaultJupiterBase is the public aggregator endpoint.
const DefaultJupiterBase = "https://quote-api.jup.ag"

// ErrNoRoute is returned when the aggregator cannot route the requested amount.
var ErrNoRoute = errors.New("no route found")

// Confirmer waits until a submitted signature lands or fails.
type Confirmer interface {
	Confirm(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error
}

// JupiterClient is bound to one signing account.
type JupiterClient struct {
	Base    string
	RPC     *rpc.Client
	Owner   solana.PrivateKey
	Commit  rpc.CommitmentType
	Http    *http.Client
	Confirm Confirmer
}

type jupiterQuote struct {
	InputMint      string          `json:"inputMint"`
	OutputMint     string          `json:"outputMint"`
	InAmount       string          `json:"inAmount"`
	OutAmount      string          `json:"outAmount"`
	OtherAmount    string          `json:"otherAmountThreshold"`
	SlippageBps    int             `json:"slippageBps"`
	RoutePlan      json.RawMessage `json:"routePlan"`
	PriceImpactPct string          `json:"priceImpactPct"`
}

type jupiterError struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// NewJupiterClient builds a client for owner. A zero timeout leaves HTTP calls unbounded.
func NewJupiterClient(rpcClient *rpc.Client, base string, owner solana.PrivateKey, commit string, timeout time.Duration) *JupiterClient {
	if base == "" {
		base = DefaultJupiterBase
	}
	c := ParseCommitment(commit)
	return &JupiterClient{
		Base:    strings.TrimSuffix(base, "/"),
		RPC:     rpcClient,
		Owner:   owner,
		Commit:  c,
		Http:    &http.Client{Timeout: timeout},
		Confirm: &PollingConfirmer{RPC: rpcClient, Commit: c},
	}
}

// GetQuote asks for a route. amount is in smallest units of inputMint.
func (j *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*domain.Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", strconv.FormatUint(amount, 10))
	q.Set("slippageBps", strconv.Itoa(slippageBps))
	q.Set("onlyDirectRoutes", "false")
	u := j.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := j.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, quoteStatusError(resp.StatusCode, body)
	}

	var out jupiterQuote
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode quote: %w", err)
	}
	outAmount, err := strconv.ParseUint(out.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("quote outAmount %q: %w", out.OutAmount, err)
	}
	if outAmount == 0 {
		return nil, fmt.Errorf("%w: zero output for %d %s", ErrNoRoute, amount, inputMint)
	}
	inAmount, err := strconv.ParseUint(out.InAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("quote inAmount %q: %w", out.InAmount, err)
	}
	return &domain.Quote{
		InputMint:      out.InputMint,
		OutputMint:     out.OutputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		SlippageBps:    out.SlippageBps,
		PriceImpactPct: out.PriceImpactPct,
		Raw:            json.RawMessage(body),
	}, nil
}

func quoteStatusError(status int, body []byte) error {
	var je jupiterError
	_ = json.Unmarshal(body, &je)
	msg := strings.TrimSpace(je.Error)
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if noRoute(je.ErrorCode, msg) {
		return fmt.Errorf("%w: jupiter quote status %d: %s", ErrNoRoute, status, msg)
	}
	return fmt.Errorf("jupiter quote status %d: %s", status, msg)
}

// noRoute matches codes like COULD_NOT_FIND_ANY_ROUTE and NO_ROUTES_FOUND. Other 4xx
// replies (bad mint, bad amount) are request errors.
func noRoute(code, msg string) bool {
	if strings.Contains(strings.ToUpper(code), "ROUTE") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no route") || strings.Contains(lower, "could not find any route")
}

// GetSwapTransaction asks Jupiter for a ready-to-sign transaction for quote.
func (j *JupiterClient) GetSwapTransaction(ctx context.Context, quote *domain.Quote) (*domain.SwapPlan, error) {
	if quote == nil || len(quote.Raw) == 0 {
		return nil, errors.New("swap requires a quote returned by GetQuote")
	}
	payload := map[string]any{
		"userPublicKey":             j.Owner.PublicKey().String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
		"quoteResponse":             quote.Raw,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := j.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("jupiter swap status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var sr struct {
		SwapTransaction      string `json:"swapTransaction"` // base64-encoded tx (unsigned)
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode swap: %w", err)
	}
	if sr.SwapTransaction == "" {
		return nil, errors.New("jupiter swap returned no transaction")
	}
	return &domain.SwapPlan{Transaction: sr.SwapTransaction, LastValidBlockHeight: sr.LastValidBlockHeight}, nil
}

// ExecuteSwap signs plan locally, submits it, and waits for confirmation. The signature is
// returned whenever the transaction was sent, even if confirmation failed.
func (j *JupiterClient) ExecuteSwap(ctx context.Context, plan *domain.SwapPlan) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(plan.Transaction)
	if err != nil {
		return "", fmt.Errorf("decode tx: %w", err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", fmt.Errorf("unmarshal tx: %w", err)
	}

	// Placeholder signatures from the aggregator are replaced.
	tx.Signatures = nil
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(j.Owner.PublicKey()) {
			return &j.Owner
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	sig, err := j.RPC.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: j.Commit,
	})
	if err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	if j.Confirm == nil {
		return sig.String(), nil
	}
	if err := j.Confirm.Confirm(ctx, sig, plan.LastValidBlockHeight); err != nil {
		return sig.String(), fmt.Errorf("confirm: %w", err)
	}
	return sig.String(), nil
}

// PublicKey returns the signing account's address.
func (j *JupiterClient) PublicKey() solana.PublicKey { return j.Owner.PublicKey() }

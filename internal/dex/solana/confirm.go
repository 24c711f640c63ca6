package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
)

var (
	// ErrTransactionFailed means the transaction landed with an on-chain error.
	ErrTransactionFailed = errors.New("transaction failed on chain")
	// ErrBlockhashExpired means the chain moved past the transaction's last valid block height.
	ErrBlockhashExpired = errors.New("blockhash expired before confirmation")
)

const defaultConfirmInterval = time.Second

var commitmentRank = map[string]int{
	string(rpc.CommitmentProcessed): 1,
	string(rpc.CommitmentConfirmed): 2,
	string(rpc.CommitmentFinalized): 3,
}

// PollingConfirmer polls getSignatureStatuses until the target commitment is reached.
type PollingConfirmer struct {
	RPC      *rpc.Client
	Commit   rpc.CommitmentType
	Interval time.Duration
}

// Confirm blocks until sig reaches p.Commit, fails on chain, expires, or ctx ends.
func (p *PollingConfirmer) Confirm(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()
	for {
		if done, err := p.check(ctx, sig, lastValidBlockHeight); done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *PollingConfirmer) interval() time.Duration {
	if p.Interval <= 0 {
		return defaultConfirmInterval
	}
	return p.Interval
}

// check reports done=true once the outcome is final. RPC hiccups are not final, but the
// expiry check still runs whenever no status could be read.
func (p *PollingConfirmer) check(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) (bool, error) {
	out, err := p.RPC.GetSignatureStatuses(ctx, true, sig)
	if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
		status := out.Value[0]
		if status.Err != nil {
			return true, fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
		}
		if commitmentRank[string(status.ConfirmationStatus)] >= commitmentRank[string(p.Commit)] {
			return true, nil
		}
		return false, nil
	}
	return p.expired(ctx, lastValidBlockHeight)
}

func (p *PollingConfirmer) expired(ctx context.Context, lastValidBlockHeight uint64) (bool, error) {
	if lastValidBlockHeight == 0 {
		return false, nil
	}
	height, err := p.RPC.GetBlockHeight(ctx, p.Commit)
	if err == nil && height > lastValidBlockHeight {
		return true, ErrBlockhashExpired
	}
	return false, nil
}

// WSConfirmer listens for signatureNotification and keeps polling alongside, which covers
// signatures that land before the subscription and blockhash expiry.
type WSConfirmer struct {
	Endpoint string
	Poll     *PollingConfirmer
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	Method string `json:"method"`
	Params struct {
		Result struct {
			Value struct {
				Err json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

// Confirm waits for the first of: a websocket notification, a final polled status, ctx end.
// A websocket that cannot be dialed degrades to polling only.
func (w *WSConfirmer) Confirm(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.Endpoint, nil)
	if err != nil {
		return w.Poll.Confirm(ctx, sig, lastValidBlockHeight)
	}
	defer conn.Close()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params:  []interface{}{sig.String(), map[string]string{"commitment": string(w.Poll.Commit)}},
	}
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(req); err != nil {
		return w.Poll.Confirm(ctx, sig, lastValidBlockHeight)
	}

	notified := make(chan error, 1)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsMessage
			if err := json.Unmarshal(message, &msg); err != nil || msg.Method != "signatureNotification" {
				continue
			}
			notified <- notificationError(msg.Params.Result.Value.Err)
			return
		}
	}()

	ticker := time.NewTicker(w.Poll.interval())
	defer ticker.Stop()
	for {
		select {
		case err := <-notified:
			return err
		case <-ticker.C:
			if done, err := w.Poll.check(ctx, sig, lastValidBlockHeight); done {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func notificationError(raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrTransactionFailed, trimmed)
}

// WebsocketURL derives the pubsub endpoint from an HTTP RPC endpoint.
func WebsocketURL(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	default:
		return rpcURL
	}
}

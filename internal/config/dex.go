package config

import (
	"fmt"
	"time"

	"solana-mmaker/internal/token"
)

// Dex defines network endpoints and defaults for decentralized execution.
type Dex struct {
	Chain         string `yaml:"chain"` // e.g. "solana"
	RpcURL        string `yaml:"rpc_url"`
	WsURL         string `yaml:"ws_url"`     // empty derives from rpc_url
	Commitment    string `yaml:"commitment"` // processed|confirmed|finalized
	JupiterBase   string `yaml:"jupiter_base"`
	HTTPTimeoutMs int    `yaml:"http_timeout_ms"` // 0 = no timeout
}

// HTTPTimeout bounds aggregator calls. Zero means unbounded.
func (d Dex) HTTPTimeout() time.Duration {
	return time.Duration(d.HTTPTimeoutMs) * time.Millisecond
}

// DefaultKeypairsCSV is read when KEYPAIRS_CSV is unset; only this path may be absent.
const DefaultKeypairsCSV = "./keypairs.csv"

// Wallet locates signing material. Secrets normally come from the environment.
type Wallet struct {
	PrivateKey  string `yaml:"private_key"`
	KeypairsCSV string `yaml:"keypairs_csv"`
}

// KeypairsRequired reports whether KeypairsCSV was chosen explicitly, in which case a
// missing file is an error rather than a reason to fall back to PrivateKey.
func (w Wallet) KeypairsRequired() bool {
	return w.KeypairsCSV != "" && w.KeypairsCSV != DefaultKeypairsCSV
}

// TokenConfig is one token's identity.
type TokenConfig struct {
	Mint     string `yaml:"mint"`
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
}

// Tokens names the traded pair and the valuation token.
type Tokens struct {
	Base      TokenConfig `yaml:"base"`
	Quote     TokenConfig `yaml:"quote"`
	Reference TokenConfig `yaml:"reference"`
}

func (t TokenConfig) descriptor() (token.Descriptor, error) {
	if t.Decimals < 0 || t.Decimals > token.MaxDecimals {
		return token.Descriptor{}, fmt.Errorf("%s: decimals %d outside 0..%d", t.Symbol, t.Decimals, token.MaxDecimals)
	}
	return token.Descriptor{
		Mint:     t.Mint,
		Symbol:   t.Symbol,
		Decimals: uint8(t.Decimals),
		Native:   t.Mint == token.SOLMint,
	}, nil
}

// TokenSet builds the immutable token set.
func (c *Config) TokenSet() (token.Set, error) {
	var ds [3]token.Descriptor
	for i, tc := range []TokenConfig{c.Tokens.Base, c.Tokens.Quote, c.Tokens.Reference} {
		d, err := tc.descriptor()
		if err != nil {
			return token.Set{}, err
		}
		ds[i] = d
	}
	return token.NewSet(ds[0], ds[1], ds[2])
}

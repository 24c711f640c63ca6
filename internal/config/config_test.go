package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/token"
)

// clearEnv blanks every key ApplyEnv reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MM_CONFIG", "SOLANA_RPC_ENDPOINT", "SOLANA_WS_ENDPOINT", "SOLANA_COMMITMENT", "JUPITER_BASE_URL",
		"HTTP_TIMEOUT_MS", "SOLANA_PK", "KEYPAIRS_CSV", "ENABLE_TRADING", "SLIPPAGE_BPS", "BASE_EPSILON",
		"ACCOUNT_DELAY_MS", "ROUND_DELAY_MS", "VALUATION_ENABLED", "STRATEGY", "LOG_LEVEL", "LOG_FILE", "METRICS_ADDR",
		"BASE_MINT", "BASE_SYMBOL", "BASE_DECIMALS", "QUOTE_MINT", "QUOTE_SYMBOL", "QUOTE_DECIMALS",
		"REFERENCE_MINT", "REFERENCE_SYMBOL", "REFERENCE_DECIMALS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad(t *testing.T) {
	path := filepath.Join("testdata", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Name != "mmaker-test" {
		t.Fatalf("unexpected App.Name: %s", cfg.App.Name)
	}
	if cfg.Dex.Commitment != "processed" {
		t.Fatalf("expected processed commitment, got %s", cfg.Dex.Commitment)
	}
	if cfg.Dex.HTTPTimeout() != 15*time.Second {
		t.Fatalf("unexpected http timeout %s", cfg.Dex.HTTPTimeout())
	}
	if cfg.Trading.SlippageBps != 100 {
		t.Fatalf("expected slippage 100 bps, got %d", cfg.Trading.SlippageBps)
	}
	if !cfg.Epsilon().Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("unexpected epsilon %s", cfg.Epsilon())
	}
	if cfg.AccountDelay() != 500*time.Millisecond || cfg.RoundDelay() != time.Minute {
		t.Fatalf("unexpected delays %s %s", cfg.AccountDelay(), cfg.RoundDelay())
	}
	if !cfg.Trading.Valuation || cfg.Trading.Enabled {
		t.Fatalf("unexpected trading flags %+v", cfg.Trading)
	}
	// Unset leaves keep their defaults.
	if cfg.Tokens.Base.Symbol != "SOL" || cfg.Tokens.Reference.Symbol != "USDC" {
		t.Fatalf("defaults should survive partial token config: %+v", cfg.Tokens)
	}
	set, err := cfg.TokenSet()
	if err != nil {
		t.Fatalf("TokenSet: %v", err)
	}
	if set.Quote().Symbol != "BONK" || set.Quote().Decimals != 5 || set.Quote().Native {
		t.Fatalf("unexpected quote descriptor %+v", set.Quote())
	}
	if !set.Base().Native {
		t.Fatalf("SOL base should read the native balance")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 50, cfg.Trading.SlippageBps)
	assert.Equal(t, 2*time.Second, cfg.AccountDelay())
	assert.Zero(t, cfg.RoundDelay())
	assert.Zero(t, cfg.Dex.HTTPTimeout())
	assert.False(t, cfg.Trading.Enabled)
	assert.Equal(t, "confirmed", cfg.Dex.Commitment)
	assert.True(t, cfg.Epsilon().Equal(decimal.RequireFromString("0.01")))

	set, err := cfg.TokenSet()
	require.NoError(t, err)
	assert.Equal(t, token.DefaultSet(), set)
}

func TestLoadFromEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	src, err := os.ReadFile(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile("custom.yaml", src, 0o600))

	t.Setenv("MM_CONFIG", "custom.yaml")
	t.Setenv("SOLANA_RPC_ENDPOINT", "https://override.example.org")
	t.Setenv("ENABLE_TRADING", "true")
	t.Setenv("SLIPPAGE_BPS", "25")
	t.Setenv("QUOTE_DECIMALS", "6")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.org", cfg.Dex.RpcURL)
	assert.True(t, cfg.Trading.Enabled)
	assert.Equal(t, 25, cfg.Trading.SlippageBps)
	assert.Equal(t, 6, cfg.Tokens.Quote.Decimals)
	assert.Equal(t, "BONK", cfg.Tokens.Quote.Symbol, "file value kept when env is unset")
}

func TestLoadFromEnvWithoutFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("SOLANA_RPC_ENDPOINT", "http://127.0.0.1:8899")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8899", cfg.Dex.RpcURL)
	assert.Equal(t, "./keypairs.csv", cfg.Wallet.KeypairsCSV)
	assert.False(t, cfg.Wallet.KeypairsRequired())
}

func TestKeypairsRequired(t *testing.T) {
	assert.False(t, Wallet{}.KeypairsRequired())
	assert.False(t, Wallet{KeypairsCSV: DefaultKeypairsCSV}.KeypairsRequired())
	assert.True(t, Wallet{KeypairsCSV: "/secrets/fleet.csv"}.KeypairsRequired())
}

func TestLoadFromEnvReadsDotEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("ACCOUNT_DELAY_MS=10\n"), 0o600))
	t.Setenv("SOLANA_RPC_ENDPOINT", "http://127.0.0.1:8899")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Millisecond, cfg.AccountDelay())
}

func TestLoadFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"SOLANA_RPC_ENDPOINT": {},
		"SLIPPAGE_BPS":        {"SOLANA_RPC_ENDPOINT": "http://x", "SLIPPAGE_BPS": "lots"},
		"ENABLE_TRADING":      {"SOLANA_RPC_ENDPOINT": "http://x", "ENABLE_TRADING": "maybe"},
		"BASE_EPSILON":        {"SOLANA_RPC_ENDPOINT": "http://x", "BASE_EPSILON": "-1"},
		"SOLANA_COMMITMENT":   {"SOLANA_RPC_ENDPOINT": "http://x", "SOLANA_COMMITMENT": "eventually"},
		"STRATEGY":            {"SOLANA_RPC_ENDPOINT": "http://x", "STRATEGY": "grid"},
		"tokens":              {"SOLANA_RPC_ENDPOINT": "http://x", "QUOTE_MINT": token.SOLMint},
		"MM_CONFIG":           {"MM_CONFIG": "nope.yaml"},
	}
	for field, env := range cases {
		t.Run(field, func(t *testing.T) {
			clearEnv(t)
			chdir(t, t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Dex.RpcURL = "https://rpc.example.org"
	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Error(t, Save(path, nil))
}

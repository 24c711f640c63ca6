package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"solana-mmaker/internal/domain"
)

func loadDotEnv() {
	_ = godotenv.Load() // best-effort
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &domain.ConfigError{Field: k, Err: err}
	}
	return n, nil
}

func getEnvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &domain.ConfigError{Field: k, Err: err}
	}
	return b, nil
}

// ApplyEnv overlays process environment variables onto c.
func (c *Config) ApplyEnv() error {
	c.Dex.RpcURL = getEnv("SOLANA_RPC_ENDPOINT", c.Dex.RpcURL)
	c.Dex.WsURL = getEnv("SOLANA_WS_ENDPOINT", c.Dex.WsURL)
	c.Dex.Commitment = strings.ToLower(getEnv("SOLANA_COMMITMENT", c.Dex.Commitment))
	c.Dex.JupiterBase = getEnv("JUPITER_BASE_URL", c.Dex.JupiterBase)
	c.Wallet.PrivateKey = getEnv("SOLANA_PK", c.Wallet.PrivateKey)
	c.Wallet.KeypairsCSV = getEnv("KEYPAIRS_CSV", c.Wallet.KeypairsCSV)
	c.Trading.Epsilon = getEnv("BASE_EPSILON", c.Trading.Epsilon)
	c.Trading.Strategy = getEnv("STRATEGY", c.Trading.Strategy)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
	c.App.LogFile = getEnv("LOG_FILE", c.App.LogFile)
	c.App.MetricsAddr = getEnv("METRICS_ADDR", c.App.MetricsAddr)

	var err error
	if c.Dex.HTTPTimeoutMs, err = getEnvInt("HTTP_TIMEOUT_MS", c.Dex.HTTPTimeoutMs); err != nil {
		return err
	}
	if c.Trading.SlippageBps, err = getEnvInt("SLIPPAGE_BPS", c.Trading.SlippageBps); err != nil {
		return err
	}
	if c.Trading.AccountDelayMs, err = getEnvInt("ACCOUNT_DELAY_MS", c.Trading.AccountDelayMs); err != nil {
		return err
	}
	if c.Trading.RoundDelayMs, err = getEnvInt("ROUND_DELAY_MS", c.Trading.RoundDelayMs); err != nil {
		return err
	}
	if c.Trading.Enabled, err = getEnvBool("ENABLE_TRADING", c.Trading.Enabled); err != nil {
		return err
	}
	if c.Trading.Valuation, err = getEnvBool("VALUATION_ENABLED", c.Trading.Valuation); err != nil {
		return err
	}

	for prefix, tc := range map[string]*TokenConfig{
		"BASE":      &c.Tokens.Base,
		"QUOTE":     &c.Tokens.Quote,
		"REFERENCE": &c.Tokens.Reference,
	} {
		tc.Mint = getEnv(prefix+"_MINT", tc.Mint)
		tc.Symbol = getEnv(prefix+"_SYMBOL", tc.Symbol)
		if tc.Decimals, err = getEnvInt(prefix+"_DECIMALS", tc.Decimals); err != nil {
			return fmt.Errorf("%s token: %w", strings.ToLower(prefix), err)
		}
	}
	return nil
}

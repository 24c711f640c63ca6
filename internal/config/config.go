// Package config exposes strongly typed application configuration loaded from YAML, a .env
// file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/strategy"
	"solana-mmaker/internal/token"
)

// DefaultPath is read when MM_CONFIG is unset. Its absence is not an error.
const DefaultPath = "config.yaml"

// App captures process-wide runtime settings such as name, metrics, and logging.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
}

// Trading holds the decision and pacing knobs.
type Trading struct {
	Enabled        bool   `yaml:"enabled"`
	Strategy       string `yaml:"strategy"`
	SlippageBps    int    `yaml:"slippage_bps"`
	Epsilon        string `yaml:"epsilon"`
	AccountDelayMs int    `yaml:"account_delay_ms"`
	RoundDelayMs   int    `yaml:"round_delay_ms"`
	Valuation      bool   `yaml:"valuation"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App     App     `yaml:"app"`
	Dex     Dex     `yaml:"dex"`
	Wallet  Wallet  `yaml:"wallet"`
	Trading Trading `yaml:"trading"`
	Tokens  Tokens  `yaml:"tokens"`
}

// Default returns the built-in settings every other source overrides.
func Default() *Config {
	return &Config{
		App: App{Name: "solana-mmaker", LogLevel: "info"},
		Dex: Dex{
			Chain:       "solana",
			Commitment:  "confirmed",
			JupiterBase: "https://quote-api.jup.ag",
		},
		Wallet: Wallet{KeypairsCSV: DefaultKeypairsCSV},
		Trading: Trading{
			Strategy:       "rotator",
			SlippageBps:    50,
			Epsilon:        "0.01",
			AccountDelayMs: 2000,
		},
		Tokens: Tokens{
			Base:      TokenConfig{Mint: token.SOLMint, Symbol: "SOL", Decimals: 9},
			Quote:     TokenConfig{Mint: token.PECAMint, Symbol: "PECA", Decimals: 6},
			Reference: TokenConfig{Mint: token.USDCMint, Symbol: "USDC", Decimals: 6},
		},
	}
}

// Load reads a YAML file from disk on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return config, nil
}

// LoadFromEnv resolves the full configuration: defaults, the optional YAML file named by
// MM_CONFIG, .env, the process environment, then validation.
func LoadFromEnv() (*Config, error) {
	loadDotEnv()
	path := os.Getenv("MM_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	cfg, err := Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, &domain.ConfigError{Field: "MM_CONFIG", Err: err}
		}
		cfg = Default()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c *Config) Validate() error {
	if c.Dex.RpcURL == "" {
		return &domain.ConfigError{Field: "SOLANA_RPC_ENDPOINT", Err: errors.New("required")}
	}
	if _, err := c.TokenSet(); err != nil {
		return &domain.ConfigError{Field: "tokens", Err: err}
	}
	if c.Trading.SlippageBps < 0 || c.Trading.SlippageBps > 10_000 {
		return &domain.ConfigError{Field: "SLIPPAGE_BPS", Err: fmt.Errorf("%d outside 0..10000", c.Trading.SlippageBps)}
	}
	eps, err := decimal.NewFromString(c.Trading.Epsilon)
	if err != nil {
		return &domain.ConfigError{Field: "BASE_EPSILON", Err: err}
	}
	if eps.IsNegative() {
		return &domain.ConfigError{Field: "BASE_EPSILON", Err: errors.New("must not be negative")}
	}
	if c.Trading.AccountDelayMs < 0 || c.Trading.RoundDelayMs < 0 || c.Dex.HTTPTimeoutMs < 0 {
		return &domain.ConfigError{Field: "delays", Err: errors.New("durations must not be negative")}
	}
	switch c.Dex.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return &domain.ConfigError{Field: "SOLANA_COMMITMENT", Err: fmt.Errorf("unknown level %q", c.Dex.Commitment)}
	}
	if !strategy.Supported(c.Trading.Strategy) {
		return &domain.ConfigError{Field: "STRATEGY", Err: fmt.Errorf("%w %q", strategy.ErrUnknownStrategy, c.Trading.Strategy)}
	}
	return nil
}

// Epsilon returns the validated base-side deduction.
func (c *Config) Epsilon() decimal.Decimal {
	eps, err := decimal.NewFromString(c.Trading.Epsilon)
	if err != nil {
		return decimal.RequireFromString("0.01")
	}
	return eps
}

// AccountDelay is the pause after each account.
func (c *Config) AccountDelay() time.Duration {
	return time.Duration(c.Trading.AccountDelayMs) * time.Millisecond
}

// RoundDelay is the pause after each full pass. Zero disables it.
func (c *Config) RoundDelay() time.Duration {
	return time.Duration(c.Trading.RoundDelayMs) * time.Millisecond
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

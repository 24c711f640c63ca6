package solana

import (
	"errors"
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
)

// Environment keys checked for a single signing secret, in order.
var privateKeyEnvKeys = []string{"SOLANA_PK", "SOLANA_PRIVATE_KEY_BASE58"}

// LoadPrivateKeyFromEnv reads the signing secret (base58 or base64) from the environment.
func LoadPrivateKeyFromEnv() (solana.PrivateKey, error) {
	_ = godotenv.Load() // best-effort
	for _, k := range privateKeyEnvKeys {
		if v := os.Getenv(k); v != "" {
			key, err := DecodeSecret(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			return key, nil
		}
	}
	return nil, errors.New("SOLANA_PK not set")
}

package treasury

import (
	"fmt"
	"io"
	"os"

	solana "github.com/gagliardetto/solana-go"

	dex "solana-mmaker/internal/dex/solana"
)

// Keygen writes n fresh keypairs to w in the accounts CSV layout.
func Keygen(w io.Writer, n int) ([]solana.PrivateKey, error) {
	if n <= 0 {
		return nil, fmt.Errorf("keygen: count must be positive, got %d", n)
	}
	keys := make([]solana.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	if err := dex.WriteAccounts(w, keys); err != nil {
		return nil, fmt.Errorf("write accounts: %w", err)
	}
	return keys, nil
}

// KeygenFile is Keygen into a new file at path. Existing files are never overwritten.
func KeygenFile(path string, n int) ([]solana.PrivateKey, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	keys, err := Keygen(file, n)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return keys, nil
}

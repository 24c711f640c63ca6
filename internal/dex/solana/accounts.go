package solana

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	solana "github.com/gagliardetto/solana-go"

	"solana-mmaker/internal/domain"
)

// CSV column names. Headers are matched case-insensitively with spaces folded to underscores,
// so "Private Key" is accepted too.
const (
	ColumnAddress    = "address"
	ColumnPrivateKey = "private_key"
)

// LoadAccountsCSV reads the ordered account list from path.
func LoadAccountsCSV(path string) ([]domain.Account, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open accounts: %w", err)
	}
	defer file.Close()
	accounts, err := ReadAccounts(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return accounts, nil
}

// ResolveAccounts loads the CSV at csvPath. When that file does not exist and required is
// false, the signing secret, if any, becomes the only account.
func ResolveAccounts(csvPath, secret string, required bool) ([]domain.Account, error) {
	if csvPath != "" {
		accounts, err := LoadAccountsCSV(csvPath)
		if err == nil || required || !errors.Is(err, fs.ErrNotExist) {
			return accounts, err
		}
	}
	if strings.TrimSpace(secret) == "" {
		return nil, domain.ErrNoAccounts
	}
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	return []domain.Account{domain.NewAccount(key)}, nil
}

// ReadAccounts parses `address,private_key` rows, preserving file order.
func ReadAccounts(r io.Reader) ([]domain.Account, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrNoAccounts
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	addrCol, keyCol := -1, -1
	for i, h := range header {
		switch normalizeHeader(h) {
		case ColumnAddress:
			addrCol = i
		case ColumnPrivateKey:
			keyCol = i
		}
	}
	if keyCol < 0 {
		return nil, fmt.Errorf("missing %q column", ColumnPrivateKey)
	}

	var accounts []domain.Account
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if keyCol >= len(row) || strings.TrimSpace(row[keyCol]) == "" {
			continue
		}
		key, err := DecodeSecret(row[keyCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		account := domain.NewAccount(key)
		if addrCol >= 0 && addrCol < len(row) {
			if addr := strings.TrimSpace(row[addrCol]); addr != "" && addr != account.Address {
				return nil, fmt.Errorf("line %d: address %s does not match key %s", line, addr, account.Address)
			}
		}
		accounts = append(accounts, account)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}
	return accounts, nil
}

// WriteAccounts emits the CSV layout ReadAccounts understands, secrets in base64.
func WriteAccounts(w io.Writer, keys []solana.PrivateKey) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnAddress, ColumnPrivateKey}); err != nil {
		return err
	}
	for _, key := range keys {
		if err := writer.Write([]string{key.PublicKey().String(), EncodeSecretBase64(key)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.ReplaceAll(h, " ", "_")
}

package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	solana "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ErrInvalidSecret is returned when a secret is neither a base64 nor a base58 64-byte ed25519 key.
var ErrInvalidSecret = errors.New("secret is not a 64-byte ed25519 key in base64 or base58")

// DecodeSecret accepts the base64 form written by the keypair generator as well as the base58
// form exported by wallets.
func DecodeSecret(secret string) (solana.PrivateKey, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrInvalidSecret
	}
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) == ed25519.PrivateKeySize {
		if key, err := checkKey(raw); err == nil {
			return key, nil
		}
	}
	raw, err := base58.Decode(secret)
	if err != nil || len(raw) != ed25519.PrivateKeySize {
		return nil, ErrInvalidSecret
	}
	return checkKey(raw)
}

// EncodeSecretBase64 is the inverse of the base64 branch of DecodeSecret.
func EncodeSecretBase64(key solana.PrivateKey) string {
	return base64.StdEncoding.EncodeToString(key)
}

// checkKey verifies the public half of a 64-byte secret matches its seed.
func checkKey(raw []byte) (solana.PrivateKey, error) {
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidSecret)
	}
	return solana.PrivateKey(derived), nil
}

// IsOnCurve reports whether pub is a valid ed25519 point, i.e. a wallet address rather than a
// program-derived address.
func IsOnCurve(pub solana.PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pub[:])
	return err == nil
}

package token

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrNegativeAmount is returned when a negative human amount is converted to raw units.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ToRaw converts a human-scaled amount into smallest units, flooring any fraction below one
// smallest unit. The arithmetic is exact decimal, never float.
func ToRaw(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	raw := amount.Shift(int32(decimals)).Floor().BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %s with %d decimals overflows uint64", amount, decimals)
	}
	return raw.Uint64(), nil
}

// FromRaw scales a smallest-unit amount back to human units.
func FromRaw(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}

// Human converts raw into d's human units.
func (d Descriptor) Human(raw uint64) decimal.Decimal { return FromRaw(raw, d.Decimals) }

// Raw converts amount into d's smallest units.
func (d Descriptor) Raw(amount decimal.Decimal) (uint64, error) { return ToRaw(amount, d.Decimals) }

// One is a single whole token in smallest units.
func (d Descriptor) One() uint64 {
	raw, _ := ToRaw(decimal.NewFromInt(1), d.Decimals)
	return raw
}

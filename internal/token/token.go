// Package token describes the fixed trio of tokens the market maker knows about and converts
// between human-scaled amounts and smallest on-chain units.
package token

import (
	"fmt"
	"strings"
)

// Kind tags one of the three supported tokens.
type Kind int

const (
	// Base is the native rotation anchor (SOL by default).
	Base Kind = iota
	// Quote is the secondary token traded against Base.
	Quote
	// Reference is only used to value holdings.
	Reference
)

// Well-known mainnet mints used as defaults.
const (
	SOLMint  = "So11111111111111111111111111111111111111112"
	PECAMint = "9fdtbXT9wVz2sPnjj9MaMHjmBGHvshMgSzz4FTHQYQT4"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// MaxDecimals bounds descriptor precision; SPL mints cannot exceed it either.
const MaxDecimals = 18

func (k Kind) String() string {
	switch k {
	case Base:
		return "base"
	case Quote:
		return "quote"
	case Reference:
		return "reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Descriptor is the immutable identity of a token.
type Descriptor struct {
	Kind     Kind
	Mint     string
	Symbol   string
	Decimals uint8
	// Native marks the chain's own currency, whose balance lives on the account itself.
	Native bool
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Symbol, shortMint(d.Mint))
}

// Set holds exactly one descriptor per Kind.
type Set struct {
	tokens [3]Descriptor
}

// NewSet validates and assembles the configured pair plus the reference token.
func NewSet(base, quote, reference Descriptor) (Set, error) {
	base.Kind, quote.Kind, reference.Kind = Base, Quote, Reference
	var s Set
	for _, d := range []Descriptor{base, quote, reference} {
		if strings.TrimSpace(d.Mint) == "" {
			return Set{}, fmt.Errorf("%s token: mint is required", d.Kind)
		}
		if d.Decimals > MaxDecimals {
			return Set{}, fmt.Errorf("%s token: decimals %d exceeds %d", d.Kind, d.Decimals, MaxDecimals)
		}
		if d.Symbol == "" {
			d.Symbol = shortMint(d.Mint)
		}
		s.tokens[d.Kind] = d
	}
	if base.Mint == quote.Mint {
		return Set{}, fmt.Errorf("base and quote tokens share mint %s", base.Mint)
	}
	return s, nil
}

// DefaultSet is the SOL/PECA pair valued in USDC.
func DefaultSet() Set {
	s, _ := NewSet(
		Descriptor{Mint: SOLMint, Symbol: "SOL", Decimals: 9, Native: true},
		Descriptor{Mint: PECAMint, Symbol: "PECA", Decimals: 6},
		Descriptor{Mint: USDCMint, Symbol: "USDC", Decimals: 6},
	)
	return s
}

// Get returns the descriptor for k. It panics on an unknown kind.
func (s Set) Get(k Kind) Descriptor {
	if k < Base || k > Reference {
		panic(fmt.Sprintf("token: unknown kind %d", int(k)))
	}
	return s.tokens[k]
}

// Base returns the base token descriptor.
func (s Set) Base() Descriptor { return s.tokens[Base] }

// Quote returns the quote token descriptor.
func (s Set) Quote() Descriptor { return s.tokens[Quote] }

// Reference returns the valuation token descriptor.
func (s Set) Reference() Descriptor { return s.tokens[Reference] }

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:4] + ".." + mint[len(mint)-4:]
}

package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Strategy defines behaviour shared by decision policies used by the scheduler.
type Strategy interface {
	Decide(base, quote decimal.Decimal) Decision
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	Epsilon decimal.Decimal
}

// ErrUnknownStrategy is returned for a mode no constructor handles.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Supported reports whether Build accepts mode. Empty selects the rotator.
func Supported(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "rotate", "rotator":
		return true
	}
	return false
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	if !Supported(mode) {
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, mode)
	}
	return NewRotator(params.Epsilon), nil
}

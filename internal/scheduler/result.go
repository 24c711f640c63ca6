package scheduler

import (
	"time"

	"solana-mmaker/internal/domain"
	"solana-mmaker/internal/strategy"
)

// AccountResult is the outcome of one account's cycle. Exactly one of Outcome, Err or Skipped
// describes what happened; a dry run or NoOp leaves all three empty.
type AccountResult struct {
	Index    int
	Address  string
	Decision strategy.Decision
	Outcome  *domain.SwapOutcome
	Skipped  bool
	Err      error
}

// OK reports whether the cycle finished without error.
func (r AccountResult) OK() bool { return r.Err == nil }

// RoundReport lists one round's results in processing order.
type RoundReport struct {
	Round    uint64
	Started  time.Time
	Finished time.Time
	Results  []AccountResult
}

// Failed counts results carrying an error.
func (r RoundReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Submitted counts swaps that reached the chain.
func (r RoundReport) Submitted() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome != nil && res.Outcome.Submitted {
			n++
		}
	}
	return n
}

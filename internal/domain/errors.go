package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoAccounts is returned when the account source yields nothing to manage.
var ErrNoAccounts = errors.New("no accounts loaded")

// ConfigError is a startup failure. The process must not proceed.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RetrievalError means a balance or account query could not complete.
type RetrievalError struct {
	Account string
	Token   string
	Err     error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s balance for %s: %v", e.Token, e.Account, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// QuoteUnavailableError means the aggregator produced no usable route or swap transaction.
type QuoteUnavailableError struct {
	Account   string
	Direction string
	Err       error
}

func (e *QuoteUnavailableError) Error() string {
	return fmt.Sprintf("quote unavailable for %s (%s): %v", e.Account, e.Direction, e.Err)
}

func (e *QuoteUnavailableError) Unwrap() error { return e.Err }

// SubmissionError covers signing, broadcast, and confirmation failures.
type SubmissionError struct {
	Account   string
	Direction string
	Signature string // empty when the transaction never left the process
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Signature != "" {
		return fmt.Sprintf("submit swap for %s (%s) sig=%s: %v", e.Account, e.Direction, e.Signature, e.Err)
	}
	return fmt.Sprintf("submit swap for %s (%s): %v", e.Account, e.Direction, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ErrorKind labels err for logs and metrics.
func ErrorKind(err error) string {
	var (
		cfgErr    *ConfigError
		retErr    *RetrievalError
		quoteErr  *QuoteUnavailableError
		submitErr *SubmissionError
	)
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &retErr):
		return "retrieval"
	case errors.As(err, &quoteErr):
		return "quote_unavailable"
	case errors.As(err, &submitErr):
		return "submission"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}

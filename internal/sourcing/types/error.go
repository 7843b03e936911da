package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Configuration errors
	ErrInvalidSourceID          = errors.New("invalid source ID")
	ErrInvalidSourceName        = errors.New("invalid source name")
	ErrInvalidAPIHost           = errors.New("invalid API host")
	ErrInvalidTier              = errors.New("invalid source tier")
	ErrMissingAPIKey            = errors.New("missing API key")
	ErrMissingClientCredentials = errors.New("missing client credentials")

	// Intent errors
	ErrEmptyIntent     = errors.New("intent has no category, query or keywords")
	ErrInvalidBudget   = errors.New("budget minimum exceeds maximum")
	ErrNegativeBudget  = errors.New("budget bounds must not be negative")
	ErrUnsupportedTerm = errors.New("unsupported mandatory constraint")

	// Source errors
	ErrSourceNotFound    = errors.New("source not found")
	ErrSourceCoolingDown = errors.New("source cooling down")
	ErrBudgetExhausted   = errors.New("source call budget exhausted")
	ErrInvalidResponse   = errors.New("invalid response from source")
)

// ErrorKind classifies a failed source call.
type ErrorKind string

const (
	KindNetwork     ErrorKind = "network"
	KindTimeout     ErrorKind = "timeout"
	KindHTTP        ErrorKind = "http"
	KindRateLimited ErrorKind = "rate_limited"
	KindExhausted   ErrorKind = "exhausted"
	KindDecode      ErrorKind = "decode"
)

// ProviderError wraps source-specific call failures
type ProviderError struct {
	Source     SourceID
	Kind       ErrorKind
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	code := string(e.Kind)
	if e.StatusCode != 0 {
		code = fmt.Sprintf("HTTP_%d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Source, code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Source, code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is eligible for a retry.
func (e *ProviderError) Transient() bool {
	return e.Kind == KindNetwork
}

// AdapterBuildError reports an intent that a source cannot represent.
type AdapterBuildError struct {
	Source     SourceID
	Constraint string
	Reason     string
}

func (e *AdapterBuildError) Error() string {
	return fmt.Sprintf("[%s] cannot build query: %s (%s)", e.Source, e.Constraint, e.Reason)
}

func (e *AdapterBuildError) Unwrap() error {
	return ErrUnsupportedTerm
}

// AsProviderError extracts a *ProviderError from err.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

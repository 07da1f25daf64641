package domain

import (
	"errors"
	"fmt"
)

// Upstream and conversion errors. The retryable subset is recovered inside
// the resilience pipeline; everything else surfaces to the caller, where the
// HTTP layer collapses it into a generic "rate unavailable" response.
var (
	// ErrUpstreamTransient indicates a failure worth retrying: 5xx,
	// connection failures, attempt timeouts.
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")

	// ErrRateLimited indicates the upstream throttled us. Retryable, but
	// also a backpressure signal.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrCurrencyNotFound indicates the upstream does not recognize the
	// requested base currency. Never retried.
	ErrCurrencyNotFound = errors.New("currency not recognized by upstream")

	// ErrCircuitOpen is returned without a network call while the circuit
	// breaker considers the upstream down.
	ErrCircuitOpen = errors.New("upstream circuit open")

	// ErrRateUnavailable is the single condition conversion callers see
	// when no usable rate could be produced.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrInvalidCurrency indicates a malformed currency code.
	ErrInvalidCurrency = errors.New("invalid currency code")

	// ErrInvalidRate indicates a non-positive or non-finite rate value.
	ErrInvalidRate = errors.New("invalid exchange rate")

	// ErrInvalidAmount indicates a non-finite or non-positive conversion amount.
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsRetryable reports whether an upstream error is worth another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamTransient) || errors.Is(err, ErrRateLimited)
}

// CacheError marks a fault in a cache backend, as opposed to the upstream.
// Cache faults fail open: callers log them and fall through to a fetch.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

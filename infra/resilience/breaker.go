package resilience

import (
	"log/slog"
	"sync"
	"time"

	"fxgate/pkg/domain"
)

type breakerStatus int

const (
	statusClosed breakerStatus = iota
	statusOpen
	statusHalfOpen
)

func (s breakerStatus) String() string {
	switch s {
	case statusOpen:
		return "open"
	case statusHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker guards a single upstream dependency. It is shared by every
// concurrent caller, so all state transitions happen under one mutex as a
// check-and-set step.
type CircuitBreaker struct {
	mu                  sync.Mutex
	status              breakerStatus
	consecutiveFailures int
	openedAt            time.Time
	trialInFlight       bool

	failureThreshold int
	cooldown         time.Duration
	logger           *slog.Logger

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker that opens after
// failureThreshold consecutive failures and probes again after cooldown.
func NewCircuitBreaker(failureThreshold int, cooldown time.Duration, logger *slog.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		logger:           logger,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. While open it rejects with
// ErrCircuitOpen until the cooldown elapses, then admits exactly one trial
// call in half-open state.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case statusClosed:
		return nil
	case statusOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return domain.ErrCircuitOpen
		}
		b.status = statusHalfOpen
		b.trialInFlight = true
		b.logger.Info("Circuit breaker half-open, probing upstream")
		return nil
	default: // half-open
		if b.trialInFlight {
			return domain.ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	}
}

// RecordSuccess resets the failure count and closes the circuit after a
// successful half-open trial.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == statusHalfOpen {
		b.logger.Info("Circuit breaker closed after successful probe")
	}
	b.status = statusClosed
	b.consecutiveFailures = 0
	b.trialInFlight = false
}

// RecordFailure counts one post-retry failure. Reaching the threshold while
// closed opens the circuit; a failed half-open trial re-opens it.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case statusClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.open()
		}
	case statusHalfOpen:
		b.trialInFlight = false
		b.open()
	case statusOpen:
		// A call admitted before the transition finished; already open.
	}
}

// ReleaseTrial frees an admitted call slot without judging the upstream,
// for calls that ended in caller cancellation. Without this a cancelled
// half-open trial would hold the probe slot forever.
func (b *CircuitBreaker) ReleaseTrial() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialInFlight = false
}

func (b *CircuitBreaker) open() {
	b.status = statusOpen
	b.openedAt = b.now()
	b.logger.Warn("Circuit breaker opened",
		"consecutive_failures", b.consecutiveFailures,
		"cooldown", b.cooldown,
	)
}

// Status returns the current state name, for logs and health reporting.
func (b *CircuitBreaker) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status.String()
}

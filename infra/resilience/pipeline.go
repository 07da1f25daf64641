// Package resilience wraps the upstream rate client with, in fixed order, a
// per-attempt timeout, retry with jittered exponential backoff, and a circuit
// breaker. The ordering is deliberate: the timeout bounds each network
// attempt so a hung connection cannot stall the retry budget, retries absorb
// isolated bad attempts, and the breaker counts a fully exhausted call as a
// single failure so a genuinely down dependency stops costing latency.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"fxgate/pkg/config"
	"fxgate/pkg/domain"
	"fxgate/pkg/provider"
)

// Pipeline decorates a RateFetcher with the resilience policies and exposes
// the same fetch contract.
type Pipeline struct {
	next           provider.RateFetcher
	breaker        *CircuitBreaker
	attemptTimeout time.Duration
	maxRetries     uint64
	retryBaseDelay time.Duration
	retryMaxJitter time.Duration
	logger         *slog.Logger
}

// NewPipeline wraps next with the configured policies.
func NewPipeline(next provider.RateFetcher, cfg config.UpstreamConfig, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		next:           next,
		breaker:        NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown, logger),
		attemptTimeout: cfg.AttemptTimeout,
		maxRetries:     uint64(cfg.MaxRetries),
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxJitter: cfg.RetryMaxJitter,
		logger:         logger,
	}
}

// FetchRates runs one guarded fetch. The breaker sees the retrying call as a
// single unit: only an exhausted retry budget counts as one failure toward
// the threshold. A definitive upstream answer, including "currency not
// recognized", counts as contact with a healthy dependency.
func (p *Pipeline) FetchRates(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	if err := p.breaker.Allow(); err != nil {
		p.logger.Debug("Rejecting fetch, circuit open", "base", base)
		return nil, err
	}

	snap, err := p.fetchWithRetry(ctx, base)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCurrencyNotFound):
			// The upstream answered; it is reachable and healthy.
			p.breaker.RecordSuccess()
		case errors.Is(err, context.Canceled), ctx.Err() != nil:
			// Caller gave up; says nothing about the dependency.
			p.breaker.ReleaseTrial()
		default:
			p.breaker.RecordFailure()
		}
		return nil, err
	}

	p.breaker.RecordSuccess()
	return snap, nil
}

func (p *Pipeline) fetchWithRetry(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	operation := func() (*domain.RateSnapshot, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		defer cancel()

		snap, err := p.next.FetchRates(attemptCtx, base)
		if err != nil && !domain.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return snap, err
	}

	notify := func(err error, delay time.Duration) {
		p.logger.Warn("Upstream fetch failed, retrying",
			"base", base,
			"delay", delay,
			"error", err,
		)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newJitterBackoff(p.retryBaseDelay, p.retryMaxJitter), p.maxRetries),
		ctx,
	)
	return backoff.RetryNotifyWithData(operation, policy, notify)
}

// BreakerStatus exposes the breaker state for health reporting.
func (p *Pipeline) BreakerStatus() string {
	return p.breaker.Status()
}

var _ provider.RateFetcher = (*Pipeline)(nil)

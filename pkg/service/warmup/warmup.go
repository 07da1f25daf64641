// Package warmup proactively populates the rate cache for a configured
// currency set, once at startup and then on a fixed interval, so the first
// real request for a popular currency rarely pays the upstream latency.
package warmup

import (
	"context"
	"log/slog"
	"time"

	"fxgate/pkg/provider"
)

// Scheduler runs the periodic warmup loop.
type Scheduler struct {
	fetcher     provider.RateFetcher
	currencies  []string
	interval    time.Duration
	passTimeout time.Duration
	logger      *slog.Logger
}

// New creates a scheduler that warms the given currencies through fetcher,
// normally the coalescing cache.
func New(
	fetcher provider.RateFetcher,
	currencies []string,
	interval, passTimeout time.Duration,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		fetcher:     fetcher,
		currencies:  currencies,
		interval:    interval,
		passTimeout: passTimeout,
		logger:      logger,
	}
}

// Run performs an immediate warmup pass and then one per interval until ctx
// is cancelled. It blocks; start it on its own goroutine. Cancellation stops
// scheduling new passes, and the pass timeout bounds an in-progress one.
func (s *Scheduler) Run(ctx context.Context) {
	if len(s.currencies) == 0 {
		s.logger.Info("No warmup currencies configured, scheduler idle")
		<-ctx.Done()
		return
	}

	s.pass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Warmup scheduler stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// pass warms every configured currency. Individual failures are logged and
// never abort the rest of the set.
func (s *Scheduler) pass(ctx context.Context) {
	passCtx := ctx
	if s.passTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, s.passTimeout)
		defer cancel()
	}

	started := time.Now()
	warmed := 0
	for _, base := range s.currencies {
		if passCtx.Err() != nil {
			s.logger.Warn("Warmup pass cut off", "warmed", warmed, "of", len(s.currencies))
			return
		}
		if _, err := s.fetcher.FetchRates(passCtx, base); err != nil {
			s.logger.Warn("Warmup fetch failed", "base", base, "error", err)
			continue
		}
		warmed++
	}

	s.logger.Info("Warmup pass finished",
		"warmed", warmed,
		"of", len(s.currencies),
		"elapsed", time.Since(started),
	)
}

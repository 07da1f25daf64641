package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"fxgate/pkg/domain"
	"fxgate/pkg/provider"
)

// CoalescingCache answers rate lookups from the local tier, then the shared
// tier, and finally a single-flight fetch through the resilience pipeline.
// Concurrent misses for the same base currency collapse into one upstream
// call whose result every waiter observes.
type CoalescingCache struct {
	local     Store
	shared    Store
	fetcher   provider.RateFetcher
	localTTL  time.Duration
	sharedTTL time.Duration
	group     singleflight.Group
	logger    *slog.Logger
}

// New builds the cache. localTTL must not exceed sharedTTL; the config layer
// enforces that at startup.
func New(
	local, shared Store,
	fetcher provider.RateFetcher,
	localTTL, sharedTTL time.Duration,
	logger *slog.Logger,
) *CoalescingCache {
	return &CoalescingCache{
		local:     local,
		shared:    shared,
		fetcher:   fetcher,
		localTTL:  localTTL,
		sharedTTL: sharedTTL,
		logger:    logger,
	}
}

// GetRates returns the rate table for a base currency along with the tier
// that served it. Tier faults fail open: a broken backend falls through to
// the next layer and is only logged.
func (c *CoalescingCache) GetRates(ctx context.Context, base string) (*domain.RateSnapshot, Source, error) {
	key := strings.ToUpper(strings.TrimSpace(base))

	if snap := c.lookup(ctx, c.local, key, "local"); snap != nil {
		return snap, SourceLocal, nil
	}

	if snap := c.lookup(ctx, c.shared, key, "shared"); snap != nil {
		if err := c.local.Set(ctx, key, snap, c.localTTL); err != nil {
			c.logger.Warn("Local cache backfill failed", "base", key, "error", err)
		}
		return snap, SourceShared, nil
	}

	snap, err := c.fetchShared(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return snap, SourceUpstream, nil
}

// FetchRates adapts GetRates to the plain fetch contract, for callers that
// do not care about the serving tier.
func (c *CoalescingCache) FetchRates(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	snap, _, err := c.GetRates(ctx, base)
	return snap, err
}

func (c *CoalescingCache) lookup(ctx context.Context, tier Store, key, name string) *domain.RateSnapshot {
	snap, err := tier.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache tier read failed, falling through", "tier", name, "base", key, "error", err)
		return nil
	}
	return snap
}

// fetchShared coalesces concurrent misses for the same key into a single
// upstream call. The fetch runs on a context detached from the initiating
// caller, so one waiter's cancellation never cancels the others' interest;
// worst-case latency stays bounded by the per-attempt timeouts inside the
// pipeline.
func (c *CoalescingCache) fetchShared(ctx context.Context, key string) (*domain.RateSnapshot, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)

		snap, err := c.fetcher.FetchRates(fetchCtx, key)
		if err != nil {
			return nil, err
		}

		if err := c.shared.Set(fetchCtx, key, snap, c.sharedTTL); err != nil {
			c.logger.Warn("Shared cache write failed, serving uncached", "base", key, "error", err)
		}
		if err := c.local.Set(fetchCtx, key, snap, c.localTTL); err != nil {
			c.logger.Warn("Local cache write failed", "base", key, "error", err)
		}
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("Coalesced concurrent fetch", "base", key)
		}
		return res.Val.(*domain.RateSnapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ provider.RateFetcher = (*CoalescingCache)(nil)

// Package provider defines the fetch contract shared by the upstream HTTP
// client and every decorator stacked on top of it.
package provider

import (
	"context"

	"fxgate/pkg/domain"
)

// RateFetcher fetches the full rate table for a base currency.
// The raw HTTP client, the resilience pipeline and the coalescing cache all
// satisfy this contract, so layers compose by holding the next one.
type RateFetcher interface {
	FetchRates(ctx context.Context, base string) (*domain.RateSnapshot, error)
}

// FetchFunc adapts a plain function to the RateFetcher interface.
type FetchFunc func(ctx context.Context, base string) (*domain.RateSnapshot, error)

// FetchRates calls f.
func (f FetchFunc) FetchRates(ctx context.Context, base string) (*domain.RateSnapshot, error) {
	return f(ctx, base)
}

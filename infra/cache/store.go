// Package cache implements the two-tier, request-coalescing rate cache: a
// fast in-process tier in front of a shared Redis tier, with single-flight
// de-duplication on the miss path. The shared tier is treated as an external,
// possibly-unavailable dependency; its faults are logged and absorbed rather
// than surfaced to callers.
package cache

import (
	"context"
	"time"

	"fxgate/pkg/domain"
)

// Store is one cache tier. Get returns (nil, nil) on a miss; errors are
// reserved for backend faults.
type Store interface {
	Get(ctx context.Context, base string) (*domain.RateSnapshot, error)
	Set(ctx context.Context, base string, snap *domain.RateSnapshot, ttl time.Duration) error
}

// Source identifies where a snapshot was served from.
type Source string

const (
	// SourceLocal means the in-process tier answered.
	SourceLocal Source = "local"
	// SourceShared means the Redis tier answered.
	SourceShared Source = "shared"
	// SourceUpstream means the snapshot came from a fresh upstream fetch.
	SourceUpstream Source = "upstream"
	// SourceInternal marks results that never touch the cache, such as
	// same-currency conversions.
	SourceInternal Source = "internal"
)

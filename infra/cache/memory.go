package cache

import (
	"context"
	"sync"
	"time"

	"fxgate/pkg/domain"
)

// MemoryStore is the in-process cache tier.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	snapshot  *domain.RateSnapshot
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process tier and starts a background
// janitor that drops expired entries.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{entries: make(map[string]memoryEntry)}
	go s.cleanup()
	return s
}

// Get returns the cached snapshot, or (nil, nil) when absent or expired.
func (s *MemoryStore) Get(_ context.Context, base string) (*domain.RateSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[base]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.snapshot, nil
}

// Set stores a snapshot with the given TTL.
func (s *MemoryStore) Set(_ context.Context, base string, snap *domain.RateSnapshot, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[base] = memoryEntry{
		snapshot:  snap,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for base, entry := range s.entries {
			if now.After(entry.expiresAt) {
				delete(s.entries, base)
			}
		}
		s.mu.Unlock()
	}
}

var _ Store = (*MemoryStore)(nil)

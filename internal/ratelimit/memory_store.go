package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/medoffice/scheduling/internal/clock"
)

// sweepThreshold bounds map growth between opportunistic purges.
const sweepThreshold = 1024

// MemoryStore is a mutex-guarded window table for single-process deployments.
// Expired entries are purged lazily on subsequent requests; there is no
// background sweep. Each process enforces its own local quota, so behind a
// load balancer the effective limit is per process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	clock   clock.Clock
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.System()
	}
	return &MemoryStore{
		entries: make(map[string]Entry),
		clock:   clk,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if len(s.entries) > sweepThreshold {
		s.purgeExpired(now)
	}

	entry, ok := s.entries[key]
	if !ok || now.After(entry.ResetAt) {
		entry = Entry{Count: 1, ResetAt: now.Add(window)}
	} else {
		entry.Count++
	}
	s.entries[key] = entry

	return entry, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) purgeExpired(now time.Time) {
	for key, entry := range s.entries {
		if now.After(entry.ResetAt) {
			delete(s.entries, key)
		}
	}
}

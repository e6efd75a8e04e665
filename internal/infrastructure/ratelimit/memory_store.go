// Package ratelimit provides the fixed-window counter stores behind the admission controller.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
)

var _ service.RateLimitStore = (*MemoryStore)(nil)

// MemoryStore keeps fixed-window counters in process memory.
// It is suitable for development and single-instance deployments; counters are
// lost on restart and are not shared across instances.
type MemoryStore struct {
	mu               sync.Mutex
	records          map[string]models.RateLimitRecord
	cleanupThreshold int
	now              func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithCleanupThreshold sets the entry count above which expired records are swept.
func WithCleanupThreshold(n int) MemoryStoreOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.cleanupThreshold = n
		}
	}
}

// NewMemoryStore creates a new in-memory counter store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records:          make(map[string]models.RateLimitRecord),
		cleanupThreshold: constants.MemoryStoreCleanupThreshold,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment implements service.RateLimitStore.
//
// Parameters:
//   - key: Tier-scoped counter key
//   - window: Length of a window opened by this call
//
// Returns:
//   - models.RateLimitRecord: Count and reset instant after this hit
//   - error: always nil
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (models.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.records) > s.cleanupThreshold {
		s.sweepLocked(now)
	}

	rec, ok := s.records[key]
	if !ok || rec.Expired(now) {
		rec = models.RateLimitRecord{Count: 1, ResetAt: now.Add(window)}
	} else {
		rec.Count++
	}
	s.records[key] = rec

	return rec, nil
}

// Get implements service.RateLimitStore.
func (s *MemoryStore) Get(_ context.Context, key string) (*models.RateLimitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Expired(s.now()) {
		return nil, nil
	}
	return &rec, nil
}

// Reset implements service.RateLimitStore.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Backend implements service.RateLimitStore.
func (s *MemoryStore) Backend() string { return "memory" }

// Size returns the number of records held, live or expired.
func (s *MemoryStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// sweepLocked removes expired records. Must be called with lock held.
func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for key, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

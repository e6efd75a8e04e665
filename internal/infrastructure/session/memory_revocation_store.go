package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/turtacn/kpidash/internal/domain/service"
)

type memoryRevocationStore struct {
	cache *cache.Cache
}

// NewMemoryRevocationStore keeps revoked token IDs in process memory.
// Revocations are lost on restart and are not shared across instances.
func NewMemoryRevocationStore() service.SessionRevocationStore {
	return &memoryRevocationStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *memoryRevocationStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(tokenID, struct{}{}, ttl)
	return nil
}

func (s *memoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, found := s.cache.Get(tokenID)
	return found, nil
}

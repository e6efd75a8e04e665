package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
)

type redisRevocationStore struct {
	rdb redis.UniversalClient
	now func() time.Time
}

// NewRedisRevocationStore keeps revoked token IDs in Redis so every instance sees them.
func NewRedisRevocationStore(rdb redis.UniversalClient) service.SessionRevocationStore {
	return &redisRevocationStore{rdb: rdb, now: time.Now}
}

func revocationKey(tokenID string) string { return constants.CacheKeyPrefixRevokedSession + tokenID }

func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, revocationKey(tokenID), "1", ttl).Err()
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

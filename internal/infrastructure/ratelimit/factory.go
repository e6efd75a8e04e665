package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/logger"
)

// NewStore selects the counter backend. A non-nil client means the external
// store is configured (address and access token both present); otherwise the
// in-process store is used.
func NewStore(client redis.UniversalClient, log logger.Logger, opts ...MemoryStoreOption) (service.RateLimitStore, error) {
	if client == nil {
		log.Info(context.Background(), "Rate limit store selected", logger.String("backend", "memory"))
		return NewMemoryStore(opts...), nil
	}
	store, err := NewRedisStore(client, log)
	if err != nil {
		return nil, err
	}
	log.Info(context.Background(), "Rate limit store selected", logger.String("backend", "redis"))
	return store, nil
}

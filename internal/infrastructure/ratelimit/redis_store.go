package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

var _ service.RateLimitStore = (*RedisStore)(nil)

// fixedWindowScript keeps a window as a hash of its count ("c") and its
// absolute reset instant in epoch milliseconds ("r"). The reset instant is
// written once when the window opens, so every hit of the window reports the
// same ResetAt. A window whose reset instant has passed starts over. The key
// expiry only reclaims memory and is re-armed when missing.
//
// ARGV[1] is the window in milliseconds, ARGV[2] the caller's clock in epoch
// milliseconds. Returns {count, reset}.
var fixedWindowScript = redis.NewScript(`
local window = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local reset = tonumber(redis.call('HGET', KEYS[1], 'r'))
if not reset or reset < now then
    redis.call('DEL', KEYS[1])
    reset = now + window
    redis.call('HSET', KEYS[1], 'r', reset)
    redis.call('PEXPIRE', KEYS[1], window)
elseif redis.call('PTTL', KEYS[1]) < 0 then
    redis.call('PEXPIRE', KEYS[1], reset - now + 1)
end
local count = redis.call('HINCRBY', KEYS[1], 'c', 1)
return {count, reset}
`)

// RedisStore keeps fixed-window counters in Redis for multi-instance deployments.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    logger.Logger
	now       func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisClock overrides the time source used to turn TTLs into reset instants.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) { s.now = now }
}

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// NewRedisStore creates a new Redis-backed counter store.
//
// Parameters:
//   - client: Redis client
//   - log: Logger instance
//
// Returns:
//   - *RedisStore: Initialized store
//   - error: when client is nil
func NewRedisStore(client redis.UniversalClient, log logger.Logger, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	s := &RedisStore{
		client:    client,
		keyPrefix: constants.CacheKeyPrefixRateLimit,
		logger:    log.WithComponent("ratelimit.redis"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Increment implements service.RateLimitStore.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (models.RateLimitRecord, error) {
	now := s.now()
	raw, err := fixedWindowScript.Run(ctx, s.client, []string{s.keyPrefix + key}, window.Milliseconds(), now.UnixMilli()).Result()
	if err != nil {
		return models.RateLimitRecord{}, fmt.Errorf("redis increment %q: %w", key, err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return models.RateLimitRecord{}, fmt.Errorf("redis increment %q: unexpected script result %T", key, raw)
	}
	count, ok1 := values[0].(int64)
	resetMs, ok2 := values[1].(int64)
	if !ok1 || !ok2 {
		return models.RateLimitRecord{}, fmt.Errorf("redis increment %q: unexpected script values %v", key, values)
	}

	return models.RateLimitRecord{
		Count:   count,
		ResetAt: time.UnixMilli(resetMs).In(now.Location()),
	}, nil
}

// Get implements service.RateLimitStore.
func (s *RedisStore) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	now := s.now()
	vals, err := s.client.HMGet(ctx, s.keyPrefix+key, "c", "r").Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, nil
	}

	count, err := parseField(vals[0])
	if err != nil {
		return nil, fmt.Errorf("redis get %q: parse count: %w", key, err)
	}
	resetMs, err := parseField(vals[1])
	if err != nil {
		return nil, fmt.Errorf("redis get %q: parse reset: %w", key, err)
	}

	record := &models.RateLimitRecord{Count: count, ResetAt: time.UnixMilli(resetMs).In(now.Location())}
	if record.Expired(now) {
		return nil, nil
	}
	return record, nil
}

func parseField(v interface{}) (int64, error) {
	str, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected field type %T", v)
	}
	return strconv.ParseInt(str, 10, 64)
}

// Reset implements service.RateLimitStore.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis reset %q: %w", key, err)
	}
	s.logger.Debug(ctx, "Rate limit reset", logger.String("key", key))
	return nil
}

// Backend implements service.RateLimitStore.
func (s *RedisStore) Backend() string { return "redis" }

// Package redis provides Redis connection management and client initialization.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/pkg/logger"
)

// RedisConnection manages the Redis client lifecycle.
type RedisConnection struct {
	config config.RedisConfig
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection creates a new Redis connection manager instance.
//
// Parameters:
//   - cfg: Redis configuration; both URL and Token must be set
//   - log: Logger instance
//
// Returns:
//   - *RedisConnection: Connection manager, not yet connected
func NewRedisConnection(cfg config.RedisConfig, log logger.Logger) *RedisConnection {
	return &RedisConnection{
		config: cfg,
		logger: log.WithComponent("redis"),
	}
}

// Connect parses the URL, authenticates with the access token and verifies
// connectivity with a ping.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.client != nil {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}
	if !rc.config.Enabled() {
		return fmt.Errorf("redis url and token are both required")
	}

	opts, err := rc.options()
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err, logger.String("addr", opts.Addr))
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.logger.Info(ctx, "Redis connection established successfully",
		logger.String("addr", opts.Addr),
		logger.Bool("tls", opts.TLSConfig != nil),
		logger.Int("pool_size", opts.PoolSize),
	)
	return nil
}

func (rc *RedisConnection) options() (*redis.Options, error) {
	opts, err := redis.ParseURL(rc.config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// The access token authenticates the connection; it overrides any URL password.
	opts.Password = rc.config.Token

	if rc.config.PoolSize > 0 {
		opts.PoolSize = rc.config.PoolSize
	}
	if rc.config.MinIdleConns > 0 {
		opts.MinIdleConns = rc.config.MinIdleConns
	}
	if rc.config.DialTimeout > 0 {
		opts.DialTimeout = rc.config.DialTimeout
	}
	if rc.config.ReadTimeout > 0 {
		opts.ReadTimeout = rc.config.ReadTimeout
	}
	if rc.config.WriteTimeout > 0 {
		opts.WriteTimeout = rc.config.WriteTimeout
	}
	return opts, nil
}

// GetClient returns the Redis client instance, or nil before Connect.
func (rc *RedisConnection) GetClient() redis.UniversalClient {
	return rc.client
}

// Ping checks Redis server connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	if rc.client == nil {
		return fmt.Errorf("redis connection not initialized")
	}
	return rc.client.Ping(ctx).Err()
}

// Close releases the client.
func (rc *RedisConnection) Close() error {
	if rc.client == nil {
		return nil
	}
	err := rc.client.Close()
	rc.client = nil
	if err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return err
	}
	rc.logger.Info(context.Background(), "Redis connection closed successfully")
	return nil
}

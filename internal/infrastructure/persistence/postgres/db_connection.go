// Package postgres provides PostgreSQL connection management and repository implementations.
// The pgx pool is shared: dashboard queries run on it directly and gorm runs on top of it.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/pkg/logger"
)

// slowPingThreshold marks a ping as high latency.
const slowPingThreshold = 100 * time.Millisecond

// DBConnection manages PostgreSQL database connection pool lifecycle.
type DBConnection struct {
	pool   *pgxpool.Pool
	gorm   *gorm.DB
	logger logger.Logger
}

// NewDBConnection creates the connection pool and performs an initial health check.
//
// Parameters:
//   - ctx: Context for connection timeout control
//   - cfg: Database configuration including host, port, credentials, and pool settings
//   - log: Logger instance for connection lifecycle events
//
// Returns:
//   - *DBConnection: Initialized connection manager
//   - error: Connection establishment error if any
func NewDBConnection(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	log = log.WithComponent("postgres")
	log.Info(ctx, "Initializing PostgreSQL connection pool",
		logger.String("host", cfg.Host),
		logger.Int("port", cfg.Port),
		logger.String("database", cfg.Database),
		logger.Int("max_conns", cfg.MaxConns),
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	connectCtx := ctx
	if cfg.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, cfg.ConnTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	return newDBConnection(ctx, pool, log)
}

// NewDBConnectionFromPool wraps an existing pool.
func NewDBConnectionFromPool(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) (*DBConnection, error) {
	return newDBConnection(ctx, pool, log.WithComponent("postgres"))
}

func newDBConnection(ctx context.Context, pool *pgxpool.Pool, log logger.Logger) (*DBConnection, error) {
	db := &DBConnection{pool: pool, logger: log}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open gorm over pool: %w", err)
	}
	db.gorm = gdb

	log.Info(ctx, "PostgreSQL connection pool initialized successfully",
		logger.Int("total_conns", int(pool.Stat().TotalConns())),
	)
	return db, nil
}

// Pool returns the pgx pool used for dashboard queries.
func (db *DBConnection) Pool() *pgxpool.Pool {
	return db.pool
}

// Gorm returns the gorm handle sharing the same pool.
func (db *DBConnection) Gorm() *gorm.DB {
	return db.gorm
}

// Ping verifies database connectivity and responsiveness.
func (db *DBConnection) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := db.pool.Ping(pingCtx); err != nil {
		db.logger.Error(ctx, "Database ping failed", err)
		return fmt.Errorf("database ping: %w", err)
	}

	if latency := time.Since(start); latency > slowPingThreshold {
		db.logger.Warn(ctx, "High database latency detected",
			logger.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return nil
}

// Close shuts down the pool. Call once during application shutdown.
func (db *DBConnection) Close() {
	if sqlDB, err := db.gorm.DB(); err == nil {
		_ = sqlDB.Close()
	}
	db.pool.Close()
	db.logger.Info(context.Background(), "PostgreSQL connection pool closed successfully")
}

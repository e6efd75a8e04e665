package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	appservice "github.com/turtacn/kpidash/internal/application/service"
	"github.com/turtacn/kpidash/internal/config"
	domainservice "github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/internal/infrastructure/audit"
	"github.com/turtacn/kpidash/internal/infrastructure/monitoring"
	"github.com/turtacn/kpidash/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/kpidash/internal/infrastructure/persistence/redis"
	"github.com/turtacn/kpidash/internal/infrastructure/ratelimit"
	"github.com/turtacn/kpidash/internal/infrastructure/secrets"
	"github.com/turtacn/kpidash/internal/infrastructure/session"
	"github.com/turtacn/kpidash/internal/interfaces/http"
	"github.com/turtacn/kpidash/internal/interfaces/http/handlers"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
	"github.com/turtacn/kpidash/pkg/logger"
)

// configFileEnv optionally names the YAML file to load.
const configFileEnv = "KPIDASH_CONFIG_FILE"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("kpidash: %v", err)
	}
}

func run(ctx context.Context) error {
	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		return fmt.Errorf("create startup logger: %w", err)
	}

	loader := config.NewLoader(os.Getenv(configFileEnv), startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	appLogger, err := monitoring.NewZapLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	loader.Watch(func(next *config.Config) {
		if next.Log.Level == appLogger.Level() {
			return
		}
		if err := appLogger.SetLevel(next.Log.Level); err != nil {
			appLogger.Warn(ctx, "Ignoring log level change", logger.Error(err))
			return
		}
		appLogger.Info(ctx, "Log level changed", logger.String("level", next.Log.Level))
	})

	appLogger.Info(ctx, "Starting kpidash",
		logger.String("environment", string(cfg.Environment)),
		logger.String("address", cfg.Server.Addr()),
	)

	metrics := monitoring.NewMetrics()

	tracing, err := monitoring.NewTracingManager(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn(shutdownCtx, "Tracer shutdown failed", logger.Error(err))
		}
	}()

	// Redis is optional; without it counters and revocations stay in process.
	var (
		redisConn   *redis.RedisConnection
		redisClient goredis.UniversalClient
	)
	if cfg.Redis.Enabled() {
		redisConn = redis.NewRedisConnection(cfg.Redis, appLogger)
		if err := redisConn.Connect(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() { _ = redisConn.Close() }()
		redisClient = redisConn.GetClient()
	} else {
		appLogger.Warn(ctx, "Redis is not configured, rate limits are enforced per instance")
	}

	store, err := ratelimit.NewStore(redisClient, appLogger, ratelimit.WithCleanupThreshold(cfg.RateLimit.CleanupThreshold))
	if err != nil {
		return fmt.Errorf("create rate limit store: %w", err)
	}
	admission, err := appservice.NewAdmissionService(store, cfg.RateLimit.Tiers(), appLogger,
		appservice.WithAdmissionMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("create admission service: %w", err)
	}

	db, err := postgres.NewDBConnection(ctx, cfg.Database, appLogger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Environment.IsDevelopment() {
		if err := postgres.Migrate(ctx, db.Pool(), appLogger); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	userRepo := postgres.NewUserRepository(db.Gorm(), appLogger)
	dashboardRepo := postgres.NewDashboardRepository(db.Pool(), appLogger)

	secret, err := secrets.SessionSecret(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("load session secret: %w", err)
	}
	var revocations domainservice.SessionRevocationStore
	if redisClient != nil {
		revocations = session.NewRedisRevocationStore(redisClient)
	} else {
		revocations = session.NewMemoryRevocationStore()
	}
	jwtManager, err := session.NewJWTManager(secret, cfg.Session.TTL, revocations, appLogger)
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	auditPublisher := audit.NewPublisher(cfg.Audit, appLogger)
	defer func() { _ = auditPublisher.Close() }()

	authContext, err := appservice.NewAuthContextService(cfg.Environment, jwtManager, userRepo, metrics, appLogger)
	if err != nil {
		return fmt.Errorf("create auth context resolver: %w", err)
	}
	sessionApp := appservice.NewSessionAppService(userRepo, session.NewPasswordHasher(), jwtManager, auditPublisher, appLogger)
	dashboardApp := appservice.NewDashboardAppService(dashboardRepo, appLogger)

	checks := map[string]handlers.Pinger{"database": db}
	if redisConn != nil {
		checks["redis"] = redisConn
	}

	router := http.NewRouter(http.Dependencies{
		Config:           cfg,
		Logger:           appLogger,
		Metrics:          metrics,
		Tracing:          tracing,
		RateLimiter:      middleware.NewRateLimiter(admission, domainservice.NewRouteClassifier(), auditPublisher, appLogger),
		AuthResolver:     authContext,
		Sessions:         sessionApp,
		AuthHandler:      handlers.NewAuthHandler(sessionApp, cfg.Session, appLogger),
		DashboardHandler: handlers.NewDashboardHandler(dashboardApp),
		PageHandler:      handlers.NewPageHandler(),
		HealthHandler:    handlers.NewHealthHandler(checks, appLogger),
	})

	serveErr := make(chan error, 1)
	go func() { serveErr <- router.Start() }()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info(context.Background(), "Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	appLogger.Info(shutdownCtx, "Server stopped")
	return nil
}

// Package http wires the gin engine: global middleware, route groups and the server lifecycle.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/config"
	"github.com/turtacn/kpidash/internal/infrastructure/monitoring"
	"github.com/turtacn/kpidash/internal/interfaces/http/handlers"
	"github.com/turtacn/kpidash/internal/interfaces/http/middleware"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

// Dependencies are the collaborators the router mounts.
type Dependencies struct {
	Config       *config.Config
	Logger       logger.Logger
	Metrics      *monitoring.Metrics
	Tracing      *monitoring.TracingManager
	RateLimiter  *middleware.RateLimiter
	AuthResolver middleware.AuthResolver
	Sessions     middleware.TokenVerifier

	AuthHandler      *handlers.AuthHandler
	DashboardHandler *handlers.DashboardHandler
	PageHandler      *handlers.PageHandler
	HealthHandler    *handlers.HealthHandler
}

// Router owns the gin engine and the HTTP server.
type Router struct {
	engine *gin.Engine
	deps   Dependencies
	logger logger.Logger
	server *http.Server
}

// NewRouter creates the engine and registers every route.
func NewRouter(deps Dependencies) *Router {
	if deps.Config.Environment == constants.EnvironmentProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := &Router{
		engine: gin.New(),
		deps:   deps,
		logger: deps.Logger.WithComponent("router"),
	}
	r.setupRoutes()

	srv := deps.Config.Server
	r.server = &http.Server{
		Addr:           srv.Addr(),
		Handler:        r.engine,
		ReadTimeout:    srv.ReadTimeout,
		WriteTimeout:   srv.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	return r
}

// Engine exposes the handler, mainly for tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) setupRoutes() {
	d := r.deps
	cfg := d.Config

	r.engine.Use(middleware.Recovery(d.Logger))
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Observability(d.Tracing, d.Metrics))
	r.engine.Use(middleware.Logging(d.Logger))
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		r.engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", constants.HeaderRequestID},
			ExposeHeaders:    []string{constants.HeaderRequestID, constants.HeaderRetryAfter, constants.HeaderRateLimitLimit, constants.HeaderRateLimitRemaining, constants.HeaderRateLimitReset},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	r.engine.Use(d.RateLimiter.ByRoute())

	r.engine.GET("/health/live", d.HealthHandler.Live)
	r.engine.GET("/health/ready", d.HealthHandler.Ready)
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{})))
	if cfg.Server.EnablePprof {
		pprof.Register(r.engine)
	}

	resolve := middleware.ResolveAuthContext(d.AuthResolver)

	api := r.engine.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/login", d.AuthHandler.Login)
		auth.POST("/signup", d.AuthHandler.Signup)
		auth.POST("/logout", d.AuthHandler.Logout)

		data := api.Group("", resolve, middleware.ETag())
		data.GET("/kpi", d.RateLimiter.ExpensiveQuery("kpi"), d.DashboardHandler.KPIs)
		data.GET("/leads", d.RateLimiter.ExpensiveQuery("leads"), d.DashboardHandler.Leads)
		data.GET("/tasks", d.DashboardHandler.Tasks)
		data.GET("/employees", d.DashboardHandler.Employees)
		data.GET("/appointments", d.DashboardHandler.Appointments)
	}

	pages := r.engine.Group("", middleware.SessionGuard(cfg.Environment, d.Sessions, d.Logger))
	{
		pages.GET("/", resolve, d.PageHandler.Home)
		pages.GET("/login", d.PageHandler.Login)
		pages.GET("/signup", d.PageHandler.Signup)
		pages.GET("/auth/callback", d.AuthHandler.Callback)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		dto.SendError(c, errors.ErrNotFound)
	})
}

// Start serves until Stop is called. It returns nil after a graceful stop.
func (r *Router) Start() error {
	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (r *Router) Stop(ctx context.Context) error {
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

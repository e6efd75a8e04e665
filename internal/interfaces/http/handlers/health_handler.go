package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides liveness and readiness endpoints.
type HealthHandler struct {
	checks map[string]Pinger
	log    logger.Logger
}

// NewHealthHandler creates a HealthHandler over the named dependencies. Nil
// entries are skipped.
func NewHealthHandler(checks map[string]Pinger, log logger.Logger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active, log: log.WithComponent("health")}
}

// Live handles GET /health/live.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}

// Ready handles GET /health/ready. Dependencies are pinged concurrently and
// every failure is reported, not only the first.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checks))
		failed bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for name, p := range h.checks {
		name, p := name, p
		g.Go(func() error {
			status := "ok"
			if err := p.Ping(gctx); err != nil {
				h.log.Warn(ctx, "Readiness check failed", logger.String("dependency", name), logger.Error(err))
				status = "error: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			if status != "ok" {
				failed = true
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Checks: checks})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Checks: checks})
}

package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

// Admission is the part of the admission service the middleware needs.
type Admission interface {
	EvaluateTier(ctx context.Context, tier constants.RouteTier, key string) (models.RateLimitDecision, bool)
}

// RateLimiter applies tiered admission to requests.
type RateLimiter struct {
	admission  Admission
	classifier *service.RouteClassifier
	audit      service.AuditPublisher
	logger     logger.Logger
	now        func() time.Time
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterClock sets the clock used to compute Retry-After.
func WithRateLimiterClock(now func() time.Time) RateLimiterOption {
	return func(rl *RateLimiter) { rl.now = now }
}

// NewRateLimiter creates the admission middleware factory.
//
// Parameters:
//   - admission: Tier evaluator, normally *service.AdmissionService
//   - classifier: Maps request paths to tiers
//   - audit: Receives rejection events, may be nil
//   - log: Logger instance
//
// Returns:
//   - *RateLimiter: Middleware factory for ByRoute and ExpensiveQuery
func NewRateLimiter(admission Admission, classifier *service.RouteClassifier, audit service.AuditPublisher, log logger.Logger, opts ...RateLimiterOption) *RateLimiter {
	if classifier == nil {
		classifier = service.NewRouteClassifier()
	}
	rl := &RateLimiter{
		admission:  admission,
		classifier: classifier,
		audit:      audit,
		logger:     log.WithComponent("rate_limit"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// ByRoute throttles auth and api routes per client address. Unclassified
// routes pass through untouched.
func (rl *RateLimiter) ByRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		tier := rl.classifier.Classify(path)
		if tier == constants.RouteTierNone {
			c.Next()
			return
		}
		rl.admit(c, tier, Identify(c.Request, ""), path)
	}
}

// ExpensiveQuery throttles a database-heavy endpoint per user and scope. It
// must run after ResolveAuthContext.
func (rl *RateLimiter) ExpensiveQuery(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authCtx, ok := AuthContextFrom(c)
		if !ok {
			c.Next()
			return
		}
		rl.admit(c, constants.RouteTierExpensiveQuery, UserScopedKey(authCtx.UserID, scope), c.Request.URL.Path)
	}
}

func (rl *RateLimiter) admit(c *gin.Context, tier constants.RouteTier, key, path string) {
	ctx := c.Request.Context()
	decision, ok := rl.admission.EvaluateTier(ctx, tier, key)
	if !ok {
		c.Next()
		return
	}
	c.Set(string(constants.ContextKeyRateLimitDecision), decision)

	if decision.Allowed {
		dto.SetHeaders(c, dto.RateLimitHeaders(decision))
		c.Next()
		return
	}

	rl.logger.Warn(ctx, "Rate limit exceeded",
		logger.String("key", key),
		logger.String("path", path),
		logger.String("tier", string(tier)),
		logger.Time("reset_at", decision.ResetAt),
	)
	rl.publish(ctx, tier, key, path)
	dto.AbortWithRejection(c, dto.RateLimitExceeded(decision, rl.now()))
}

func (rl *RateLimiter) publish(ctx context.Context, tier constants.RouteTier, key, path string) {
	if rl.audit == nil {
		return
	}
	err := rl.audit.Publish(ctx, service.AuditEvent{
		Type:       constants.AuditEventRateLimitExceeded,
		Identity:   key,
		Path:       path,
		Tier:       tier,
		OccurredAt: rl.now().UTC(),
	})
	if err != nil {
		rl.logger.Warn(ctx, "Failed to publish rate limit audit event", logger.Error(err))
	}
}

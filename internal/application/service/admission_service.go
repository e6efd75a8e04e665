// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
	domainService "github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/logger"
)

// AdmissionService decides whether a keyed request may proceed under a fixed-window quota.
// It is safe for concurrent use; per-key atomicity is delegated to the store.
type AdmissionService struct {
	store   domainService.RateLimitStore
	tiers   map[constants.RouteTier]models.RateLimitConfig
	metrics domainService.AdmissionMetrics
	logger  logger.Logger
	now     func() time.Time
}

// AdmissionOption configures an AdmissionService.
type AdmissionOption func(*AdmissionService)

// WithAdmissionMetrics sets the metrics sink.
func WithAdmissionMetrics(m domainService.AdmissionMetrics) AdmissionOption {
	return func(s *AdmissionService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithAdmissionClock overrides the time source used for degraded decisions.
func WithAdmissionClock(now func() time.Time) AdmissionOption {
	return func(s *AdmissionService) { s.now = now }
}

// NewAdmissionService creates the admission controller over store.
// tiers overrides the built-in quotas per tier; tiers absent from it keep
// their defaults. Any invalid quota is rejected.
//
// Parameters:
//   - store: Counter store, memory or Redis
//   - tiers: Per-tier quota overrides, may be nil
//   - log: Logger instance
//   - opts: Optional metrics sink and clock
//
// Returns:
//   - *AdmissionService: Initialized admission controller
//   - error: when store is nil or a quota is invalid
func NewAdmissionService(
	store domainService.RateLimitStore,
	tiers map[constants.RouteTier]models.RateLimitConfig,
	log logger.Logger,
	opts ...AdmissionOption,
) (*AdmissionService, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}

	merged := models.DefaultTierConfigs()
	for tier, cfg := range tiers {
		merged[tier] = cfg
	}
	for tier, cfg := range merged {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("tier %s: %w", tier, err)
		}
	}

	s := &AdmissionService{
		store:   store,
		tiers:   merged,
		metrics: noopAdmissionMetrics{},
		logger:  log.WithComponent("admission"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tier returns the quota of tier.
func (s *AdmissionService) Tier(tier constants.RouteTier) (models.RateLimitConfig, bool) {
	cfg, ok := s.tiers[tier]
	return cfg, ok
}

// Evaluate counts one request for key and derives the decision.
// It never fails: a store error yields an allowed decision marked Degraded.
//
// Parameters:
//   - ctx: Request context
//   - key: Store key, used as given
//   - cfg: Window and request cap to apply
//
// Returns:
//   - models.RateLimitDecision: The admission decision with quota headers data
func (s *AdmissionService) Evaluate(ctx context.Context, key string, cfg models.RateLimitConfig) models.RateLimitDecision {
	record, err := s.store.Increment(ctx, key, cfg.Window)
	if err != nil {
		s.metrics.RecordStoreError(s.store.Backend())
		s.logger.Error(ctx, "Rate limit store failed, admitting request", err,
			logger.String("key", key),
			logger.String("backend", s.store.Backend()),
		)
		return models.RateLimitDecision{
			Allowed:   true,
			Remaining: cfg.MaxRequests,
			ResetAt:   s.now().Add(cfg.Window),
			Limit:     cfg.MaxRequests,
			Degraded:  true,
		}
	}

	return models.NewRateLimitDecision(record, cfg)
}

// TierKey returns the store key of identity key under tier, e.g. "api:ip:203.0.113.7".
// Every tier counts in its own window, so the same client identity never
// shares a counter between tiers.
func TierKey(tier constants.RouteTier, key string) string {
	return string(tier) + ":" + key
}

// EvaluateTier evaluates key against the quota of tier and records the outcome.
// The second return is false when tier has no quota; the request is then unthrottled.
//
// Parameters:
//   - ctx: Request context
//   - tier: Route tier of the request
//   - key: Client identity, such as "ip:203.0.113.7" or "user:<id>:kpi"
//
// Returns:
//   - models.RateLimitDecision: Decision counted in the tier's own window
//   - bool: false when tier is not throttled
func (s *AdmissionService) EvaluateTier(ctx context.Context, tier constants.RouteTier, key string) (models.RateLimitDecision, bool) {
	cfg, ok := s.tiers[tier]
	if !ok {
		return models.RateLimitDecision{}, false
	}

	decision := s.Evaluate(ctx, TierKey(tier, key), cfg)
	s.metrics.RecordDecision(tier, decision.Allowed)
	return decision, true
}

// Status returns the live record of key under tier without counting a request.
func (s *AdmissionService) Status(ctx context.Context, tier constants.RouteTier, key string) (*models.RateLimitRecord, error) {
	if _, ok := s.tiers[tier]; !ok {
		return nil, fmt.Errorf("unknown rate limit tier %q", tier)
	}
	return s.store.Get(ctx, TierKey(tier, key))
}

// Reset clears the counter of key under tier.
func (s *AdmissionService) Reset(ctx context.Context, tier constants.RouteTier, key string) error {
	if _, ok := s.tiers[tier]; !ok {
		return fmt.Errorf("unknown rate limit tier %q", tier)
	}
	if err := s.store.Reset(ctx, TierKey(tier, key)); err != nil {
		return err
	}
	s.logger.Info(ctx, "Rate limit counter reset", logger.String("tier", string(tier)), logger.String("key", key))
	return nil
}

// Backend names the counter store in use.
func (s *AdmissionService) Backend() string {
	return s.store.Backend()
}

type noopAdmissionMetrics struct{}

func (noopAdmissionMetrics) RecordDecision(constants.RouteTier, bool) {}
func (noopAdmissionMetrics) RecordStoreError(string)                  {}

// Package models defines the domain models for the kpidash service.
// This file contains the rate limiting records, configurations and decisions.
package models

import (
	"fmt"
	"time"

	"github.com/turtacn/kpidash/pkg/constants"
)

// RateLimitRecord is the per-key counter of a fixed window.
// A record whose ResetAt has passed is expired and must be treated as absent.
type RateLimitRecord struct {
	// Count is the number of requests seen in the current window.
	Count int64 `json:"count"`

	// ResetAt is the instant the window closes.
	ResetAt time.Time `json:"reset_at"`
}

// Expired reports whether the record's window has elapsed at now.
func (r RateLimitRecord) Expired(now time.Time) bool {
	return now.After(r.ResetAt)
}

// RateLimitConfig is the static quota of one route tier.
type RateLimitConfig struct {
	// Window is the fixed window length.
	Window time.Duration `json:"window"`

	// MaxRequests is the quota ceiling within one window.
	MaxRequests int64 `json:"max_requests"`
}

// Validate rejects zero or negative quotas and windows.
func (c RateLimitConfig) Validate() error {
	if c.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive, got %d", c.MaxRequests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Window)
	}
	return nil
}

// DefaultTierConfigs returns the built-in quota for each throttled tier.
func DefaultTierConfigs() map[constants.RouteTier]RateLimitConfig {
	return map[constants.RouteTier]RateLimitConfig{
		constants.RouteTierAPI: {
			Window:      constants.APIRateLimitWindow,
			MaxRequests: constants.APIRateLimitMax,
		},
		constants.RouteTierAuth: {
			Window:      constants.AuthRateLimitWindow,
			MaxRequests: constants.AuthRateLimitMax,
		},
		constants.RouteTierExpensiveQuery: {
			Window:      constants.ExpensiveQueryRateLimitWindow,
			MaxRequests: constants.ExpensiveQueryRateLimitMax,
		},
	}
}

// RateLimitDecision is the result of evaluating a key against a config.
// It is derived on every evaluation and never stored.
type RateLimitDecision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int64     `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	Limit     int64     `json:"limit"`

	// Degraded is set when the counter store failed and the decision failed open.
	Degraded bool `json:"degraded,omitempty"`
}

// NewRateLimitDecision derives a decision from the post-increment record.
func NewRateLimitDecision(record RateLimitRecord, cfg RateLimitConfig) RateLimitDecision {
	remaining := cfg.MaxRequests - record.Count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitDecision{
		Allowed:   record.Count <= cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   record.ResetAt,
		Limit:     cfg.MaxRequests,
	}
}

// RetryAfter returns the whole seconds until the window resets, never negative.
func (d RateLimitDecision) RetryAfter(now time.Time) int64 {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int64((left + time.Second - 1) / time.Second)
}

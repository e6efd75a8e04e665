package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitConfig_Validate(t *testing.T) {
	assert.NoError(t, RateLimitConfig{Window: time.Minute, MaxRequests: 1}.Validate())
	assert.Error(t, RateLimitConfig{Window: time.Minute, MaxRequests: 0}.Validate())
	assert.Error(t, RateLimitConfig{Window: time.Minute, MaxRequests: -3}.Validate())
	assert.Error(t, RateLimitConfig{Window: 0, MaxRequests: 10}.Validate())
}

func TestDefaultTierConfigs(t *testing.T) {
	cfgs := DefaultTierConfigs()
	require.Len(t, cfgs, 3)
	assert.Equal(t, RateLimitConfig{Window: 60 * time.Second, MaxRequests: 60}, cfgs["api"])
	assert.Equal(t, RateLimitConfig{Window: 900 * time.Second, MaxRequests: 5}, cfgs["auth"])
	assert.Equal(t, RateLimitConfig{Window: 60 * time.Second, MaxRequests: 10}, cfgs["expensive_query"])
}

func TestNewRateLimitDecision_RemainingNeverNegative(t *testing.T) {
	cfg := RateLimitConfig{Window: time.Minute, MaxRequests: 3}
	reset := time.UnixMilli(1_700_000_060_000)

	for count := int64(1); count <= 10; count++ {
		d := NewRateLimitDecision(RateLimitRecord{Count: count, ResetAt: reset}, cfg)
		assert.Equal(t, count <= 3, d.Allowed, "count %d", count)
		assert.GreaterOrEqual(t, d.Remaining, int64(0))
		assert.Equal(t, int64(3), d.Limit)
		assert.Equal(t, reset, d.ResetAt)
	}
}

func TestRateLimitDecision_RetryAfter(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	d := RateLimitDecision{ResetAt: now.Add(1500 * time.Millisecond)}
	assert.Equal(t, int64(2), d.RetryAfter(now))

	d.ResetAt = now.Add(60 * time.Second)
	assert.Equal(t, int64(60), d.RetryAfter(now))

	d.ResetAt = now.Add(-time.Second)
	assert.Equal(t, int64(0), d.RetryAfter(now))

	// Sub-millisecond remainders still round up to the next second.
	d.ResetAt = now.Add(30*time.Second + 400*time.Microsecond)
	assert.Equal(t, int64(31), d.RetryAfter(now))
	d.ResetAt = now.Add(400 * time.Microsecond)
	assert.Equal(t, int64(1), d.RetryAfter(now))
	d.ResetAt = now.Add(time.Nanosecond)
	assert.Equal(t, int64(1), d.RetryAfter(now))
}

func TestRateLimitRecord_Expired(t *testing.T) {
	reset := time.UnixMilli(1_700_000_000_000)
	r := RateLimitRecord{Count: 4, ResetAt: reset}
	assert.False(t, r.Expired(reset.Add(-time.Millisecond)))
	assert.False(t, r.Expired(reset), "window still live exactly at resetAt")
	assert.True(t, r.Expired(reset.Add(time.Millisecond)))
}

func TestNewAuthContext(t *testing.T) {
	ac, err := NewAuthContext("u1", "o1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ac.UserID)
	assert.Equal(t, "o1", ac.OrganizationID)

	_, err = NewAuthContext("u1", "")
	assert.Error(t, err)
	_, err = NewAuthContext("", "o1")
	assert.Error(t, err)
}

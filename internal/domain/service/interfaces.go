package service

import (
	"context"
	"time"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/pkg/constants"
)

// RateLimitStore is the storage capability behind the admission controller.
// Increment must be atomic per key: concurrent callers sharing a key never
// interleave their read-modify-write. Swapping implementations changes only
// the sharing scope of the counters, never the observable semantics.
type RateLimitStore interface {
	// Increment counts one request for key. When no live record exists it starts
	// a fresh window of the given length with Count=1; otherwise it increments
	// the live record without moving its ResetAt.
	Increment(ctx context.Context, key string, window time.Duration) (models.RateLimitRecord, error)

	// Get returns the live record for key, or nil when absent or expired.
	Get(ctx context.Context, key string) (*models.RateLimitRecord, error)

	// Reset drops the record for key.
	Reset(ctx context.Context, key string) error

	// Backend names the implementation for logs and metrics.
	Backend() string
}

// SessionManager issues and verifies signed session tokens.
type SessionManager interface {
	// Issue creates a session token for userID.
	Issue(ctx context.Context, userID string) (token string, session *models.Session, err error)

	// Verify parses and validates token. Any invalid, expired or revoked token
	// yields errors.ErrUnauthorized.
	Verify(ctx context.Context, token string) (*models.Session, error)

	// Revoke invalidates a verified session until its natural expiry.
	Revoke(ctx context.Context, session *models.Session) error
}

// SessionRevocationStore remembers revoked session token IDs until they expire.
type SessionRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PasswordHasher hashes and compares account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// AuditEvent is a security-relevant occurrence published for offline review.
type AuditEvent struct {
	Type       constants.AuditEventType `json:"type"`
	Identity   string                   `json:"identity,omitempty"`
	Path       string                   `json:"path,omitempty"`
	Tier       constants.RouteTier      `json:"tier,omitempty"`
	Detail     string                   `json:"detail,omitempty"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// AuditPublisher delivers audit events. Publishing is best effort.
type AuditPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
	Close() error
}

// AdmissionMetrics records admission controller outcomes.
type AdmissionMetrics interface {
	RecordDecision(tier constants.RouteTier, allowed bool)
	RecordStoreError(backend string)
}

// AuthMetrics records auth context resolution outcomes.
type AuthMetrics interface {
	RecordResolution(outcome string)
}

// Package session implements signed session tokens, their revocation list and
// password hashing.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

var _ service.SessionManager = (*JWTManager)(nil)

// minSecretLength is the shortest HMAC key accepted for HS256.
const minSecretLength = 32

// JWTManager issues HS256 session tokens and verifies them against a revocation store.
type JWTManager struct {
	secret      []byte
	ttl         time.Duration
	revocations service.SessionRevocationStore
	log         logger.Logger
	now         func() time.Time
}

// JWTOption configures a JWTManager.
type JWTOption func(*JWTManager)

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) { m.now = now }
}

// NewJWTManager creates a session manager signing with secret.
//
// Parameters:
//   - secret: HMAC key, at least minSecretLength bytes
//   - ttl: Lifetime of issued sessions, the default when not positive
//   - revocations: Store of logged-out session IDs
//   - log: Logger instance
//
// Returns:
//   - *JWTManager: Initialized manager
//   - error: when the secret is too short or revocations is nil
func NewJWTManager(secret string, ttl time.Duration, revocations service.SessionRevocationStore, log logger.Logger, opts ...JWTOption) (*JWTManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if revocations == nil {
		return nil, fmt.Errorf("session revocation store is required")
	}
	if ttl <= 0 {
		ttl = constants.SessionDefaultTTL
	}
	m := &JWTManager{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		log:         log.WithComponent("session.jwt"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue creates and signs a new session token.
func (m *JWTManager) Issue(ctx context.Context, userID string) (string, *models.Session, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("user id is required")
	}
	now := m.now().UTC().Truncate(time.Second)
	session := &models.Session{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        session.TokenID,
		Subject:   session.UserID,
		Issuer:    constants.SessionIssuer,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		m.log.Error(ctx, "Failed to sign session token", err)
		return "", nil, err
	}
	return signed, session, nil
}

// Verify parses and validates a session token.
//
// Parameters:
//   - ctx: Request context
//   - tokenString: Compact HS256 token
//
// Returns:
//   - *models.Session: The session claims
//   - error: when the token is malformed, expired, forged or revoked
func (m *JWTManager) Verify(ctx context.Context, tokenString string) (*models.Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.SessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.ErrUnauthorized.WithCause(err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.ErrUnauthorized.WithCause(fmt.Errorf("session token missing subject or id"))
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, errors.ErrUnauthorized.WithCause(fmt.Errorf("session revoked"))
	}

	session := &models.Session{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}

// Revoke blacklists the session until it would have expired anyway.
func (m *JWTManager) Revoke(ctx context.Context, session *models.Session) error {
	if err := m.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return err
	}
	m.log.Info(ctx, "Session revoked", logger.String("user_id", session.UserID))
	return nil
}

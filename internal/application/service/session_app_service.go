package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/kpidash/internal/application/dto"
	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/repository"
	domainService "github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
	"github.com/turtacn/kpidash/pkg/utils"
)

// SessionAppService defines the account session use cases.
type SessionAppService interface {
	// Login verifies credentials and issues a session.
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error)

	// Signup creates an organization with its first user and issues a session.
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SessionResponse, error)

	// Logout revokes the session carried by token. Unknown or invalid tokens are ignored.
	Logout(ctx context.Context, token string) error

	// VerifyToken checks a session token handed over by an external callback.
	VerifyToken(ctx context.Context, token string) (*models.Session, error)
}

type sessionAppServiceImpl struct {
	users    repository.UserRepository
	hasher   domainService.PasswordHasher
	sessions domainService.SessionManager
	audit    domainService.AuditPublisher
	logger   logger.Logger

	// decoyOnce guards decoyHash, a hash of a random password compared
	// against when the account does not exist.
	decoyOnce sync.Once
	decoyHash string
}

// NewSessionAppService creates a new instance of SessionAppService
func NewSessionAppService(
	users repository.UserRepository,
	hasher domainService.PasswordHasher,
	sessions domainService.SessionManager,
	audit domainService.AuditPublisher,
	log logger.Logger,
) SessionAppService {
	return &sessionAppServiceImpl{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		audit:    audit,
		logger:   log.WithComponent("session"),
	}
}

// Login implements SessionAppService.
func (s *sessionAppServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := req.Email

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.compareDecoy(ctx, req.Password)
			s.publish(ctx, constants.AuditEventLoginFailed, email, "unknown account")
			return nil, errors.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "Failed to look up user", err, logger.String("email", utils.MaskEmail(email)))
		return nil, errors.Internal("failed to look up user", err)
	}

	match, err := s.hasher.Compare(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "Failed to compare password hash", err, logger.String("user_id", user.ID))
		return nil, errors.Internal("failed to verify credentials", err)
	}
	if !match {
		s.publish(ctx, constants.AuditEventLoginFailed, email, "password mismatch")
		return nil, errors.ErrInvalidCredentials
	}
	if user.OrgID() == "" {
		s.publish(ctx, constants.AuditEventOrganizationAbsent, user.ID, "login")
		return nil, errors.ErrOrganizationNotFound
	}

	resp, err := s.issue(ctx, user.ID, user.OrgID())
	if err != nil {
		return nil, err
	}
	s.publish(ctx, constants.AuditEventLoginSucceeded, user.ID, "")
	s.logger.Info(ctx, "User logged in", logger.String("user_id", user.ID))
	return resp, nil
}

// Signup implements SessionAppService.
func (s *sessionAppServiceImpl) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SessionResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	email := req.Email

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.logger.Error(ctx, "Failed to hash password", err)
		return nil, errors.Internal("failed to hash password", err)
	}

	now := time.Now().UTC()
	org := &models.Organization{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.OrganizationName),
		CreatedAt: now,
	}
	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		OrganizationID: utils.StringPtr(org.ID),
		CreatedAt:      now,
	}

	if err := s.users.CreateWithOrganization(ctx, org, user); err != nil {
		if errors.Is(err, errors.ErrConflict) {
			s.logger.Warn(ctx, "Signup with existing email", logger.String("email", utils.MaskEmail(email)))
			return nil, errors.ErrConflict.WithMessage("An account with this email already exists")
		}
		s.logger.Error(ctx, "Failed to create account", err)
		return nil, errors.Internal("failed to create account", err)
	}

	resp, err := s.issue(ctx, user.ID, org.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, constants.AuditEventSignup, user.ID, org.ID)
	s.logger.Info(ctx, "Account created",
		logger.String("user_id", user.ID),
		logger.String("organization_id", org.ID),
	)
	return resp, nil
}

// Logout implements SessionAppService.
func (s *sessionAppServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, err := s.sessions.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			return nil
		}
		return errors.Internal("failed to verify session", err)
	}
	if err := s.sessions.Revoke(ctx, session); err != nil {
		s.logger.Error(ctx, "Failed to revoke session", err, logger.String("user_id", session.UserID))
		return errors.Internal("failed to revoke session", err)
	}
	s.publish(ctx, constants.AuditEventLogout, session.UserID, "")
	return nil
}

// VerifyToken implements SessionAppService.
func (s *sessionAppServiceImpl) VerifyToken(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, errors.ErrUnauthorized
	}
	return s.sessions.Verify(ctx, token)
}

func (s *sessionAppServiceImpl) issue(ctx context.Context, userID, organizationID string) (*dto.SessionResponse, error) {
	token, session, err := s.sessions.Issue(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "Failed to issue session", err, logger.String("user_id", userID))
		return nil, errors.Internal("failed to issue session", err)
	}
	return &dto.SessionResponse{
		UserID:         userID,
		OrganizationID: organizationID,
		Token:          token,
		ExpiresAt:      session.ExpiresAt,
	}, nil
}

// publish is best effort; audit delivery never fails the request.
func (s *sessionAppServiceImpl) publish(ctx context.Context, eventType constants.AuditEventType, identity, detail string) {
	if s.audit == nil {
		return
	}
	if strings.Contains(identity, "@") {
		identity = utils.MaskEmail(identity)
	}
	err := s.audit.Publish(ctx, domainService.AuditEvent{
		Type:       eventType,
		Identity:   identity,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn(ctx, "Failed to publish audit event", logger.String("type", string(eventType)), logger.Error(err))
	}
}

// compareDecoy spends the same hashing work on an unknown account as on a
// known one, so response time does not reveal which emails are registered.
func (s *sessionAppServiceImpl) compareDecoy(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Warn(ctx, "Failed to prepare decoy password hash", logger.Error(err))
			return
		}
		s.decoyHash = hash
	})
	if s.decoyHash == "" {
		return
	}
	_, _ = s.hasher.Compare(password, s.decoyHash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

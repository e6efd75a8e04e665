package service

import (
	"context"
	"fmt"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/repository"
	domainService "github.com/turtacn/kpidash/internal/domain/service"
	"github.com/turtacn/kpidash/pkg/constants"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

// Resolution outcomes reported to AuthMetrics.
const (
	ResolutionDevelopment          = "development"
	ResolutionResolved             = "resolved"
	ResolutionUnauthorized         = "unauthorized"
	ResolutionOrganizationNotFound = "organization_not_found"
	ResolutionError                = "error"
)

// AuthContextService turns a session token into the caller's user and organization.
type AuthContextService struct {
	env      constants.Environment
	sessions domainService.SessionManager
	users    repository.UserRepository
	metrics  domainService.AuthMetrics
	logger   logger.Logger
}

// NewAuthContextService creates a resolver bound to env.
//
// The environment is mandatory: an empty or unrecognized value is an error and
// never falls back to development. Outside development the session manager and
// user repository are required.
func NewAuthContextService(
	env constants.Environment,
	sessions domainService.SessionManager,
	users repository.UserRepository,
	metrics domainService.AuthMetrics,
	log logger.Logger,
) (*AuthContextService, error) {
	if env == "" {
		return nil, errors.InvalidConfig("environment designation is required")
	}
	if !env.Valid() {
		return nil, errors.InvalidConfig("unknown environment %q", env)
	}
	if !env.IsDevelopment() && (sessions == nil || users == nil) {
		return nil, errors.InvalidConfig("session manager and user repository are required in %s", env)
	}
	if metrics == nil {
		metrics = noopAuthMetrics{}
	}

	s := &AuthContextService{
		env:      env,
		sessions: sessions,
		users:    users,
		metrics:  metrics,
		logger:   log.WithComponent("auth_context"),
	}
	if env.IsDevelopment() {
		s.logger.Warn(context.Background(), "Development environment: every request resolves to the fixed development identity",
			logger.String("user_id", constants.DevUserID),
			logger.String("organization_id", constants.DevOrganizationID),
		)
	}
	return s, nil
}

// Environment returns the environment the resolver was built for.
func (s *AuthContextService) Environment() constants.Environment {
	return s.env
}

// Resolve returns the auth context for sessionToken.
//
// Failures are errors.ErrUnauthorized when there is no usable session and
// errors.ErrOrganizationNotFound when the session user has no organization.
// Backend failures are returned as internal errors.
//
// Parameters:
//   - ctx: Request context
//   - sessionToken: Value of the session cookie, may be empty
//
// Returns:
//   - *models.AuthContext: User and organization of the caller
//   - error: Unauthorized, organization missing or internal failure
func (s *AuthContextService) Resolve(ctx context.Context, sessionToken string) (*models.AuthContext, error) {
	if s.env.IsDevelopment() {
		s.metrics.RecordResolution(ResolutionDevelopment)
		return models.NewAuthContext(constants.DevUserID, constants.DevOrganizationID)
	}

	if sessionToken == "" {
		s.metrics.RecordResolution(ResolutionUnauthorized)
		return nil, errors.ErrUnauthorized
	}

	session, err := s.sessions.Verify(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			s.metrics.RecordResolution(ResolutionUnauthorized)
			s.logger.Debug(ctx, "Session rejected", logger.Error(err))
			return nil, errors.ErrUnauthorized
		}
		s.metrics.RecordResolution(ResolutionError)
		s.logger.Error(ctx, "Session verification failed", err)
		return nil, errors.Internal("failed to verify session", err)
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.metrics.RecordResolution(ResolutionOrganizationNotFound)
			s.logger.Warn(ctx, "Session user not found", logger.String("user_id", session.UserID))
			return nil, errors.ErrOrganizationNotFound
		}
		s.metrics.RecordResolution(ResolutionError)
		s.logger.Error(ctx, "Failed to load session user", err, logger.String("user_id", session.UserID))
		return nil, errors.Internal("failed to load user", err)
	}

	authCtx, err := models.NewAuthContext(user.ID, user.OrgID())
	if err != nil {
		s.metrics.RecordResolution(ResolutionOrganizationNotFound)
		s.logger.Warn(ctx, "User has no organization", logger.String("user_id", user.ID))
		return nil, errors.ErrOrganizationNotFound.WithCause(fmt.Errorf("user %s: %w", user.ID, err))
	}

	s.metrics.RecordResolution(ResolutionResolved)
	return authCtx, nil
}

type noopAuthMetrics struct{}

func (noopAuthMetrics) RecordResolution(string) {}

package repository

import (
	"context"

	"github.com/turtacn/kpidash/internal/domain/models"
)

// UserRepository defines the interface for interacting with user and organization storage.
type UserRepository interface {
	// FindByID returns the user or errors.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail returns the user or errors.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateWithOrganization persists a new organization and its first user
	// atomically. A duplicate email yields errors.ErrConflict.
	CreateWithOrganization(ctx context.Context, org *models.Organization, user *models.User) error
}

package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/turtacn/kpidash/internal/domain/models"
	"github.com/turtacn/kpidash/internal/domain/repository"
	"github.com/turtacn/kpidash/pkg/errors"
	"github.com/turtacn/kpidash/pkg/logger"
)

type userRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewUserRepository creates a gorm-backed UserRepository.
func NewUserRepository(db *gorm.DB, log logger.Logger) repository.UserRepository {
	return &userRepository{
		db:     db,
		logger: log.WithComponent("user_repository"),
	}
}

// AutoMigrate creates the account tables for databases that do not run the bundled migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Organization{}, &models.User{})
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	start := time.Now()
	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound
		}
		r.logger.Error(ctx, "User lookup failed", err, logger.Duration("latency", time.Since(start)))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CreateWithOrganization(ctx context.Context, org *models.Organization, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errors.ErrConflict
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.ErrConflict
	}
	return err
}

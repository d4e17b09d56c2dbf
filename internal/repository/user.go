package repository

import (
	"context"
	"time"

	"otomar/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByRefreshToken(ctx context.Context, refreshToken string) (*model.User, error)
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
}

type userRepoImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepoImpl{
		db: db,
	}
}

func (r *userRepoImpl) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepoImpl) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepoImpl) FindByRefreshToken(ctx context.Context, refreshToken string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("refresh_token = ? AND refresh_token <> ''", refreshToken).
		First(&user).Error

	if err != nil {
		return nil, err
	}

	return &user, nil
}

// RotateRefreshToken replaces oldToken with newToken. An empty oldToken
// replaces whatever is stored (login). It reports false when oldToken was
// already rotated by a concurrent refresh.
func (r *userRepoImpl) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt time.Time) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID)
	if oldToken != "" {
		query = query.Where("refresh_token = ?", oldToken)
	}

	result := query.Updates(map[string]interface{}{
		"refresh_token":            newToken,
		"refresh_token_expires_at": expiresAt,
		"updated_at":               time.Now(),
	})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *userRepoImpl) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"refresh_token":            "",
			"refresh_token_expires_at": nil,
			"updated_at":               time.Now(),
		}).Error
}

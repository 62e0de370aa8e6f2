package repository

import (
	"context"

	"gorm.io/gorm"

	"photoshare/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUserName(ctx context.Context, userName string) (*model.User, error)
	UpdateActive(ctx context.Context, id uint, active bool) error
	UpdateRefreshToken(ctx context.Context, id uint, token string) error
	// WithTransaction runs fn with user and assignment repositories bound to
	// one transaction. fn returning an error rolls back both.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, assignments UserRoleRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateActive toggles the activation flag. Returns gorm.ErrRecordNotFound
// when no row matched.
func (r *userRepository) UpdateActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateRefreshToken stores the user's current refresh token. An empty token
// clears it.
func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uint, token string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", token).Error
}

func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, assignments UserRoleRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &userRepository{db: tx}, &userRoleRepository{db: tx})
	})
}

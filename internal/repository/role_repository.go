package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"photoshare/internal/model"
)

// RoleRepository defines role lookups. Roles are reference data.
type RoleRepository interface {
	FindByName(ctx context.Context, name model.RoleName) (*model.Role, error)
	// FindByUserID returns the role of the most recent assignment of the user.
	FindByUserID(ctx context.Context, userID uint) (*model.Role, error)
	// ListByUserID returns every role assigned to the user, newest first.
	ListByUserID(ctx context.Context, userID uint) ([]model.Role, error)
	// Seed inserts the given roles unless they already exist.
	Seed(ctx context.Context, names []model.RoleName) (created int, err error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// FindByName finds a role by its name.
func (r *roleRepository) FindByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) assigned(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Joins("JOIN users_roles ON users_roles.role_id = roles.id").
		Where("users_roles.user_id = ?", userID).
		Order("users_roles.id DESC")
}

// FindByUserID joins users_roles to roles for the given user.
func (r *roleRepository) FindByUserID(ctx context.Context, userID uint) (*model.Role, error) {
	var role model.Role
	if err := r.assigned(ctx, userID).Take(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListByUserID lists all roles assigned to the user.
func (r *roleRepository) ListByUserID(ctx context.Context, userID uint) ([]model.Role, error) {
	var roles []model.Role
	if err := r.assigned(ctx, userID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// Seed creates missing roles.
func (r *roleRepository) Seed(ctx context.Context, names []model.RoleName) (int, error) {
	created := 0
	for _, name := range names {
		_, err := r.FindByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := r.db.WithContext(ctx).Create(&model.Role{Name: name}).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"photoshare/internal/model"
)

// UserRoleRepository defines role assignment persistence operations.
type UserRoleRepository interface {
	// Assign makes the (user, role) pair the user's newest assignment. An
	// older row for the same pair is replaced, which moves it to the front of
	// the id ordering. Returns gorm.ErrDuplicatedKey when the pair already is
	// the newest assignment.
	Assign(ctx context.Context, assignment *model.UserRole) error
}

type userRoleRepository struct {
	db *gorm.DB
}

// NewUserRoleRepository creates a new assignment repository.
func NewUserRoleRepository(db *gorm.DB) UserRoleRepository {
	return &userRoleRepository{db: db}
}

func (r *userRoleRepository) Assign(ctx context.Context, assignment *model.UserRole) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var newest model.UserRole
		err := tx.Where("user_id = ?", assignment.UserID).Order("id DESC").Take(&newest).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && newest.RoleID == assignment.RoleID {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Where("user_id = ? AND role_id = ?", assignment.UserID, assignment.RoleID).
			Delete(&model.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Omit("User", "Role").Create(assignment).Error
	})
}

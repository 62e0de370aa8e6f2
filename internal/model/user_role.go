package model

import "time"

// UserRole links one user to one role. The (user, role) pair is unique, but a
// user may hold several distinct roles.
type UserRole struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:uq_user_id_role_id"`
	RoleID    uint      `json:"role_id" gorm:"not null;uniqueIndex:uq_user_id_role_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Role Role `json:"role" gorm:"foreignKey:RoleID"`
}

// TableName keeps the table name used by the existing schema.
func (UserRole) TableName() string {
	return "users_roles"
}

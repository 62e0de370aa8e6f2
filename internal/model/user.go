package model

import "time"

// User represents a registered member of the photo-sharing service.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserName     string    `json:"user_name" gorm:"size:250;uniqueIndex;not null"`
	FirstName    string    `json:"first_name" gorm:"size:50;not null"`
	LastName     string    `json:"last_name" gorm:"size:50;not null"`
	PasswordHash string    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	RefreshToken string    `json:"-" gorm:"size:1255"`
	Active       bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot returns the cacheable projection of the user.
func (u *User) Snapshot() *UserSnapshot {
	if u == nil {
		return nil
	}
	return &UserSnapshot{
		ID:        u.ID,
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

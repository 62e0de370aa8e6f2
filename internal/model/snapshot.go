package model

import "time"

// UserSnapshot is the cached form of a User. It deliberately carries no
// credential material so it can live in a shared cache tier.
type UserSnapshot struct {
	ID        uint      `json:"id"`
	UserName  string    `json:"user_name"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleSnapshot is the cached form of a Role.
type RoleSnapshot struct {
	ID   uint     `json:"id"`
	Name RoleName `json:"name"`
}

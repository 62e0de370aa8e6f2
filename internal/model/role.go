package model

import (
	"errors"
	"fmt"
	"strings"
)

// RoleName identifies one of the seeded roles.
type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleModerator RoleName = "moderator"
	RoleUser      RoleName = "user"
)

// DefaultRole is assigned to every user at sign-up.
const DefaultRole = RoleUser

// AllRoles lists the closed set of roles in seeding order.
var AllRoles = []RoleName{RoleAdmin, RoleModerator, RoleUser}

// ErrUnknownRole is returned by ParseRoleName for names outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRoleName validates a role name. Matching is exact after trimming spaces.
func ParseRoleName(s string) (RoleName, error) {
	name := RoleName(strings.TrimSpace(s))
	if !name.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return name, nil
}

// Valid reports whether r is one of the seeded roles.
func (r RoleName) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

func (r RoleName) String() string {
	return string(r)
}

// Role is immutable reference data, seeded once.
type Role struct {
	ID   uint     `json:"id" gorm:"primaryKey"`
	Name RoleName `json:"name" gorm:"type:varchar(50);uniqueIndex;not null"`
}

// Snapshot returns the cacheable projection of the role.
func (r *Role) Snapshot() *RoleSnapshot {
	if r == nil {
		return nil
	}
	return &RoleSnapshot{ID: r.ID, Name: r.Name}
}

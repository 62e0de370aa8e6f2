package access

import (
	"errors"
	"fmt"
	"strings"

	"photoshare/internal/model"
)

// ErrEmptyAllowList is returned when an allow-list names no roles.
var ErrEmptyAllowList = errors.New("allow-list must name at least one role")

// AllowList is the set of roles admitted to an operation. The zero value
// admits nobody.
type AllowList struct {
	roles map[model.RoleName]struct{}
}

// NewAllowList builds an allow-list from role names, rejecting names outside
// the closed role set.
func NewAllowList(names ...string) (AllowList, error) {
	roles := make([]model.RoleName, 0, len(names))
	for _, n := range names {
		r, err := model.ParseRoleName(n)
		if err != nil {
			return AllowList{}, fmt.Errorf("allow-list: %w", err)
		}
		roles = append(roles, r)
	}
	return Allow(roles...)
}

// Allow builds an allow-list from typed role names.
func Allow(roles ...model.RoleName) (AllowList, error) {
	if len(roles) == 0 {
		return AllowList{}, ErrEmptyAllowList
	}
	set := make(map[model.RoleName]struct{}, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return AllowList{}, fmt.Errorf("allow-list: %w: %q", model.ErrUnknownRole, r)
		}
		set[r] = struct{}{}
	}
	return AllowList{roles: set}, nil
}

// MustAllowList is Allow for static route tables. It panics on invalid input.
func MustAllowList(roles ...model.RoleName) AllowList {
	l, err := Allow(roles...)
	if err != nil {
		panic(err)
	}
	return l
}

// Contains reports whether role is admitted.
func (l AllowList) Contains(role model.RoleName) bool {
	_, ok := l.roles[role]
	return ok
}

func (l AllowList) String() string {
	names := make([]string, 0, len(l.roles))
	for _, r := range model.AllRoles {
		if l.Contains(r) {
			names = append(names, r.String())
		}
	}
	return strings.Join(names, ",")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photoshare/internal/cache"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// RoleService resolves role definitions and the roles held by users.
type RoleService interface {
	// ResolveRole returns the definition of a named role.
	ResolveRole(ctx context.Context, name model.RoleName) (*model.RoleSnapshot, error)
	// ResolveUserRole returns the user's effective role. The answer may be up
	// to one role TTL old.
	ResolveUserRole(ctx context.Context, userID uint) (*model.RoleSnapshot, error)
	// ResolveUserRoleFresh is ResolveUserRole straight from the store.
	ResolveUserRoleFresh(ctx context.Context, userID uint) (*model.RoleSnapshot, error)
	// ListUserRoles returns every role assigned to the user, newest first.
	ListUserRoles(ctx context.Context, userID uint) ([]model.RoleSnapshot, error)
}

type roleService struct {
	repo  repository.RoleRepository
	cache *cache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRoleService builds a RoleService. ttl applies to role:<name> and
// user_role:<id> entries.
func NewRoleService(repo repository.RoleRepository, c *cache.Client, ttl time.Duration, log zerolog.Logger) RoleService {
	return &roleService{
		repo:  repo,
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "roles").Logger(),
	}
}

func (s *roleService) ResolveRole(ctx context.Context, name model.RoleName) (*model.RoleSnapshot, error) {
	role, err := cache.GetOrLoad(ctx, s.cache, cache.Entry[model.RoleSnapshot]{
		Kind:        cache.KindRole,
		Key:         cache.RoleKey(name.String()),
		TTL:         s.ttl,
		CacheAbsent: true,
	}, func(ctx context.Context) (*model.RoleSnapshot, error) {
		return roleOrAbsent(s.repo.FindByName(ctx, name))
	})
	if err != nil {
		return nil, fmt.Errorf("resolve role %q: %w", name, err)
	}
	if role == nil {
		s.log.Error().Str("role", name.String()).Msg("role is referenced but not seeded")
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRoleConfiguration, name)
	}
	return role, nil
}

func (s *roleService) ResolveUserRole(ctx context.Context, userID uint) (*model.RoleSnapshot, error) {
	role, err := cache.GetOrLoad(ctx, s.cache, cache.Entry[model.RoleSnapshot]{
		Kind:        cache.KindUserRole,
		Key:         cache.UserRoleKey(userID),
		TTL:         s.ttl,
		CacheAbsent: true,
	}, func(ctx context.Context) (*model.RoleSnapshot, error) {
		return roleOrAbsent(s.repo.FindByUserID(ctx, userID))
	})
	return userRoleResult(userID, role, err)
}

func (s *roleService) ResolveUserRoleFresh(ctx context.Context, userID uint) (*model.RoleSnapshot, error) {
	role, err := roleOrAbsent(s.repo.FindByUserID(ctx, userID))
	return userRoleResult(userID, role, err)
}

func (s *roleService) ListUserRoles(ctx context.Context, userID uint) ([]model.RoleSnapshot, error) {
	roles, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list roles of user %d: %w", userID, err)
	}
	out := make([]model.RoleSnapshot, 0, len(roles))
	for i := range roles {
		out = append(out, *roles[i].Snapshot())
	}
	return out, nil
}

func userRoleResult(userID uint, role *model.RoleSnapshot, err error) (*model.RoleSnapshot, error) {
	if err != nil {
		return nil, fmt.Errorf("resolve role of user %d: %w", userID, err)
	}
	if role == nil {
		return nil, apperrors.ErrRoleNotAssigned
	}
	return role, nil
}

func roleOrAbsent(role *model.Role, err error) (*model.RoleSnapshot, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return role.Snapshot(), nil
}

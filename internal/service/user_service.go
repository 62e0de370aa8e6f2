package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// UserDetail is a user snapshot with the name of its effective role.
type UserDetail struct {
	model.UserSnapshot
	Role model.RoleName `json:"role"`
}

// UserService exposes user reads and administration.
type UserService interface {
	GetDetail(ctx context.Context, userName string) (*UserDetail, error)
	// SetActive blocks or unblocks a user. Cached snapshots keep the previous
	// flag until they expire.
	SetActive(ctx context.Context, userID uint, active bool) (*model.UserSnapshot, error)
}

type userService struct {
	repo     repository.UserRepository
	identity IdentityService
	roles    RoleService
	log      zerolog.Logger
}

// NewUserService builds a UserService.
func NewUserService(repo repository.UserRepository, identity IdentityService, roles RoleService, log zerolog.Logger) UserService {
	return &userService{
		repo:     repo,
		identity: identity,
		roles:    roles,
		log:      log.With().Str("component", "users").Logger(),
	}
}

func (s *userService) GetDetail(ctx context.Context, userName string) (*UserDetail, error) {
	user, err := s.identity.LookupByName(ctx, userName)
	if err != nil {
		return nil, err
	}
	role, err := s.roles.ResolveUserRole(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserDetail{UserSnapshot: *user, Role: role.Name}, nil
}

func (s *userService) SetActive(ctx context.Context, userID uint, active bool) (*model.UserSnapshot, error) {
	if err := s.repo.UpdateActive(ctx, userID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("update user %d: %w", userID, err)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reload user %d: %w", userID, err)
	}
	s.log.Info().Uint("user_id", userID).Bool("active", active).Msg("user activation changed")
	return user.Snapshot(), nil
}

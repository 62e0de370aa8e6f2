package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	apperrors "photoshare/internal/errors"
	"photoshare/internal/metrics"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// RoleAssignmentService grants roles to users.
type RoleAssignmentService interface {
	// Assign makes role the effective role of userID. A role the user held
	// before is moved back to the front. Cached role answers for the user are
	// left alone and age out on their own.
	Assign(ctx context.Context, userID uint, role model.RoleName) (*model.UserRole, error)
	// Within returns a service writing through repo, so an assignment can join
	// the caller's transaction.
	Within(repo repository.UserRoleRepository) RoleAssignmentService
}

type roleAssignmentService struct {
	roles RoleService
	repo  repository.UserRoleRepository
	log   zerolog.Logger
}

// NewRoleAssignmentService builds a RoleAssignmentService.
func NewRoleAssignmentService(roles RoleService, repo repository.UserRoleRepository, log zerolog.Logger) RoleAssignmentService {
	return &roleAssignmentService{
		roles: roles,
		repo:  repo,
		log:   log.With().Str("component", "role_assignment").Logger(),
	}
}

func (s *roleAssignmentService) Within(repo repository.UserRoleRepository) RoleAssignmentService {
	return &roleAssignmentService{roles: s.roles, repo: repo, log: s.log}
}

func (s *roleAssignmentService) Assign(ctx context.Context, userID uint, role model.RoleName) (*model.UserRole, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role)
	}
	def, err := s.roles.ResolveRole(ctx, role)
	if err != nil {
		return nil, err
	}

	assignment := &model.UserRole{UserID: userID, RoleID: def.ID}
	if err := s.repo.Assign(ctx, assignment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrRoleAlreadyAssigned
		}
		return nil, fmt.Errorf("assign role %s to user %d: %w", role, userID, err)
	}

	metrics.RoleAssignmentsTotal.WithLabelValues(role.String()).Inc()
	s.log.Info().Uint("user_id", userID).Str("role", role.String()).Msg("role assigned")
	return assignment, nil
}

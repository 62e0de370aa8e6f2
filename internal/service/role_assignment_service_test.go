package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/internal/cache"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

func TestRoleAssignmentService_Assign(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "alice")

	assignment, err := env.assignments.Assign(ctx, u.ID, model.RoleModerator)
	require.NoError(t, err)
	assert.NotZero(t, assignment.ID)
	assert.Equal(t, u.ID, assignment.UserID)

	role, err := env.roles.ResolveUserRoleFresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, role.Name)
}

func TestRoleAssignmentService_Duplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "bob", model.RoleUser)

	_, err := env.assignments.Assign(ctx, u.ID, model.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrRoleAlreadyAssigned)
}

func TestRoleAssignmentService_DemoteBackToPreviousRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "bea", model.RoleUser)

	_, err := env.assignments.Assign(ctx, u.ID, model.RoleAdmin)
	require.NoError(t, err)
	role, err := env.roles.ResolveUserRoleFresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role.Name)

	assignment, err := env.assignments.Assign(ctx, u.ID, model.RoleUser)
	require.NoError(t, err)
	assert.NotZero(t, assignment.ID)

	role, err = env.roles.ResolveUserRoleFresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role.Name)

	all, err := env.roles.ListUserRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.RoleUser, all[0].Name)
	assert.Equal(t, model.RoleAdmin, all[1].Name)

	// The role now in effect cannot be granted again.
	_, err = env.assignments.Assign(ctx, u.ID, model.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrRoleAlreadyAssigned)
}

func TestRoleAssignmentService_Within(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "cy")

	boom := errors.New("boom")
	err := env.users.WithTransaction(ctx, func(ctx context.Context, _ repository.UserRepository, assignments repository.UserRoleRepository) error {
		_, err := env.assignments.Within(assignments).Assign(ctx, u.ID, model.RoleModerator)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = env.roles.ResolveUserRoleFresh(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAssigned)
}

func TestRoleAssignmentService_LeavesCacheAlone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "carol", model.RoleUser)

	_, err := env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	before, err := env.mr.Get(cache.UserRoleKey(u.ID))
	require.NoError(t, err)
	ttlBefore := env.mr.TTL(cache.UserRoleKey(u.ID))

	_, err = env.assignments.Assign(ctx, u.ID, model.RoleAdmin)
	require.NoError(t, err)

	after, err := env.mr.Get(cache.UserRoleKey(u.ID))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, ttlBefore, env.mr.TTL(cache.UserRoleKey(u.ID)))
}

func TestRoleAssignmentService_UnseededRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)
	u := env.createUser(t, "dave")

	_, err := env.assignments.Assign(ctx, u.ID, model.RoleAdmin)
	assert.ErrorIs(t, err, apperrors.ErrRoleConfiguration)
}

func TestRoleAssignmentService_InvalidRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "erin")

	_, err := env.assignments.Assign(ctx, u.ID, model.RoleName("superuser"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/internal/cache"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
)

func TestRoleService_ResolveRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)

	for i := 0; i < 3; i++ {
		role, err := env.roles.ResolveRole(ctx, model.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, role.Name)
	}
	assert.EqualValues(t, 1, env.roleRepo.byName.Load())
	assert.Equal(t, roleTTL, env.mr.TTL(cache.RoleKey("admin")))
}

func TestRoleService_ResolveRole_Unseeded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, false)

	_, err := env.roles.ResolveRole(ctx, model.RoleModerator)
	assert.ErrorIs(t, err, apperrors.ErrRoleConfiguration)

	// The absence is cached too and expires like any other entry.
	raw, err := env.mr.Get(cache.RoleKey("moderator"))
	require.NoError(t, err)
	assert.Equal(t, "null", raw)

	_, err = env.roles.ResolveRole(ctx, model.RoleModerator)
	assert.ErrorIs(t, err, apperrors.ErrRoleConfiguration)
	assert.EqualValues(t, 1, env.roleRepo.byName.Load())
}

func TestRoleService_ResolveUserRole_TTLWindow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "alice", model.RoleUser)

	role, err := env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role.Name)
	assert.EqualValues(t, 1, env.roleRepo.byUserID.Load())

	env.mr.FastForward(roleTTL - time.Second)
	_, err = env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.roleRepo.byUserID.Load())

	env.mr.FastForward(2 * time.Second)
	_, err = env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, env.roleRepo.byUserID.Load())
}

func TestRoleService_StaleAfterReassignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	for i := 1; i < 7; i++ {
		env.createUser(t, fmt.Sprintf("member%d", i), model.RoleUser)
	}
	u := env.createUser(t, "bob", model.RoleUser)
	require.Equal(t, uint(7), u.ID)

	role, err := env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, role.Name)

	_, err = env.assignments.Assign(ctx, u.ID, model.RoleAdmin)
	require.NoError(t, err)

	// The cached answer survives the write until it expires.
	role, err = env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role.Name)

	role, err = env.roles.ResolveUserRoleFresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role.Name)

	cold := NewRoleService(env.roleRepo, nil, roleTTL, zerolog.Nop())
	role, err = cold.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role.Name)

	env.mr.FastForward(roleTTL + time.Second)
	role, err = env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role.Name)
}

func TestRoleService_NoAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "carol")

	_, err := env.roles.ResolveUserRole(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAssigned)
	assert.True(t, env.mr.Exists(cache.UserRoleKey(u.ID)))

	_, err = env.assignments.Assign(ctx, u.ID, model.RoleModerator)
	require.NoError(t, err)

	// Negative answers are cached as well.
	_, err = env.roles.ResolveUserRole(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrRoleNotAssigned)
	assert.EqualValues(t, 1, env.roleRepo.byUserID.Load())

	role, err := env.roles.ResolveUserRoleFresh(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, role.Name)
}

func TestRoleService_MultipleAssignments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "dave", model.RoleUser, model.RoleModerator)

	role, err := env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, role.Name)

	roles, err := env.roles.ListUserRoles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, model.RoleModerator, roles[0].Name)
	assert.Equal(t, model.RoleUser, roles[1].Name)

	roles, err = env.roles.ListUserRoles(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestRoleService_CacheUnavailable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "erin", model.RoleAdmin)
	env.mr.SetError("ERR simulated outage")

	role, err := env.roles.ResolveUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role.Name)

	role, err = env.roles.ResolveRole(ctx, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role.Name)
}

func TestRoleService_ConcurrentResolve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "frank", model.RoleModerator)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			role, err := env.roles.ResolveUserRole(ctx, u.ID)
			if err == nil && role.Name != model.RoleModerator {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRoleService_CancelledContext(t *testing.T) {
	env := newTestEnv(t, true)
	u := env.createUser(t, "gina", model.RoleUser)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.roles.ResolveUserRole(ctx, u.ID)
	assert.ErrorIs(t, err, context.Canceled)
}

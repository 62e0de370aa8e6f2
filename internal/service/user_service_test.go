package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
)

func TestUserService_GetDetail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	env.createUser(t, "alice", model.RoleModerator)
	svc := NewUserService(env.users, env.identity, env.roles, zerolog.Nop())

	detail, err := svc.GetDetail(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", detail.UserName)
	assert.Equal(t, model.RoleModerator, detail.Role)

	_, err = svc.GetDetail(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.users.byName.Load())
	assert.EqualValues(t, 1, env.roleRepo.byUserID.Load())

	_, err = svc.GetDetail(ctx, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrIdentityNotFound)
}

func TestUserService_SetActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	u := env.createUser(t, "bob", model.RoleUser)
	svc := NewUserService(env.users, env.identity, env.roles, zerolog.Nop())

	cached, err := env.identity.LookupByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, cached.Active)

	blocked, err := svc.SetActive(ctx, u.ID, false)
	require.NoError(t, err)
	assert.False(t, blocked.Active)

	// The cached snapshot keeps the old flag until it expires.
	cached, err = env.identity.LookupByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cached.Active)

	env.mr.FastForward(identityTTL)
	cached, err = env.identity.LookupByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, cached.Active)

	unblocked, err := svc.SetActive(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, unblocked.Active)

	_, err = svc.SetActive(ctx, 9999, false)
	assert.ErrorIs(t, err, apperrors.ErrIdentityNotFound)
}

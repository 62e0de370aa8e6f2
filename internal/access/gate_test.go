package access

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/internal/auth"
	"photoshare/internal/cache"
	"photoshare/internal/db"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
	"photoshare/internal/service"
)

type gateEnv struct {
	gate     *Gate
	jwt      *auth.JWTService
	mr       *miniredis.Miniredis
	identity service.IdentityService
	roles    service.RoleService
}

func newGateEnv(t *testing.T) *gateEnv {
	t.Helper()
	ctx := context.Background()

	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "gate.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	mr := miniredis.RunT(t)
	c := cache.New(cache.Options{Addr: mr.Addr(), DialTimeout: time.Second, MaxRetries: -1}, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })

	users := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	assignRepo := repository.NewUserRoleRepository(gormDB)
	_, err = roleRepo.Seed(ctx, model.AllRoles)
	require.NoError(t, err)

	add := func(name string, active bool, roles ...model.RoleName) {
		u := &model.User{UserName: name, FirstName: "F", LastName: "L", PasswordHash: "x", Active: true}
		require.NoError(t, users.Create(ctx, u))
		if !active {
			require.NoError(t, users.UpdateActive(ctx, u.ID, false))
		}
		for _, r := range roles {
			role, err := roleRepo.FindByName(ctx, r)
			require.NoError(t, err)
			require.NoError(t, assignRepo.Assign(ctx, &model.UserRole{UserID: u.ID, RoleID: role.ID}))
		}
	}
	add("ada", true, model.RoleAdmin)
	add("mo", true, model.RoleModerator)
	add("uma", true, model.RoleUser)
	add("nora", true)
	add("blocked", false, model.RoleAdmin)

	env := &gateEnv{
		jwt:      auth.NewJWTService("gate-secret", time.Minute, time.Hour),
		mr:       mr,
		identity: service.NewIdentityService(users, c, 900*time.Second, zerolog.Nop()),
		roles:    service.NewRoleService(roleRepo, c, 1900*time.Second, zerolog.Nop()),
	}
	env.gate = NewGate(env.jwt, env.identity, env.roles, zerolog.Nop())
	return env
}

func (e *gateEnv) token(t *testing.T, userName string) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(userName)
	require.NoError(t, err)
	return tok
}

// allowLists enumerates every non-empty subset of the role set.
func allowLists() [][]model.RoleName {
	var out [][]model.RoleName
	for mask := 1; mask < 1<<len(model.AllRoles); mask++ {
		var roles []model.RoleName
		for i, r := range model.AllRoles {
			if mask&(1<<i) != 0 {
				roles = append(roles, r)
			}
		}
		out = append(out, roles)
	}
	return out
}

func TestGate_Authorize_AllCombinations(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	holders := map[model.RoleName]string{
		model.RoleAdmin:     "ada",
		model.RoleModerator: "mo",
		model.RoleUser:      "uma",
	}

	for _, roles := range allowLists() {
		allow := MustAllowList(roles...)
		for role, userName := range holders {
			t.Run(allow.String()+"/"+role.String(), func(t *testing.T) {
				principal, err := env.gate.Authorize(ctx, env.token(t, userName), allow)
				if allow.Contains(role) {
					require.NoError(t, err)
					assert.Equal(t, userName, principal.User.UserName)
					assert.Equal(t, role, principal.Role.Name)
				} else {
					assert.ErrorIs(t, err, apperrors.ErrAuthorization)
					assert.Nil(t, principal)
				}
			})
		}
	}
}

func TestGate_UnknownPrincipalLooksLikeBadCredential(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	allow := MustAllowList(model.AllRoles...)

	_, badToken := env.gate.Authorize(ctx, "not-a-token", allow)
	_, unknown := env.gate.Authorize(ctx, env.token(t, "ghost"), allow)

	assert.ErrorIs(t, badToken, apperrors.ErrAuthentication)
	assert.ErrorIs(t, unknown, apperrors.ErrAuthentication)
	assert.Equal(t, badToken, unknown)
	assert.NotErrorIs(t, unknown, apperrors.ErrIdentityNotFound)

	_, wrongRole := env.gate.Authorize(ctx, env.token(t, "uma"), MustAllowList(model.RoleAdmin, model.RoleModerator))
	assert.True(t, IsDenial(unknown))
	assert.True(t, IsDenial(wrongRole))
	assert.False(t, IsDenial(errors.New("boom")))
}

func TestGate_RefreshTokenIsNotACredential(t *testing.T) {
	env := newGateEnv(t)
	refresh, err := env.jwt.GenerateRefreshToken("ada")
	require.NoError(t, err)

	_, err = env.gate.Authorize(context.Background(), refresh, MustAllowList(model.RoleAdmin))
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestGate_NoRoleIsDenied(t *testing.T) {
	env := newGateEnv(t)

	_, err := env.gate.Authorize(context.Background(), env.token(t, "nora"), MustAllowList(model.AllRoles...))
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)
}

func TestGate_BlockedPrincipalIsUnauthenticated(t *testing.T) {
	env := newGateEnv(t)

	_, err := env.gate.Authorize(context.Background(), env.token(t, "blocked"), MustAllowList(model.RoleAdmin))
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestGate_CacheUnavailableStillEnforces(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	env.mr.SetError("ERR simulated outage")
	adminOnly := MustAllowList(model.RoleAdmin)

	principal, err := env.gate.Authorize(ctx, env.token(t, "ada"), adminOnly)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, principal.Role.Name)

	_, err = env.gate.Authorize(ctx, env.token(t, "uma"), adminOnly)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = env.gate.Authorize(ctx, env.token(t, "ghost"), adminOnly)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

type failingRoles struct {
	service.RoleService
}

func (failingRoles) ResolveUserRole(context.Context, uint) (*model.RoleSnapshot, error) {
	return nil, errors.New("store unreachable")
}

type failingIdentity struct {
	service.IdentityService
}

func (failingIdentity) LookupByName(context.Context, string) (*model.UserSnapshot, error) {
	return nil, errors.New("store unreachable")
}

func TestGate_FailsClosed(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	allow := MustAllowList(model.AllRoles...)

	gate := NewGate(env.jwt, env.identity, failingRoles{}, zerolog.Nop())
	_, err := gate.Authorize(ctx, env.token(t, "ada"), allow)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	gate = NewGate(env.jwt, failingIdentity{}, env.roles, zerolog.Nop())
	_, err = gate.Authorize(ctx, env.token(t, "ada"), allow)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestGate_DenialIsCachedForRoleTTL(t *testing.T) {
	ctx := context.Background()
	env := newGateEnv(t)
	adminOnly := MustAllowList(model.RoleAdmin)

	_, err := env.gate.Authorize(ctx, env.token(t, "uma"), adminOnly)
	require.ErrorIs(t, err, apperrors.ErrAuthorization)

	uma, err := env.identity.LookupByName(ctx, "uma")
	require.NoError(t, err)
	assert.True(t, env.mr.Exists(cache.UserRoleKey(uma.ID)))
	assert.Equal(t, 1900*time.Second, env.mr.TTL(cache.UserRoleKey(uma.ID)))
}

package service

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"photoshare/internal/auth"
	"photoshare/internal/cache"
	"photoshare/internal/db"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

const (
	identityTTL = 900 * time.Second
	roleTTL     = 1900 * time.Second
)

// countingUsers counts store reads that the identity cache should absorb.
type countingUsers struct {
	repository.UserRepository
	byName atomic.Int64
	byID   atomic.Int64
}

func (r *countingUsers) FindByUserName(ctx context.Context, userName string) (*model.User, error) {
	r.byName.Add(1)
	return r.UserRepository.FindByUserName(ctx, userName)
}

func (r *countingUsers) FindByID(ctx context.Context, id uint) (*model.User, error) {
	r.byID.Add(1)
	return r.UserRepository.FindByID(ctx, id)
}

type countingRoles struct {
	repository.RoleRepository
	byName   atomic.Int64
	byUserID atomic.Int64
}

func (r *countingRoles) FindByName(ctx context.Context, name model.RoleName) (*model.Role, error) {
	r.byName.Add(1)
	return r.RoleRepository.FindByName(ctx, name)
}

func (r *countingRoles) FindByUserID(ctx context.Context, userID uint) (*model.Role, error) {
	r.byUserID.Add(1)
	return r.RoleRepository.FindByUserID(ctx, userID)
}

type testEnv struct {
	db          *gorm.DB
	mr          *miniredis.Miniredis
	cache       *cache.Client
	users       *countingUsers
	roleRepo    *countingRoles
	assignRepo  repository.UserRoleRepository
	identity    IdentityService
	roles       RoleService
	assignments RoleAssignmentService
	jwt         *auth.JWTService
}

func newTestEnv(t *testing.T, seedRoles bool) *testEnv {
	t.Helper()

	gormDB, err := db.NewSQLite(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	mr := miniredis.RunT(t)
	c := cache.New(cache.Options{Addr: mr.Addr(), DialTimeout: time.Second, MaxRetries: -1}, zerolog.Nop())
	t.Cleanup(func() { _ = c.Close() })

	e := &testEnv{
		db:         gormDB,
		mr:         mr,
		cache:      c,
		users:      &countingUsers{UserRepository: repository.NewUserRepository(gormDB)},
		roleRepo:   &countingRoles{RoleRepository: repository.NewRoleRepository(gormDB)},
		assignRepo: repository.NewUserRoleRepository(gormDB),
		jwt:        auth.NewJWTService("test-secret", time.Minute, time.Hour),
	}
	e.identity = NewIdentityService(e.users, c, identityTTL, zerolog.Nop())
	e.roles = NewRoleService(e.roleRepo, c, roleTTL, zerolog.Nop())
	e.assignments = NewRoleAssignmentService(e.roles, e.assignRepo, zerolog.Nop())

	if seedRoles {
		_, err := e.roleRepo.Seed(context.Background(), model.AllRoles)
		require.NoError(t, err)
	}
	return e
}

// createUser inserts a user straight into the store and assigns roles in order.
func (e *testEnv) createUser(t *testing.T, name string, roles ...model.RoleName) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{UserName: name, FirstName: "First", LastName: "Last", PasswordHash: "x", Active: true}
	require.NoError(t, e.users.Create(ctx, u))
	for _, r := range roles {
		role, err := e.roleRepo.RoleRepository.FindByName(ctx, r)
		require.NoError(t, err)
		require.NoError(t, e.assignRepo.Assign(ctx, &model.UserRole{UserID: u.ID, RoleID: role.ID}))
	}
	return u
}

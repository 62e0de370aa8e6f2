package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoshare/internal/config"
	"photoshare/internal/db"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

func TestSeed_RolesAndAdminAreIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		DB:    config.DBConfig{Driver: db.DriverSQLite, DSN: filepath.Join(t.TempDir(), "seed.db")},
		Cache: config.CacheConfig{IdentityTTL: 900 * time.Second, RoleTTL: 1900 * time.Second},
		Auth:  config.AuthConfig{JWTSecret: "seed"},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, seed(ctx, cfg, zerolog.Nop(), "root", "rootpass"))
	}

	gormDB, err := db.Open(cfg.DB.Driver, cfg.DB.DSN, db.Options{})
	require.NoError(t, err)

	var count int64
	require.NoError(t, gormDB.Model(&model.Role{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	user, err := repository.NewUserRepository(gormDB).FindByUserName(ctx, "root")
	require.NoError(t, err)
	roles, err := repository.NewRoleRepository(gormDB).ListByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, model.RoleAdmin, roles[0].Name)
	assert.Equal(t, model.RoleUser, roles[1].Name)
}

func TestSeed_AdminNeedsPassword(t *testing.T) {
	cfg := &config.Config{
		DB:   config.DBConfig{Driver: db.DriverSQLite, DSN: filepath.Join(t.TempDir(), "seed.db")},
		Auth: config.AuthConfig{JWTSecret: "seed"},
	}
	assert.Error(t, seed(context.Background(), cfg, zerolog.Nop(), "root", ""))
}

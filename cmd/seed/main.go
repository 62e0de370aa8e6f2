package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photoshare/internal/auth"
	"photoshare/internal/config"
	"photoshare/internal/db"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
	"photoshare/internal/service"
	"photoshare/pkg/logger"
)

func main() {
	adminName := flag.String("admin", "", "bootstrap an admin user with this name")
	adminPassword := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password of the bootstrapped admin")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true})

	if err := seed(ctx, cfg, log, *adminName, *adminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
}

func seed(ctx context.Context, cfg *config.Config, log zerolog.Logger, adminName, adminPassword string) error {
	gormDB, err := db.Open(cfg.DB.Driver, cfg.DB.DSN, db.Options{})
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("connected to database")

	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	log.Info().Msg("database migrations completed")

	roleRepo := repository.NewRoleRepository(gormDB)
	created, err := roleRepo.Seed(ctx, model.AllRoles)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	log.Info().Int("created", created).Int("total", len(model.AllRoles)).Msg("roles seeded")

	if adminName == "" {
		return nil
	}
	if adminPassword == "" {
		return errors.New("admin password is required (-admin-password or SEED_ADMIN_PASSWORD)")
	}
	return bootstrapAdmin(ctx, gormDB, cfg, log, adminName, adminPassword)
}

// bootstrapAdmin registers the user when missing and grants it the admin
// role. The seed writes only to the store.
func bootstrapAdmin(ctx context.Context, gormDB *gorm.DB, cfg *config.Config, log zerolog.Logger, name, password string) error {
	userRepo := repository.NewUserRepository(gormDB)
	roles := service.NewRoleService(repository.NewRoleRepository(gormDB), nil, cfg.Cache.RoleTTL, log)
	assignments := service.NewRoleAssignmentService(roles, repository.NewUserRoleRepository(gormDB), log)
	identity := service.NewIdentityService(userRepo, nil, cfg.Cache.IdentityTTL, log)
	authService := service.NewAuthService(userRepo, identity, assignments, auth.NewJWTService(cfg.Auth.JWTSecret, 0, 0), log)

	user, err := authService.Register(ctx, service.RegisterInput{UserName: name, Password: password, FirstName: name, LastName: "admin"})
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		if user, err = identity.LookupByName(ctx, name); err != nil {
			return err
		}
		log.Info().Str("user_name", name).Msg("admin user already exists")
	case err != nil:
		return fmt.Errorf("register admin: %w", err)
	}

	_, err = assignments.Assign(ctx, user.ID, model.RoleAdmin)
	if err != nil && !errors.Is(err, apperrors.ErrRoleAlreadyAssigned) {
		return fmt.Errorf("grant admin: %w", err)
	}
	log.Info().Str("user_name", name).Uint("user_id", user.ID).Msg("admin role granted")
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	_ "photoshare/docs" // swagger docs

	"photoshare/internal/access"
	"photoshare/internal/auth"
	"photoshare/internal/cache"
	"photoshare/internal/config"
	"photoshare/internal/db"
	"photoshare/internal/handler"
	"photoshare/internal/repository"
	"photoshare/internal/router"
	"photoshare/internal/service"
	"photoshare/pkg/logger"
)

// @title Photoshare Identity API
// @version 1.0
// @description Identity, role resolution and role-based access for the photo-sharing backend.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development"})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	gormDB, err := db.Open(cfg.DB.Driver, cfg.DB.DSN, db.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}

	if cfg.ResetDB {
		log.Warn().Msg("RESET_DB=true detected, dropping identity tables")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cache.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   cfg.Redis.MaxRetries,
	}, log)
	defer cacheClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("cache unreachable at startup, serving from the store")
	}
	cancel()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	userRoleRepo := repository.NewUserRoleRepository(gormDB)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	identityService := service.NewIdentityService(userRepo, cacheClient, cfg.Cache.IdentityTTL, log)
	roleService := service.NewRoleService(roleRepo, cacheClient, cfg.Cache.RoleTTL, log)
	assignmentService := service.NewRoleAssignmentService(roleService, userRoleRepo, log)
	authService := service.NewAuthService(userRepo, identityService, assignmentService, jwtService, log)
	userService := service.NewUserService(userRepo, identityService, roleService, log)
	gate := access.NewGate(jwtService, identityService, roleService, log)

	e := echo.New()
	router.Register(e, cfg, log, gate, jwtService, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		User:   handler.NewUserHandler(userService, identityService, roleService, assignmentService),
		Health: handler.NewHealthHandler(gormDB, cacheClient),
	})

	serverErrors := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info().Str("addr", addr).Msg("http server listening")
		serverErrors <- e.Start(addr)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		_ = e.Close()
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

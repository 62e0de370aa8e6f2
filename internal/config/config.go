package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string `env:"SERVER_PORT, default=8080"`
	Env         string `env:"ENV, default=development"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`
	SwaggerHost string `env:"SWAGGER_HOST"`

	// ResetDB drops the identity tables before migrating. Development only.
	ResetDB bool `env:"RESET_DB, default=false"`

	DB    DBConfig
	Redis RedisConfig
	Cache CacheConfig
	Auth  AuthConfig
}

type DBConfig struct {
	Driver          string        `env:"DB_DRIVER, default=mysql"`
	DSN             string        `env:"DB_DSN, default=user:password@tcp(localhost:3306)/photoshare?charset=utf8mb4&parseTime=True&loc=Local"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS, default=20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS, default=10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=30m"`
}

type RedisConfig struct {
	Addr         string        `env:"REDIS_ADDR, default=localhost:6379"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB, default=0"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT, default=2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT, default=500ms"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT, default=500ms"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES, default=1"`
}

// CacheConfig holds the expiry of identity cache entries.
type CacheConfig struct {
	// IdentityTTL applies to user:<name> and user:<id>.
	IdentityTTL time.Duration `env:"CACHE_IDENTITY_TTL, default=900s"`
	// RoleTTL applies to role:<name> and user_role:<id>.
	RoleTTL time.Duration `env:"CACHE_ROLE_TTL, default=1900s"`
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, default=change-me"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL, default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
}

// Load builds Config from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom builds Config from the given lookuper.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Cache.IdentityTTL <= 0 || c.Cache.RoleTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

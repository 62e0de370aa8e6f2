package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"photoshare/docs"
	"photoshare/internal/access"
	"photoshare/internal/auth"
	"photoshare/internal/config"
	"photoshare/internal/errors"
	"photoshare/internal/handler"
	"photoshare/internal/model"
)

var (
	adminOnly        = access.MustAllowList(model.RoleAdmin)
	adminOrModerator = access.MustAllowList(model.RoleAdmin, model.RoleModerator)
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log zerolog.Logger,
	gate *access.Gate,
	tokens *auth.JWTService,
	h Handlers,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", h.Health.Liveness)
	e.GET("/health/ready", h.Health.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/users/:user_name", h.User.GetDetail)

	// Any valid access token
	api.GET("/users/me", h.User.Me, echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(_ echo.Context, token string) (interface{}, error) {
			return tokens.ParseAccessToken(token)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return errors.ErrAuthentication
		},
	}))

	// Role-gated routes
	api.PATCH("/users/:id/block", h.User.Block, gate.Require(adminOnly))
	api.PATCH("/users/:id/unblock", h.User.Unblock, gate.Require(adminOnly))
	api.POST("/users/:id/roles", h.User.AssignRole, gate.Require(adminOnly))
	api.GET("/users/:id/role", h.User.GetRole, gate.Require(adminOrModerator))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

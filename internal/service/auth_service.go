package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"photoshare/internal/auth"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

const bcryptCost = 10

// Tokens is the pair issued on login and refresh. ExpiresIn is the lifetime
// of the access token.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// RegisterInput carries sign-up data.
type RegisterInput struct {
	UserName  string
	Password  string
	FirstName string
	LastName  string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.UserSnapshot, error)
	Login(ctx context.Context, userName, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users       repository.UserRepository
	identity    IdentityService
	assignments RoleAssignmentService
	jwtService  *auth.JWTService
	log         zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	identity IdentityService,
	assignments RoleAssignmentService,
	jwtService *auth.JWTService,
	log zerolog.Logger,
) AuthService {
	return &authService{
		users:       users,
		identity:    identity,
		assignments: assignments,
		jwtService:  jwtService,
		log:         log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a user with a hashed password and the default role. Both
// writes commit together or not at all.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.UserSnapshot, error) {
	// Check if the name is taken
	_, err := s.identity.LookupByName(ctx, in.UserName)
	if err == nil {
		return nil, apperrors.ErrUserAlreadyExists
	}
	if !errors.Is(err, apperrors.ErrIdentityNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		UserName:     in.UserName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashedPassword),
		Active:       true,
	}
	err = s.users.WithTransaction(ctx, func(ctx context.Context, users repository.UserRepository, assignments repository.UserRoleRepository) error {
		if err := users.Create(ctx, user); err != nil {
			// Lost a race with a concurrent sign-up for the same name.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrUserAlreadyExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := s.assignments.Within(assignments).Assign(ctx, user.ID, model.DefaultRole); err != nil {
			return fmt.Errorf("assign default role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("user_id", user.ID).Str("user_name", user.UserName).Msg("user registered")
	return user.Snapshot(), nil
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, userName, password string) (*Tokens, error) {
	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}

	return s.issue(ctx, user)
}

// Refresh rotates the refresh token. Only the most recently issued refresh
// token of a user is accepted.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	user, err := s.ownerOf(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}
	return s.issue(ctx, user)
}

// Logout invalidates the refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.ownerOf(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

func (s *authService) ownerOf(ctx context.Context, refreshToken string) (*model.User, error) {
	claims, err := s.jwtService.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.users.FindByUserName(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	return user, nil
}

func (s *authService) issue(ctx context.Context, user *model.User) (*Tokens, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.UserName)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.UserName)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtService.AccessTokenTTL(),
	}, nil
}

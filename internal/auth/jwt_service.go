package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenTTL is the duration for which access tokens are valid.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is the duration for which refresh tokens are valid.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature, expiry or shape checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is returned when a refresh token is presented as an access token or vice versa.
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims represents JWT claims. The subject is the user name.
type Claims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a new JWT service. Zero TTLs fall back to the defaults.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTokenTTL returns the lifetime of issued access tokens.
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// GenerateAccessToken generates a new access token for the user.
func (s *JWTService) GenerateAccessToken(userName string) (string, error) {
	return s.sign(userName, TokenTypeAccess, "", s.accessTTL)
}

// GenerateRefreshToken generates a new refresh token for the user.
// Every refresh token carries a unique id so rotation always yields a new value.
func (s *JWTService) GenerateRefreshToken(userName string) (string, error) {
	return s.sign(userName, TokenTypeRefresh, uuid.NewString(), s.refreshTTL)
}

func (s *JWTService) sign(userName string, typ TokenType, id string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   userName,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *JWTService) ParseAccessToken(tokenString string) (*Claims, error) {
	return s.parseTyped(tokenString, TokenTypeAccess)
}

// ParseRefreshToken validates a refresh token and returns its claims.
func (s *JWTService) ParseRefreshToken(tokenString string) (*Claims, error) {
	return s.parseTyped(tokenString, TokenTypeRefresh)
}

func (s *JWTService) parseTyped(tokenString string, typ TokenType) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// VerifyAccessToken returns the principal (user name) of a valid access token.
func (s *JWTService) VerifyAccessToken(tokenString string) (string, error) {
	claims, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

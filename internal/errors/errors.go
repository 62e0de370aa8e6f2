package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthentication is returned when the credential is missing, malformed
	// or expired, or when its principal does not resolve to an active user.
	ErrAuthentication = errors.New("authentication required")
	// ErrIdentityNotFound is returned when a user name or id has no record.
	ErrIdentityNotFound = errors.New("user not found")
	// ErrAuthorization is returned when the principal's role is not allowed.
	ErrAuthorization = errors.New("you don't have enough permissions")
	// ErrRoleConfiguration is returned when a referenced role was never seeded.
	ErrRoleConfiguration = errors.New("role is not configured")
	// ErrRoleNotAssigned is returned when a user holds no role.
	ErrRoleNotAssigned = errors.New("user has no role assigned")
	// ErrRoleAlreadyAssigned is returned when the (user, role) pair exists.
	ErrRoleAlreadyAssigned = errors.New("role already assigned to user")
	// ErrInvalidRole is returned for role names outside the closed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUserAlreadyExists is returned when signing up with a taken user name.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when user name or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid user name or password")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or rotated.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUserInactive is returned when a blocked user tries to log in.
	ErrUserInactive = errors.New("user is blocked")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var mapping = []struct {
	err    error
	status int
	code   string
}{
	{ErrAuthentication, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{ErrAuthorization, http.StatusForbidden, "FORBIDDEN"},
	{ErrIdentityNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrRoleNotAssigned, http.StatusNotFound, "ROLE_NOT_ASSIGNED"},
	{ErrRoleConfiguration, http.StatusInternalServerError, "ROLE_CONFIGURATION"},
	{ErrRoleAlreadyAssigned, http.StatusConflict, "ROLE_ALREADY_ASSIGNED"},
	{ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
	{ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrUserInactive, http.StatusForbidden, "USER_INACTIVE"},
}

// MapErrorToHTTP maps domain errors, including wrapped ones, to HTTP errors.
// Anything unknown becomes a generic 500 without leaking the cause.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mapping {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// IsKnown reports whether err is one of the domain sentinels.
func IsKnown(err error) bool {
	return MapErrorToHTTP(err).Code != "INTERNAL_ERROR"
}

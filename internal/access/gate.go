// Package access implements the role-based gate in front of protected
// operations.
package access

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	apperrors "photoshare/internal/errors"
	"photoshare/internal/metrics"
	"photoshare/internal/model"
	"photoshare/internal/service"
)

// TokenVerifier turns a bearer credential into the principal's user name.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

// Principal is the authenticated caller of a granted operation.
type Principal struct {
	User *model.UserSnapshot
	Role *model.RoleSnapshot
}

// Gate authorizes callers against per-operation allow-lists.
type Gate struct {
	verifier TokenVerifier
	identity service.IdentityService
	roles    service.RoleService
	log      zerolog.Logger
}

// NewGate creates a new access gate.
func NewGate(verifier TokenVerifier, identity service.IdentityService, roles service.RoleService, log zerolog.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		identity: identity,
		roles:    roles,
		log:      log.With().Str("component", "gate").Logger(),
	}
}

// Authorize admits the holder of credential when its role is in allow.
// Every failure to establish who the caller is yields ErrAuthentication, and
// every failure to establish an admitted role yields ErrAuthorization. The
// underlying cause is only logged.
func (g *Gate) Authorize(ctx context.Context, credential string, allow AllowList) (*Principal, error) {
	userName, err := g.verifier.VerifyAccessToken(credential)
	if err != nil {
		return nil, g.deny(apperrors.ErrAuthentication, "", err, "invalid credential")
	}

	user, err := g.identity.LookupByName(ctx, userName)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, g.deny(apperrors.ErrAuthentication, userName, err, "principal not resolved")
	}
	if !user.Active {
		return nil, g.deny(apperrors.ErrAuthentication, userName, nil, "principal is blocked")
	}

	role, err := g.roles.ResolveUserRole(ctx, user.ID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, g.deny(apperrors.ErrAuthorization, userName, err, "role not resolved")
	}
	if !allow.Contains(role.Name) {
		return nil, g.deny(apperrors.ErrAuthorization, userName, nil, "role not allowed")
	}

	metrics.AccessDecisionsTotal.WithLabelValues("granted").Inc()
	return &Principal{User: user, Role: role}, nil
}

// IsDenial reports whether err is a gate denial of either kind.
func IsDenial(err error) bool {
	return errors.Is(err, apperrors.ErrAuthentication) || errors.Is(err, apperrors.ErrAuthorization)
}

func (g *Gate) deny(kind error, userName string, cause error, reason string) error {
	decision := "forbidden"
	if errors.Is(kind, apperrors.ErrAuthentication) {
		decision = "unauthenticated"
	}
	metrics.AccessDecisionsTotal.WithLabelValues(decision).Inc()

	ev := g.log.Info()
	if cause != nil && !errors.Is(cause, apperrors.ErrIdentityNotFound) && !errors.Is(cause, apperrors.ErrRoleNotAssigned) {
		ev = g.log.Warn()
	}
	ev.Err(cause).Str("user_name", userName).Str("decision", decision).Msg(reason)
	return kind
}

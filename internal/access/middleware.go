package access

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "photoshare/internal/errors"
)

const principalKey = "principal"

// Require returns middleware that runs the gate for every request and stores
// the granted principal in the echo context.
func (g *Gate) Require(allow AllowList) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return g.deny(apperrors.ErrAuthentication, "", nil, "missing bearer credential")
			}

			principal, err := g.Authorize(c.Request().Context(), token, allow)
			if err != nil {
				return err
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal stored by Require.
func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/service"
)

// Authenticator resolves a raw session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// Session resolves the caller from the session cookie, or from an
// "Authorization: Bearer" header when no cookie is sent, and stores the
// user under "user", "user_id" and "role".  Requests without a valid
// session are answered with 401.
func Session(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := sessionToken(c, cookieName)
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Please login to access this resource"})
			}
			u, err := auth.Authenticate(c.Request().Context(), raw)
			if errors.Is(err, service.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Please login to access this resource"})
			}
			if err != nil {
				c.Logger().Errorf("session: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			setUser(c, u)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/service"
)

// RequireRole lets the request through only when the user stored by
// Session holds one of roles.  The 403 body names the required roles.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, _ := CurrentUser(c)
			err := service.Authorize(u, roles...)
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, service.ErrUnauthenticated):
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Please login to access this resource"})
			default:
				return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
			}
		}
	}
}

package middleware

// identity.go holds the context keys the session middleware fills in and
// the helpers that read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/model"
)

const (
	ctxUser   = "user"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// CurrentUser returns the user resolved by Session.  ok is false on routes
// without a session.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok && u.ID != 0
}

func setUser(c echo.Context, u model.User) {
	c.Set(ctxUser, u)
	c.Set(ctxUserID, strconv.FormatUint(u.ID, 10))
	c.Set(ctxRole, string(u.Role))
}

// userID is the rate limiter's view of the caller: the user id when a
// session was resolved, "guest" otherwise.
func userID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "guest"
}

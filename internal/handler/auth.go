package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/config"
	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/service"
	"github.com/iliyamo/orvella-storefront/internal/utils"
)

// AuthHandler serves register, login, logout and the current user.
type AuthHandler struct {
	Cfg  config.Config
	Gate *service.AuthGate
}

func NewAuthHandler(cfg config.Config, gate *service.AuthGate) *AuthHandler {
	if gate == nil {
		panic("nil auth gate passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Gate: gate}
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a customer and logs them in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, tok, err := h.Gate.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return h.sendSession(c, http.StatusCreated, u, tok)
}

// Login checks credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "Please enter email and password")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, tok, err := h.Gate.Login(ctx, req.Email, req.Password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "Invalid email or password"})
		}
		return fail(c, err)
	}
	return h.sendSession(c, http.StatusOK, u, tok)
}

// Logout expires the session cookie.  The token itself stays valid until
// its own expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Logged Out"})
}

// Me returns the session user.
func (h *AuthHandler) Me(c echo.Context) error {
	u := actor(c)
	if u.ID == 0 {
		return fail(c, service.ErrUnauthenticated)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": u})
}

func (h *AuthHandler) sendSession(c echo.Context, status int, u model.User, tok utils.SessionToken) error {
	c.SetCookie(h.cookie(tok.Token, tok.Exp))
	return c.JSON(status, echo.Map{"success": true, "user": u, "token": tok.Token})
}

func (h *AuthHandler) cookie(value string, exp time.Time) *http.Cookie {
	ck := &http.Cookie{
		Name:     h.Cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		ck.MaxAge = -1
	}
	if h.Cfg.CookieSecure {
		ck.SameSite = http.SameSiteNoneMode
	}
	return ck
}

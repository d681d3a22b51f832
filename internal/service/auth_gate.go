package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/utils"
)

// UserStore is the slice of the credential store the gate needs.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, cost int) (model.User, error)
	FindByEmail(ctx context.Context, email string, includeSecret bool) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
}

// Password bounds Register enforces.  bcrypt refuses input longer than
// MaxPasswordBytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// AuthGate issues and verifies session tokens and enforces roles.  A
// session is valid while its signature verifies, it has not expired and
// its user still exists; there is no server-side revocation.
type AuthGate struct {
	users  UserStore
	secret string
	ttl    time.Duration
	cost   int
	// dummyHash keeps login timing the same for unknown emails.
	dummyHash string
}

// NewAuthGate builds a gate signing with secret.  ttl is the session
// lifetime and cost the bcrypt work factor used for new passwords.
func NewAuthGate(users UserStore, secret string, ttl time.Duration, cost int) *AuthGate {
	if users == nil || secret == "" {
		panic("auth gate needs a user store and a secret")
	}
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	dummy, err := utils.HashPassword(hex.EncodeToString(buf), cost)
	if err != nil {
		panic(fmt.Sprintf("auth gate: %v", err))
	}
	return &AuthGate{users: users, secret: secret, ttl: ttl, cost: cost, dummyHash: dummy}
}

// SessionTTL is the lifetime of issued sessions.
func (g *AuthGate) SessionTTL() time.Duration { return g.ttl }

// IssueSession signs a session token for u.
func (g *AuthGate) IssueSession(u model.User) (utils.SessionToken, error) {
	if u.ID == 0 {
		return utils.SessionToken{}, fmt.Errorf("issue session: %w", ErrInvalidInput)
	}
	return utils.NewSessionToken(g.secret, u.ID, g.ttl)
}

// Authenticate verifies raw and resolves its user from the store.  The
// lookup happens on every call, so a deleted user or a role change takes
// effect on the next request.
func (g *AuthGate) Authenticate(ctx context.Context, raw string) (model.User, error) {
	if strings.TrimSpace(raw) == "" {
		return model.User{}, ErrUnauthenticated
	}
	id, err := utils.ParseSessionToken(g.secret, raw)
	if err != nil {
		return model.User{}, ErrUnauthenticated
	}
	u, err := g.users.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("resolve session user: %w", err)
	}
	return u, nil
}

// Authorize fails with ErrForbidden unless u holds one of roles.  The error
// names the required roles, nothing else.
func (g *AuthGate) Authorize(u model.User, roles ...model.Role) error {
	return Authorize(u, roles...)
}

// Authorize is the stateless form of AuthGate.Authorize.
func Authorize(u model.User, roles ...model.Role) error {
	if u.ID == 0 {
		return ErrUnauthenticated
	}
	for _, r := range roles {
		if u.Role == r {
			return nil
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Errorf("%w: role %q is not allowed to access this resource, requires %s",
		ErrForbidden, u.Role, strings.Join(names, " or "))
}

// Register creates a customer account and opens a session for it.
func (g *AuthGate) Register(ctx context.Context, name, email, password string) (model.User, utils.SessionToken, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return model.User{}, utils.SessionToken{}, fmt.Errorf("%w: password must not exceed %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}
	u, err := g.users.Create(ctx, name, email, password, g.cost)
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	tok, err := g.IssueSession(u)
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	return u, tok, nil
}

// Login checks credentials.  Unknown email and wrong password both yield
// ErrUnauthenticated after a bcrypt comparison of similar cost.
func (g *AuthGate) Login(ctx context.Context, email, password string) (model.User, utils.SessionToken, error) {
	u, err := g.users.FindByEmail(ctx, email, true)
	switch {
	case errors.Is(err, ErrNotFound):
		utils.VerifyPassword(g.dummyHash, password)
		return model.User{}, utils.SessionToken{}, ErrUnauthenticated
	case err != nil:
		return model.User{}, utils.SessionToken{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, utils.SessionToken{}, ErrUnauthenticated
	}
	u.PasswordHash = ""
	tok, err := g.IssueSession(u)
	if err != nil {
		return model.User{}, utils.SessionToken{}, err
	}
	return u, tok, nil
}

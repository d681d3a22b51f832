package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse permission class attached to a user.  The set of roles
// is closed: anything outside RoleUser and RoleAdmin is rejected by
// ParseRole and never reaches the store.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User mirrors the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name shown on orders and notifications.
//	Email        – unique, lower-cased email address.
//	PasswordHash – bcrypt hash; empty unless explicitly selected.
//	Role         – user or admin.
//	AvatarURL    – generated avatar image.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

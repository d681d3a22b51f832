package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/utils"
)

// UserRepo is the credential store.  Only FindByEmail with includeSecret
// set ever selects the password hash; every other read leaves it empty.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,name,email,role,avatar_url,created_at,updated_at"

// Create hashes password with the given bcrypt cost and inserts a user with
// role "user".  The plain password is not kept anywhere.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, cost int) (model.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	u := model.User{
		Name:      name,
		Email:     email,
		Role:      model.RoleUser,
		AvatarURL: avatarURL(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role, avatar_url, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Name, u.Email, hash, string(u.Role), u.AvatarURL, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = uint64(id)
	return u, nil
}

// FindByEmail fetches a user by normalized email.  The password hash is
// only selected when includeSecret is true.
func (r *UserRepo) FindByEmail(ctx context.Context, email string, includeSecret bool) (model.User, error) {
	cols := userCols
	if includeSecret {
		cols += ",password_hash"
	}
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+cols+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanUser(row, includeSecret)
}

// FindByID fetches a user by id, without the password hash.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row, false)
}

// UpdateRole changes a user's role and returns the updated record.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=?", string(role), time.Now().UTC(), id)
	if err != nil {
		return model.User{}, fmt.Errorf("update role: %w", err)
	}
	// RowsAffected is 0 on MySQL for an unchanged role as well, so existence
	// is decided by the re-read.
	return r.FindByID(ctx, id)
}

// List returns every user, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner, withHash bool) (model.User, error) {
	var (
		u    model.User
		role string
	)
	dest := []any{&u.ID, &u.Name, &u.Email, &role, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt}
	if withHash {
		dest = append(dest, &u.PasswordHash)
	}
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=D4AF37&color=000"
}

// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the referenced user, order or product does
// not exist.  Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own or without the required role.  Handlers
// translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of existing
// state, such as initializing a second master product.
var ErrConflict = errors.New("conflict")

// ErrDuplicateEmail is returned by UserRepo.Create when the email is taken.
var ErrDuplicateEmail = errors.New("email already exists")

// ErrInsufficientStock is returned when a decrement would take stock below
// zero.  Nothing is written in that case.
var ErrInsufficientStock = errors.New("insufficient stock")

// isDuplicateKey recognises unique-key violations from MySQL (1062) and,
// for the SQLite test database, from the generic constraint message.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

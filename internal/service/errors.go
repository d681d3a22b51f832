package service

import (
	"errors"

	"github.com/iliyamo/orvella-storefront/internal/repository"
)

var (
	// ErrUnauthenticated means no valid session: missing, forged or expired
	// token, a user that no longer exists, or wrong login credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidTransition is returned for a status change the order state
	// machine does not allow from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyTerminal is returned when the order is already Delivered.
	ErrAlreadyTerminal = errors.New("order already delivered")
	// ErrPriceMismatch is returned when client-computed prices disagree
	// with the line items beyond the configured tolerance.
	ErrPriceMismatch = errors.New("price mismatch")
	// ErrInvalidInput covers malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)

// Re-exported so handlers can match every failure against one package.
var (
	ErrForbidden         = repository.ErrForbidden
	ErrNotFound          = repository.ErrNotFound
	ErrConflict          = repository.ErrConflict
	ErrDuplicateEmail    = repository.ErrDuplicateEmail
	ErrInsufficientStock = repository.ErrInsufficientStock
)

package domain

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrTransportNotFound = errors.New("transport not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrAdminNotFound     = errors.New("admin not found")
)

var (
	ErrInvalidTransition = errors.New("booking status cannot change from its current state")
	ErrBookingExpired    = errors.New("booking has expired")
	ErrResourceInUse     = errors.New("resource still has bookings")
)

var (
	ErrValidation         = errors.New("validation error")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
)

// ResourceNotFound returns the not-found error for a resource kind.
func ResourceNotFound(kind ResourceKind) error {
	if kind == ResourceTransport {
		return ErrTransportNotFound
	}
	return ErrRoomNotFound
}

package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Every error leaving the service layer wraps one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrStorage       = errors.New("storage error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

var (
	ErrDuplicateEmail  = fmt.Errorf("%w: email is already registered", ErrAlreadyExists)
	ErrDuplicateGroup  = fmt.Errorf("%w: customer group id is taken", ErrAlreadyExists)
	ErrLastAdmin       = fmt.Errorf("%w: at least one admin must remain", ErrConflict)
	ErrDeleteSelf      = fmt.Errorf("%w: users cannot delete themselves", ErrConflict)
	ErrAlreadyApproved = fmt.Errorf("%w: already approved", ErrConflict)
	ErrNotPending      = fmt.Errorf("%w: only pending records can be rejected", ErrConflict)
	ErrAdminOnly       = fmt.Errorf("%w: admin role required", ErrForbidden)
	ErrFilesDisabled   = fmt.Errorf("%w: file storage is not configured", ErrConflict)
	ErrNoFile          = fmt.Errorf("%w: document has no file", ErrNotFound)
	ErrTooManyAttempts = fmt.Errorf("%w: too many failed login attempts, try again later", ErrUnauthorized)
)

var (
	ErrEmailInvalidLen    = fmt.Errorf("%w: email length exceeds 255 characters", ErrValidation)
	ErrEmailInvalidFormat = fmt.Errorf("%w: incorrect email format", ErrValidation)
	ErrPasswordTooShort   = fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	ErrInvalidRole        = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrNameRequired       = fmt.Errorf("%w: name is required", ErrValidation)
)

func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or reference conflict.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the actor lacks the required role or permission.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLastAdmin guards the last active administrator account.
	ErrLastAdmin = errors.New("cannot modify or remove the last active administrator")
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = errors.New("invalid state transition")
)

// MissingPermissionsError reports which permissions the actor lacks.
type MissingPermissionsError struct {
	Missing []string
}

func (e *MissingPermissionsError) Error() string {
	return fmt.Sprintf("access denied, missing permissions: %s", strings.Join(e.Missing, ", "))
}

// Unwrap lets errors.Is treat the error as ErrForbidden.
func (e *MissingPermissionsError) Unwrap() error {
	return ErrForbidden
}

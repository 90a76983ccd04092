package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled = errors.New("account is disabled")
)

// AccountLockedError is returned when authentication is refused because the
// account is temporarily locked after repeated failures. RetryAfter is the
// time left until the lock expires.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is temporarily locked, retry in %d minutes", e.RetryAfterMinutes())
}

// RetryAfterMinutes returns the remaining lock time rounded up to whole
// minutes, never less than 1 while the lock holds.
func (e *AccountLockedError) RetryAfterMinutes() int {
	minutes := int(math.Ceil(e.RetryAfter.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

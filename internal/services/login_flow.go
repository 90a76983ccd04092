package services

import (
	"time"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	pkgauth "github.com/escola-solidaria/solidaria-api/pkg/auth"
)

// verifyWithLockout runs the credential check shared by both login flows.
// It returns the lock state the caller must persist, whether the password
// matched, and the error to surface.
//
// Attempts against an active lock are rejected without touching the counter.
// A failure that reaches the attempt limit reports the lock immediately so
// the client sees the wait time on the triggering request.
func verifyWithLockout(state auth.LockState, passwordHash, password string, now time.Time) (auth.LockState, bool, error) {
	if state.Locked(now) {
		return state, false, &models.AccountLockedError{RetryAfter: state.Remaining(now)}
	}

	if err := pkgauth.ComparePassword(passwordHash, password); err != nil {
		next := state.Fail(now)
		if next.Locked(now) {
			return next, false, &models.AccountLockedError{RetryAfter: next.Remaining(now)}
		}
		return next, false, models.ErrUnauthorized
	}

	return state.Reset(), true, nil
}

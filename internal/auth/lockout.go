package auth

import "time"

// Brute-force lockout policy shared by student and staff logins.
const (
	MaxFailedAttempts = 5
	LockDuration      = 15 * time.Minute
)

// LockState is the persisted lockout counters of an account. The zero value
// is an unlocked account with no failed attempts.
type LockState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked reports whether the account is locked at the given instant.
func (s LockState) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// Remaining returns how long the lock still holds at the given instant,
// or zero when the account is not locked.
func (s LockState) Remaining(now time.Time) time.Duration {
	if !s.Locked(now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}

// Fail records a failed login attempt and returns the new state. A failure
// after a lock has expired starts a fresh count at one; reaching
// MaxFailedAttempts triggers a lock of LockDuration. Callers must reject
// attempts against a still-active lock before calling Fail, so a locked
// account never accumulates further failures.
func (s LockState) Fail(now time.Time) LockState {
	if s.LockedUntil != nil && !now.Before(*s.LockedUntil) {
		// Expired lock: this failure starts a new count.
		return LockState{FailedAttempts: 1}
	}

	next := LockState{FailedAttempts: s.FailedAttempts + 1}
	if next.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(LockDuration)
		next.LockedUntil = &until
	}
	return next
}

// Reset clears all counters after a successful login.
func (s LockState) Reset() LockState {
	return LockState{}
}

package models

import "time"

// StaffUser is the separate admin/editor account record used by the content
// management panel (variant B of the two account systems). It authenticates
// with email instead of a handle and its tokens carry email and role claims.
type StaffUser struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string // never serialized to clients
	Role           string // "admin" or "editor"
	AvatarURL      string
	Active         bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Locked reports whether the account lock is still in effect at now.
func (u *StaffUser) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

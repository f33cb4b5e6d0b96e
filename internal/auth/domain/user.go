package domain

import "time"

type User struct {
	ID                  string
	Login               string
	PasswordHash        string
	DisplayName         string
	Role                string
	IsBlocked           bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	LoginCount          int
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// Deleted reports whether the user carries a soft-delete tombstone. Tombstoned
// users can never authenticate and their login stays reserved forever.
func (u *User) Deleted() bool {
	return u.DeletedAt != nil
}

// LockedAt reports whether the lockout window is still open at the given
// instant. An expired window is not cleared proactively; it self-heals on the
// next successful password check.
func (u *User) LockedAt(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

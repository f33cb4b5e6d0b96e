package domain

import "time"

// RefreshToken is one session record. The token string is an opaque random
// value used only as a lookup key; it carries no structure. A row is mutated
// exactly once, by revocation, and is never deleted except by user purge.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
	IPAddress string
	UserAgent string
}

func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

package domain

//go:generate mockgen -destination=../../mocks/mock_stores.go -package=mocks github.com/bkopanichuk/ems/internal/auth/domain CredentialStore,SessionStore,AuditSink,AuditStore,Clock,IDGenerator,PasswordHasher

import (
	"context"
	"time"
)

// CredentialStore persists user records. Lookups return (nil, nil) when no row
// matches; errors are reserved for infrastructure failures.
type CredentialStore interface {
	GetByLogin(ctx context.Context, login string) (*User, error)
	GetByID(ctx context.Context, id string, includeDeleted bool) (*User, error)
	Create(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// RecordLoginFailure atomically increments the failure counter and, when
	// the incremented value reaches maxAttempts, sets the lockout deadline in
	// the same statement. It returns the post-increment counter and whether
	// the lock was set, so two concurrent failures cannot both observe a
	// stale count.
	RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (attempts int, locked bool, err error)

	// RecordLoginSuccess resets the failure counter, clears any lockout
	// deadline, stamps lastLoginAt and increments loginCount in one update.
	RecordLoginSuccess(ctx context.Context, id string, now time.Time) error

	SoftDelete(ctx context.Context, id string, now time.Time) error

	// Purge hard-deletes the user and cascades over audit and session rows in
	// a single transaction.
	Purge(ctx context.Context, id string) error
}

// SessionStore persists refresh-token rows keyed by the opaque token string.
type SessionStore interface {
	// GetByToken fetches a row by exact token string joined with its owning
	// user. Both returns are nil when the token is unknown.
	GetByToken(ctx context.Context, token string) (*RefreshToken, *User, error)
	Insert(ctx context.Context, rt *RefreshToken) error

	// Revoke marks the row revoked only if it is still unrevoked. The boolean
	// reports whether this call won the transition; a false result means a
	// concurrent operation already consumed the row.
	Revoke(ctx context.Context, id string, now time.Time) (bool, error)

	// RevokeForUser revokes a row matched by id and owner, guarded the same
	// way as Revoke.
	RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error)

	// RevokeByToken revokes the row matching token and owner if still active.
	// Unknown or already-revoked tokens are a no-op.
	RevokeByToken(ctx context.Context, userID, token string, now time.Time) error

	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]RefreshToken, error)
}

// AuditSink records security events. Implementations must never propagate a
// failure to the caller; a lost audit record is preferable to a broken login.
type AuditSink interface {
	Log(ctx context.Context, event AuditEvent)
}

// AuditStore is the persistence contract behind the audit service.
type AuditStore interface {
	Insert(ctx context.Context, event *AuditEvent) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Clock and IDGenerator are seams so time- and identity-dependent logic stays
// testable.
type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// PasswordHasher is a one-way salted hash with verification.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

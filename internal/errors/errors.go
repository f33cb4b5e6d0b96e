package errors

import (
	"errors"
)

var (
	// ErrInvalidCredentials is the generic rejection for unknown logins and
	// wrong passwords alike, so callers cannot enumerate accounts. The audit
	// trail records the specific reason.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountLocked is distinct from ErrInvalidCredentials so clients can
	// show a cooldown instead of a retry prompt.
	ErrAccountLocked = errors.New("account is temporarily locked")

	// ErrAccountBlocked is an administrative hard block, independent of the
	// failed-attempt lockout.
	ErrAccountBlocked = errors.New("user is blocked")

	ErrTokenInvalid = errors.New("invalid refresh token")
	ErrTokenExpired = errors.New("refresh token has expired")

	// ErrTokenReuseDetected means an already-consumed refresh token was
	// presented again. All of the user's sessions are torn down before this
	// is returned; clients must force a full re-login.
	ErrTokenReuseDetected = errors.New("token has been revoked")

	ErrSessionNotFound = errors.New("session not found or already revoked")

	ErrLoginTaken             = errors.New("login already in use")
	ErrUserNotFound           = errors.New("user not found")
	ErrAdminPasswordChange    = errors.New("admins cannot change their password")
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
)

package constant

// User roles. ADMIN accounts are provisioned, never self-registered, and are
// excluded from the password-change flow by policy.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Audit actions recorded by the audit sink.
const (
	ActionLoginSuccess    = "LOGIN_SUCCESS"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionLogout          = "LOGOUT"
	ActionTokenRefresh    = "TOKEN_REFRESH"
	ActionTokenRevoked    = "TOKEN_REVOKED"
	ActionUserCreated     = "USER_CREATED"
	ActionUserUpdated     = "USER_UPDATED"
	ActionUserDeleted     = "USER_DELETED"
	ActionUserBlocked     = "USER_BLOCKED"
	ActionUserUnblocked   = "USER_UNBLOCKED"
	ActionProfileUpdated  = "PROFILE_UPDATED"
	ActionPasswordChanged = "PASSWORD_CHANGED"
	ActionRoleAssigned    = "ROLE_ASSIGNED"
)

// Failure reasons attached to LOGIN_FAILED / TOKEN_REVOKED audit metadata.
const (
	ReasonUserNotFound    = "user_not_found"
	ReasonUserDeleted     = "user_deleted"
	ReasonAccountLocked   = "account_locked"
	ReasonUserBlocked     = "user_blocked"
	ReasonInvalidPassword = "invalid_password"
	ReasonReuseAttempt    = "reuse_attempt"
)

// UnknownUserID is recorded on audit events for login attempts against
// non-existent accounts, so user existence is never leaked by the trail.
const UnknownUserID = "unknown"

// BcryptCost is the work factor for password hashing.
const BcryptCost = 10

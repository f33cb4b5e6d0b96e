package domain

import "time"

// AuditEvent is an append-only record of a security-relevant action. UserID is
// a plain string rather than a foreign key so attempts against non-existent
// accounts can be recorded as "unknown".
type AuditEvent struct {
	ID        string
	UserID    string
	Action    string
	Metadata  map[string]any
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// AuditUser is the minimal user projection joined onto queried audit entries.
type AuditUser struct {
	ID          string
	Login       string
	DisplayName string
	Role        string
}

// AuditEntry is a stored event together with its user projection, when the
// recorded user id still resolves to a row.
type AuditEntry struct {
	AuditEvent
	User *AuditUser
}

// AuditFilter narrows an audit query. Zero values mean "no constraint".
type AuditFilter struct {
	UserID    string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

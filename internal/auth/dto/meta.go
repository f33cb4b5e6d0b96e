package dto

// RequestMeta identifies who performed an administrative action and from
// where, for the audit trail.
type RequestMeta struct {
	ActorID   string
	IPAddress string
	UserAgent string
}

package dto

import (
	"time"

	"github.com/bkopanichuk/ems/internal/auth/domain"
)

type AuditQueryInput struct {
	UserID    string     `query:"user_id"`
	Action    string     `query:"action"`
	StartDate *time.Time `query:"start_date"`
	EndDate   *time.Time `query:"end_date"`
	Page      int        `query:"page"`
	PerPage   int        `query:"per_page"`
}

type AuditUserOutput struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type AuditEntryOutput struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Action    string           `json:"action"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	IPAddress string           `json:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	User      *AuditUserOutput `json:"user,omitempty"`
}

type AuditPageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	LastPage int `json:"last_page"`
}

type AuditQueryOutput struct {
	Data []AuditEntryOutput `json:"data"`
	Meta AuditPageMeta      `json:"meta"`
}

func NewAuditEntryOutput(e domain.AuditEntry) AuditEntryOutput {
	out := AuditEntryOutput{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		Metadata:  e.Metadata,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
	}
	if e.User != nil {
		out.User = &AuditUserOutput{
			ID:          e.User.ID,
			Login:       e.User.Login,
			DisplayName: e.User.DisplayName,
			Role:        e.User.Role,
		}
	}
	return out
}

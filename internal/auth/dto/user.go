package dto

import (
	"time"

	"github.com/bkopanichuk/ems/internal/auth/domain"
)

type UserOutput struct {
	ID          string     `json:"id"`
	Login       string     `json:"login"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	IsBlocked   bool       `json:"is_blocked"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LoginCount  int        `json:"login_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewUserOutput strips the credential fields off a user record.
func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:          u.ID,
		Login:       u.Login,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		IsBlocked:   u.IsBlocked,
		LastLoginAt: u.LastLoginAt,
		LoginCount:  u.LoginCount,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type CreateUserInput struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// UpdateUserInput carries the admin-editable fields. Nil pointers mean "leave
// unchanged"; Login is immutable and deliberately absent.
type UpdateUserInput struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	IsBlocked   *bool   `json:"is_blocked"`
	Password    *string `json:"password"`
}

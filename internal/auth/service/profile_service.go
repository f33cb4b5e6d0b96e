package service

import (
	"context"

	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/bkopanichuk/ems/internal/auth/dto"
	autherror "github.com/bkopanichuk/ems/internal/errors"
	"github.com/bkopanichuk/ems/pkg/constant"
)

// ProfileService covers what a user may do to their own account.
type ProfileService struct {
	creds  domain.CredentialStore
	audit  domain.AuditSink
	hasher domain.PasswordHasher
	clock  domain.Clock
}

func NewProfileService(creds domain.CredentialStore, audit domain.AuditSink, hasher domain.PasswordHasher, clock domain.Clock) *ProfileService {
	return &ProfileService{creds: creds, audit: audit, hasher: hasher, clock: clock}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.creds.GetByID(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, input dto.UpdateProfileInput) (*dto.UserOutput, error) {
	user, err := s.creds.GetByID(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	user.DisplayName = input.DisplayName
	user.UpdatedAt = s.clock.Now()

	if err := s.creds.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionProfileUpdated,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	out := dto.NewUserOutput(user)

	return &out, nil
}

// ChangePassword verifies the current password before accepting a new one.
// Admin accounts are excluded from this flow by policy.
func (s *ProfileService) ChangePassword(ctx context.Context, userID string, input dto.ChangePasswordInput) error {
	user, err := s.creds.GetByID(ctx, userID, false)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	if user.Role == constant.RoleAdmin {
		return autherror.ErrAdminPasswordChange
	}

	if !s.hasher.Verify(user.PasswordHash, input.CurrentPassword) {
		return autherror.ErrCurrentPasswordInvalid
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	if err := s.creds.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionPasswordChanged,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return nil
}

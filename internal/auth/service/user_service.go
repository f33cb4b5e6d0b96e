package service

import (
	"context"

	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/bkopanichuk/ems/internal/auth/dto"
	autherror "github.com/bkopanichuk/ems/internal/errors"
	"github.com/bkopanichuk/ems/pkg/constant"
)

// UserService is the administrative account lifecycle: provisioning, role and
// block management, soft deletion and purge.
type UserService struct {
	creds    domain.CredentialStore
	sessions domain.SessionStore
	audit    domain.AuditSink
	hasher   domain.PasswordHasher
	clock    domain.Clock
	ids      domain.IDGenerator
}

func NewUserService(
	creds domain.CredentialStore,
	sessions domain.SessionStore,
	audit domain.AuditSink,
	hasher domain.PasswordHasher,
	clock domain.Clock,
	ids domain.IDGenerator,
) *UserService {
	return &UserService{
		creds:    creds,
		sessions: sessions,
		audit:    audit,
		hasher:   hasher,
		clock:    clock,
		ids:      ids,
	}
}

// Create provisions an account. The uniqueness check goes through GetByLogin,
// which sees tombstoned rows too: a retired login stays taken forever.
func (s *UserService) Create(ctx context.Context, input dto.CreateUserInput, meta dto.RequestMeta) (*dto.UserOutput, error) {
	existing, err := s.creds.GetByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrLoginTaken
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = constant.RoleUser
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.ids.NewID(),
		Login:        input.Login,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.creds.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logAction(ctx, user.ID, constant.ActionUserCreated, map[string]any{"login": user.Login}, meta)

	out := dto.NewUserOutput(user)

	return &out, nil
}

func (s *UserService) List(ctx context.Context) ([]dto.UserOutput, error) {
	users, err := s.creds.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.UserOutput, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserOutput(&users[i]))
	}

	return out, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*dto.UserOutput, error) {
	user, err := s.creds.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

// Update applies the admin patch. Login is immutable; only the fields present
// on the input change. Block and role transitions get their own audit actions
// on top of the generic USER_UPDATED.
func (s *UserService) Update(ctx context.Context, id string, input dto.UpdateUserInput, meta dto.RequestMeta) (*dto.UserOutput, error) {
	user, err := s.creds.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	wasBlocked := user.IsBlocked
	previousRole := user.Role

	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.IsBlocked != nil {
		user.IsBlocked = *input.IsBlocked
	}
	user.UpdatedAt = s.clock.Now()

	if err := s.creds.Update(ctx, user); err != nil {
		return nil, err
	}

	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		if err := s.creds.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, err
		}
	}

	s.logAction(ctx, user.ID, constant.ActionUserUpdated, nil, meta)

	if !wasBlocked && user.IsBlocked {
		s.logAction(ctx, user.ID, constant.ActionUserBlocked, nil, meta)
	}
	if wasBlocked && !user.IsBlocked {
		s.logAction(ctx, user.ID, constant.ActionUserUnblocked, nil, meta)
	}
	if previousRole != user.Role {
		s.logAction(ctx, user.ID, constant.ActionRoleAssigned, map[string]any{"role": user.Role}, meta)
	}

	out := dto.NewUserOutput(user)

	return &out, nil
}

// SoftDelete tombstones the account. Sessions are revoked first so no active
// refresh chain outlives the user.
func (s *UserService) SoftDelete(ctx context.Context, id string, meta dto.RequestMeta) error {
	user, err := s.creds.GetByID(ctx, id, false)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	now := s.clock.Now()

	if _, err := s.sessions.RevokeAllForUser(ctx, id, now); err != nil {
		return err
	}

	if err := s.creds.SoftDelete(ctx, id, now); err != nil {
		return err
	}

	s.logAction(ctx, id, constant.ActionUserDeleted, map[string]any{"login": user.Login}, meta)

	return nil
}

// Purge hard-deletes a tombstoned user together with its session and audit
// rows in one transaction.
func (s *UserService) Purge(ctx context.Context, id string) error {
	user, err := s.creds.GetByID(ctx, id, true)
	if err != nil {
		return err
	}
	if user == nil {
		return autherror.ErrUserNotFound
	}

	return s.creds.Purge(ctx, id)
}

func (s *UserService) logAction(ctx context.Context, userID, action string, metadata map[string]any, meta dto.RequestMeta) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if meta.ActorID != "" {
		metadata["actor_id"] = meta.ActorID
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    action,
		Metadata:  metadata,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}

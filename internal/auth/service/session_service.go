package service

import (
	"context"
	"time"

	"github.com/bkopanichuk/ems/config"
	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/bkopanichuk/ems/internal/auth/dto"
	autherror "github.com/bkopanichuk/ems/internal/errors"
	"github.com/bkopanichuk/ems/internal/metrics"
	"github.com/bkopanichuk/ems/pkg/constant"
)

// SessionService is the credential and session lifecycle engine. It owns the
// login → lockout → token-issue path and the refresh rotation state machine,
// delegating persistence to the credential and session stores and recording
// every security decision on the audit sink.
type SessionService struct {
	creds    domain.CredentialStore
	sessions domain.SessionStore
	audit    domain.AuditSink
	tokens   TokenGenerator
	hasher   domain.PasswordHasher
	clock    domain.Clock
	ids      domain.IDGenerator
	cfg      *config.Config
}

func NewSessionService(
	creds domain.CredentialStore,
	sessions domain.SessionStore,
	audit domain.AuditSink,
	tokens TokenGenerator,
	hasher domain.PasswordHasher,
	clock domain.Clock,
	ids domain.IDGenerator,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		creds:    creds,
		sessions: sessions,
		audit:    audit,
		tokens:   tokens,
		hasher:   hasher,
		clock:    clock,
		ids:      ids,
		cfg:      cfg,
	}
}

// Authenticate validates a login/password pair and opens a new session. Every
// rejected path still produces an audit record. Unknown and deleted users are
// indistinguishable from a wrong password on the outside.
func (s *SessionService) Authenticate(ctx context.Context, input dto.LoginInput) (*dto.SessionResponse, error) {
	now := s.clock.Now()

	user, err := s.creds.GetByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}

	if user == nil || user.Deleted() {
		userID := constant.UnknownUserID
		reason := constant.ReasonUserNotFound
		if user != nil {
			userID = user.ID
			reason = constant.ReasonUserDeleted
		}
		s.logFailure(ctx, userID, input, map[string]any{"login": input.Login, "reason": reason})
		metrics.LoginFailure.WithLabelValues(reason).Inc()

		return nil, autherror.ErrInvalidCredentials
	}

	// The lockout check is time-bound, not state-bound: an expired window is
	// simply ignored here and cleared on the next successful password check.
	if user.LockedAt(now) {
		s.logFailure(ctx, user.ID, input, map[string]any{"reason": constant.ReasonAccountLocked})
		metrics.LoginFailure.WithLabelValues(constant.ReasonAccountLocked).Inc()

		return nil, autherror.ErrAccountLocked
	}

	if user.IsBlocked {
		s.logFailure(ctx, user.ID, input, map[string]any{"reason": constant.ReasonUserBlocked})
		metrics.LoginFailure.WithLabelValues(constant.ReasonUserBlocked).Inc()

		return nil, autherror.ErrAccountBlocked
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		lockUntil := now.Add(time.Duration(s.cfg.LockoutMinutes) * time.Minute)

		attempts, locked, err := s.creds.RecordLoginFailure(ctx, user.ID, s.cfg.LoginMaxAttempts, lockUntil)
		if err != nil {
			return nil, err
		}

		s.logFailure(ctx, user.ID, input, map[string]any{
			"reason":          constant.ReasonInvalidPassword,
			"failed_attempts": attempts,
			"locked":          locked,
		})
		metrics.LoginFailure.WithLabelValues(constant.ReasonInvalidPassword).Inc()

		if locked {
			metrics.Lockouts.Inc()

			return nil, autherror.ErrAccountLocked
		}

		return nil, autherror.ErrInvalidCredentials
	}

	if err := s.creds.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, err
	}

	// Mirror the store update so the returned view is current.
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LoginCount++

	pair, err := s.issue(ctx, user, now, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    user.ID,
		Action:    constant.ActionLoginSuccess,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	metrics.LoginSuccess.Inc()

	return &dto.SessionResponse{TokenPair: *pair, User: dto.NewUserOutput(user)}, nil
}

// Rotate exchanges a refresh token for a new pair. Presenting an
// already-consumed token is treated as evidence of theft: every session for
// the owning user is torn down and the caller gets a forbidden-class error.
func (s *SessionService) Rotate(ctx context.Context, input dto.RefreshInput) (*dto.TokenPair, error) {
	now := s.clock.Now()

	token, user, err := s.sessions.GetByToken(ctx, input.RefreshToken)
	if err != nil {
		return nil, err
	}

	if token == nil {
		return nil, autherror.ErrTokenInvalid
	}

	if token.Revoked() {
		return nil, s.teardown(ctx, token.UserID, input, now)
	}

	if token.ExpiredAt(now) {
		if _, err := s.sessions.Revoke(ctx, token.ID, now); err != nil {
			return nil, err
		}

		return nil, autherror.ErrTokenExpired
	}

	// Blocking already prevents new sessions; the presented row is left
	// untouched.
	if user.IsBlocked {
		return nil, autherror.ErrAccountBlocked
	}

	// The guard on revoked_at makes revoke-then-insert atomic per token: of
	// two concurrent rotations only one wins the transition, the loser lands
	// on the reuse path.
	won, err := s.sessions.Revoke(ctx, token.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, s.teardown(ctx, token.UserID, input, now)
	}

	pair, err := s.issue(ctx, user, now, input.IPAddress, input.UserAgent)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    token.UserID,
		Action:    constant.ActionTokenRefresh,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	metrics.TokenRotations.Inc()

	return pair, nil
}

// Logout revokes the presented refresh token, if any. Revoking an unknown or
// already-revoked token is a no-op, so the call is idempotent. The logout is
// audited either way.
func (s *SessionService) Logout(ctx context.Context, userID string, input dto.LogoutInput) error {
	if input.RefreshToken != "" {
		if err := s.sessions.RevokeByToken(ctx, userID, input.RefreshToken, s.clock.Now()); err != nil {
			return err
		}
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionLogout,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return nil
}

// LogoutAll revokes every active session the user has.
func (s *SessionService) LogoutAll(ctx context.Context, userID string, input dto.LogoutInput) error {
	if _, err := s.sessions.RevokeAllForUser(ctx, userID, s.clock.Now()); err != nil {
		return err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionLogout,
		Metadata:  map[string]any{"type": "logout_all_devices"},
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return nil
}

// ListActiveSessions returns unrevoked, unexpired sessions newest-first. The
// engine cannot tell which one belongs to the calling request; the handler
// marks it by comparing token strings.
func (s *SessionService) ListActiveSessions(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	return s.sessions.ListActive(ctx, userID, s.clock.Now())
}

// RevokeSession revokes one session by id, verifying it belongs to the user
// and is still active.
func (s *SessionService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	won, err := s.sessions.RevokeForUser(ctx, userID, sessionID, s.clock.Now())
	if err != nil {
		return err
	}
	if !won {
		return autherror.ErrSessionNotFound
	}

	return nil
}

// issue generates a token pair and persists the refresh side.
func (s *SessionService) issue(ctx context.Context, user *domain.User, now time.Time, ip, userAgent string) (*dto.TokenPair, error) {
	accessToken, refreshToken, err := s.tokens.Generate(user.ID, user.Login, user.Role)
	if err != nil {
		return nil, err
	}

	rt := &domain.RefreshToken{
		ID:        s.ids.NewID(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(s.tokens.RefreshExpiry()),
		CreatedAt: now,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := s.sessions.Insert(ctx, rt); err != nil {
		return nil, err
	}

	return &dto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessExpiry().Seconds()),
	}, nil
}

// teardown is the reuse-detection transition: revoke everything the user has,
// audit it, and surface the forbidden-class error.
func (s *SessionService) teardown(ctx context.Context, userID string, input dto.RefreshInput, now time.Time) error {
	if _, err := s.sessions.RevokeAllForUser(ctx, userID, now); err != nil {
		return err
	}

	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionTokenRevoked,
		Metadata:  map[string]any{"reason": constant.ReasonReuseAttempt},
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	metrics.ReuseDetected.Inc()

	return autherror.ErrTokenReuseDetected
}

func (s *SessionService) logFailure(ctx context.Context, userID string, input dto.LoginInput, metadata map[string]any) {
	s.audit.Log(ctx, domain.AuditEvent{
		UserID:    userID,
		Action:    constant.ActionLoginFailed,
		Metadata:  metadata,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
}

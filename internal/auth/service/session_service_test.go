package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bkopanichuk/ems/config"
	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/bkopanichuk/ems/internal/auth/dto"
	"github.com/bkopanichuk/ems/internal/auth/service"
	autherror "github.com/bkopanichuk/ems/internal/errors"
	"github.com/bkopanichuk/ems/internal/mocks"
	"github.com/bkopanichuk/ems/pkg/constant"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type engineFixture struct {
	creds    *mocks.MockCredentialStore
	sessions *mocks.MockSessionStore
	audit    *mocks.MockAuditSink
	tokens   *mocks.MockTokenGenerator
	hasher   *mocks.MockPasswordHasher
	ids      *mocks.MockIDGenerator
	svc      *service.SessionService
}

func newEngineFixture(t *testing.T, ctrl *gomock.Controller) *engineFixture {
	t.Helper()

	f := &engineFixture{
		creds:    mocks.NewMockCredentialStore(ctrl),
		sessions: mocks.NewMockSessionStore(ctrl),
		audit:    mocks.NewMockAuditSink(ctrl),
		tokens:   mocks.NewMockTokenGenerator(ctrl),
		hasher:   mocks.NewMockPasswordHasher(ctrl),
		ids:      mocks.NewMockIDGenerator(ctrl),
	}

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()

	cfg := &config.Config{
		LoginMaxAttempts:  5,
		LockoutMinutes:    15,
		AccessExpiryMin:   15,
		RefreshExpiryDays: 7,
	}

	f.svc = service.NewSessionService(f.creds, f.sessions, f.audit, f.tokens, f.hasher, clock, f.ids, cfg)

	return f
}

func activeUser() *domain.User {
	return &domain.User{
		ID:           "user-1",
		Login:        "operator",
		PasswordHash: "hashed",
		Role:         constant.RoleUser,
	}
}

func TestSessionService_Authenticate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	input := dto.LoginInput{Login: "operator", Password: "correct-horse", IPAddress: "10.0.0.1", UserAgent: "cli"}

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.hasher.EXPECT().Verify("hashed", "correct-horse").Return(true)
	f.creds.EXPECT().RecordLoginSuccess(gomock.Any(), "user-1", testNow).Return(nil)
	f.tokens.EXPECT().Generate("user-1", "operator", constant.RoleUser).Return("access-jwt", "refresh-opaque", nil)
	f.tokens.EXPECT().RefreshExpiry().Return(7 * 24 * time.Hour)
	f.tokens.EXPECT().AccessExpiry().Return(15 * time.Minute)
	f.ids.EXPECT().NewID().Return("session-1")
	f.sessions.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, rt *domain.RefreshToken) error {
			assert.Equal(t, "session-1", rt.ID)
			assert.Equal(t, "user-1", rt.UserID)
			assert.Equal(t, "refresh-opaque", rt.Token)
			assert.Equal(t, testNow.Add(7*24*time.Hour), rt.ExpiresAt)
			assert.Equal(t, "10.0.0.1", rt.IPAddress)
			return nil
		})
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ActionLoginSuccess, e.Action)
			assert.Equal(t, "user-1", e.UserID)
		})

	session, err := f.svc.Authenticate(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "access-jwt", session.AccessToken)
	assert.Equal(t, "refresh-opaque", session.RefreshToken)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, 900, session.ExpiresIn)
	assert.Equal(t, "user-1", session.User.ID)
	assert.Equal(t, 1, session.User.LoginCount)
	require.NotNil(t, session.User.LastLoginAt)
	assert.Equal(t, testNow, *session.User.LastLoginAt)
}

func TestSessionService_Authenticate_UnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	f.creds.EXPECT().GetByLogin(gomock.Any(), "ghost").Return(nil, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ActionLoginFailed, e.Action)
			assert.Equal(t, constant.UnknownUserID, e.UserID)
			assert.Equal(t, constant.ReasonUserNotFound, e.Metadata["reason"])
		})

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "ghost", Password: "whatever"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestSessionService_Authenticate_DeletedUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	deletedAt := testNow.Add(-24 * time.Hour)
	user := activeUser()
	user.DeletedAt = &deletedAt

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			// A deleted user is audited under its real id but rejected with
			// the same generic error as an unknown one.
			assert.Equal(t, "user-1", e.UserID)
			assert.Equal(t, constant.ReasonUserDeleted, e.Metadata["reason"])
		})

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "correct-horse"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestSessionService_Authenticate_LockedAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	lockedUntil := testNow.Add(10 * time.Minute)
	user := activeUser()
	user.FailedLoginAttempts = 5
	user.LockedUntil = &lockedUntil

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ReasonAccountLocked, e.Metadata["reason"])
		})

	// Even the correct password is rejected while the window is open; the
	// password check never runs.
	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "correct-horse"})

	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
}

func TestSessionService_Authenticate_BlockedUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	user := activeUser()
	user.IsBlocked = true

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ReasonUserBlocked, e.Metadata["reason"])
		})

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "correct-horse"})

	assert.ErrorIs(t, err, autherror.ErrAccountBlocked)
}

func TestSessionService_Authenticate_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	lockUntil := testNow.Add(15 * time.Minute)

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.hasher.EXPECT().Verify("hashed", "wrong").Return(false)
	f.creds.EXPECT().RecordLoginFailure(gomock.Any(), "user-1", 5, lockUntil).Return(1, false, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ReasonInvalidPassword, e.Metadata["reason"])
			assert.Equal(t, 1, e.Metadata["failed_attempts"])
			assert.Equal(t, false, e.Metadata["locked"])
		})

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "wrong"})

	assert.ErrorIs(t, err, autherror.ErrInvalidCredentials)
}

func TestSessionService_Authenticate_FifthFailureLocks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	user := activeUser()
	user.FailedLoginAttempts = 4

	lockUntil := testNow.Add(15 * time.Minute)

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.hasher.EXPECT().Verify("hashed", "wrong").Return(false)
	f.creds.EXPECT().RecordLoginFailure(gomock.Any(), "user-1", 5, lockUntil).Return(5, true, nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ReasonInvalidPassword, e.Metadata["reason"])
			assert.Equal(t, 5, e.Metadata["failed_attempts"])
			assert.Equal(t, true, e.Metadata["locked"])
		})

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "wrong"})

	assert.ErrorIs(t, err, autherror.ErrAccountLocked)
}

func TestSessionService_Authenticate_ExpiredLockSelfHeals(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	expiredLock := testNow.Add(-time.Minute)
	user := activeUser()
	user.FailedLoginAttempts = 5
	user.LockedUntil = &expiredLock

	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(user, nil)
	f.hasher.EXPECT().Verify("hashed", "correct-horse").Return(true)
	f.creds.EXPECT().RecordLoginSuccess(gomock.Any(), "user-1", testNow).Return(nil)
	f.tokens.EXPECT().Generate("user-1", "operator", constant.RoleUser).Return("access", "refresh", nil)
	f.tokens.EXPECT().RefreshExpiry().Return(7 * 24 * time.Hour)
	f.tokens.EXPECT().AccessExpiry().Return(15 * time.Minute)
	f.ids.EXPECT().NewID().Return("session-2")
	f.sessions.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any())

	session, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "correct-horse"})

	require.NoError(t, err)
	assert.Equal(t, 1, session.User.LoginCount)
	require.NotNil(t, session.User.LastLoginAt)
}

func TestSessionService_Authenticate_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	storeErr := errors.New("connection refused")
	f.creds.EXPECT().GetByLogin(gomock.Any(), "operator").Return(nil, storeErr)

	_, err := f.svc.Authenticate(context.Background(), dto.LoginInput{Login: "operator", Password: "x"})

	// Infrastructure failures propagate untranslated and fail closed.
	assert.ErrorIs(t, err, storeErr)
}

func TestSessionService_Rotate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	token := &domain.RefreshToken{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "old-refresh",
		ExpiresAt: testNow.Add(24 * time.Hour),
	}

	f.sessions.EXPECT().GetByToken(gomock.Any(), "old-refresh").Return(token, user, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "session-1", testNow).Return(true, nil)
	f.tokens.EXPECT().Generate("user-1", "operator", constant.RoleUser).Return("new-access", "new-refresh", nil)
	f.tokens.EXPECT().RefreshExpiry().Return(7 * 24 * time.Hour)
	f.tokens.EXPECT().AccessExpiry().Return(15 * time.Minute)
	f.ids.EXPECT().NewID().Return("session-2")
	f.sessions.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ActionTokenRefresh, e.Action)
		})

	pair, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "old-refresh"})

	require.NoError(t, err)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.NotEqual(t, "old-refresh", pair.RefreshToken)
}

func TestSessionService_Rotate_UnknownToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	// No audit expectation: an unknown token carries no user context.
	f.sessions.EXPECT().GetByToken(gomock.Any(), "bogus").Return(nil, nil, nil)

	_, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "bogus"})

	assert.ErrorIs(t, err, autherror.ErrTokenInvalid)
}

func TestSessionService_Rotate_ReuseRevokesEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	revokedAt := testNow.Add(-time.Hour)
	token := &domain.RefreshToken{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "consumed",
		ExpiresAt: testNow.Add(24 * time.Hour),
		RevokedAt: &revokedAt,
	}

	f.sessions.EXPECT().GetByToken(gomock.Any(), "consumed").Return(token, user, nil)
	f.sessions.EXPECT().RevokeAllForUser(gomock.Any(), "user-1", testNow).Return(int64(3), nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ActionTokenRevoked, e.Action)
			assert.Equal(t, constant.ReasonReuseAttempt, e.Metadata["reason"])
		})

	_, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "consumed"})

	assert.ErrorIs(t, err, autherror.ErrTokenReuseDetected)
}

func TestSessionService_Rotate_LostRaceTakesReusePath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	token := &domain.RefreshToken{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "contested",
		ExpiresAt: testNow.Add(24 * time.Hour),
	}

	// The row looked active on read but another rotation consumed it first.
	f.sessions.EXPECT().GetByToken(gomock.Any(), "contested").Return(token, user, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "session-1", testNow).Return(false, nil)
	f.sessions.EXPECT().RevokeAllForUser(gomock.Any(), "user-1", testNow).Return(int64(1), nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any())

	_, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "contested"})

	assert.ErrorIs(t, err, autherror.ErrTokenReuseDetected)
}

func TestSessionService_Rotate_ExpiredTokenRevoked(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)
	user := activeUser()

	token := &domain.RefreshToken{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "stale",
		ExpiresAt: testNow.Add(-24 * time.Hour),
	}

	f.sessions.EXPECT().GetByToken(gomock.Any(), "stale").Return(token, user, nil)
	f.sessions.EXPECT().Revoke(gomock.Any(), "session-1", testNow).Return(true, nil)

	_, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "stale"})

	assert.ErrorIs(t, err, autherror.ErrTokenExpired)
}

func TestSessionService_Rotate_BlockedUserLeavesTokenUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	user := activeUser()
	user.IsBlocked = true

	token := &domain.RefreshToken{
		ID:        "session-1",
		UserID:    "user-1",
		Token:     "valid",
		ExpiresAt: testNow.Add(24 * time.Hour),
	}

	// No Revoke expectation: the presented token must be left as-is.
	f.sessions.EXPECT().GetByToken(gomock.Any(), "valid").Return(token, user, nil)

	_, err := f.svc.Rotate(context.Background(), dto.RefreshInput{RefreshToken: "valid"})

	assert.ErrorIs(t, err, autherror.ErrAccountBlocked)
}

func TestSessionService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	t.Run("with token", func(t *testing.T) {
		f.sessions.EXPECT().RevokeByToken(gomock.Any(), "user-1", "refresh", testNow).Return(nil)
		f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, e domain.AuditEvent) {
				assert.Equal(t, constant.ActionLogout, e.Action)
			})

		err := f.svc.Logout(context.Background(), "user-1", dto.LogoutInput{RefreshToken: "refresh"})
		assert.NoError(t, err)
	})

	t.Run("without token still audits", func(t *testing.T) {
		f.audit.EXPECT().Log(gomock.Any(), gomock.Any())

		err := f.svc.Logout(context.Background(), "user-1", dto.LogoutInput{})
		assert.NoError(t, err)
	})
}

func TestSessionService_LogoutAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	f.sessions.EXPECT().RevokeAllForUser(gomock.Any(), "user-1", testNow).Return(int64(2), nil)
	f.audit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, e domain.AuditEvent) {
			assert.Equal(t, constant.ActionLogout, e.Action)
			assert.Equal(t, "logout_all_devices", e.Metadata["type"])
		})

	err := f.svc.LogoutAll(context.Background(), "user-1", dto.LogoutInput{})

	assert.NoError(t, err)
}

func TestSessionService_ListActiveSessions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	expected := []domain.RefreshToken{{ID: "session-2"}, {ID: "session-1"}}
	f.sessions.EXPECT().ListActive(gomock.Any(), "user-1", testNow).Return(expected, nil)

	sessions, err := f.svc.ListActiveSessions(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, expected, sessions)
}

func TestSessionService_RevokeSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newEngineFixture(t, ctrl)

	t.Run("success", func(t *testing.T) {
		f.sessions.EXPECT().RevokeForUser(gomock.Any(), "user-1", "session-1", testNow).Return(true, nil)

		assert.NoError(t, f.svc.RevokeSession(context.Background(), "user-1", "session-1"))
	})

	t.Run("missing or already revoked", func(t *testing.T) {
		f.sessions.EXPECT().RevokeForUser(gomock.Any(), "user-1", "session-9", testNow).Return(false, nil)

		err := f.svc.RevokeSession(context.Background(), "user-1", "session-9")
		assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
	})

	t.Run("not owned by user", func(t *testing.T) {
		f.sessions.EXPECT().RevokeForUser(gomock.Any(), "user-2", "session-1", testNow).Return(false, nil)

		err := f.svc.RevokeSession(context.Background(), "user-2", "session-1")
		assert.ErrorIs(t, err, autherror.ErrSessionNotFound)
	})
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db DB
}

func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetByToken fetches a session row by exact token string joined with its
// owning user, in one round trip. Unknown tokens return (nil, nil, nil).
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshToken, *domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT rt.id, rt.user_id, rt.token, rt.expires_at, rt.created_at,
		       rt.revoked_at, rt.ip_address, rt.user_agent,
		       %s
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token = $1
	`, prefixColumns("u", userColumns))

	var rt domain.RefreshToken
	var user domain.User
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt,
		&rt.RevokedAt, &rt.IPAddress, &rt.UserAgent,
		&user.ID, &user.Login, &user.PasswordHash, &user.DisplayName, &user.Role,
		&user.IsBlocked, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.LastLoginAt, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}

		return nil, nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, &user, nil
}

func (r *SessionRepository) Insert(ctx context.Context, rt *domain.RefreshToken) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rt.ID, rt.UserID, rt.Token, rt.ExpiresAt, rt.CreatedAt, rt.IPAddress, rt.UserAgent)

	return err
}

// Revoke flips revoked_at only when it is still NULL. The returned boolean
// reports whether this call won the transition; a concurrent rotation that
// lost observes false and takes the reuse path.
func (r *SessionRepository) Revoke(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL
	`, id, now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $3
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, id, userID, now)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) RevokeByToken(ctx context.Context, userID, token string, now time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $3
		WHERE token = $1 AND user_id = $2 AND revoked_at IS NULL
	`, token, userID, now)

	return err
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func (r *SessionRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]domain.RefreshToken, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, token, expires_at, created_at, revoked_at, ip_address, user_agent
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	var tokens []domain.RefreshToken
	for rows.Next() {
		var rt domain.RefreshToken
		err := rows.Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.ExpiresAt, &rt.CreatedAt,
			&rt.RevokedAt, &rt.IPAddress, &rt.UserAgent)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, rt)
	}

	return tokens, rows.Err()
}

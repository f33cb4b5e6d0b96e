package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, login, password_hash, display_name, role, is_blocked,
		failed_login_attempts, locked_until, last_login_at, login_count,
		created_at, updated_at, deleted_at`

type CredentialRepository struct {
	db DB
}

func NewCredentialRepository(db DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetByLogin returns the row for a login regardless of its tombstone state, so
// the engine can distinguish deleted from absent and the uniqueness check
// spans retired logins.
func (r *CredentialRepository) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE login = $1 LIMIT 1`, userColumns)
	row := r.db.QueryRow(ctx, query, login)

	return scanUser(row)
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	row := r.db.QueryRow(ctx, query, id)

	return scanUser(row)
}

func (r *CredentialRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, login, password_hash, display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Login, user.PasswordHash, user.DisplayName, user.Role, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *CredentialRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM users WHERE deleted_at IS NULL ORDER BY created_at`, userColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUserFromRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (r *CredentialRepository) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET display_name = $2, role = $3, is_blocked = $4, updated_at = $5
		WHERE id = $1
	`, user.ID, user.DisplayName, user.Role, user.IsBlocked, user.UpdatedAt)

	return err
}

func (r *CredentialRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, passwordHash)

	return err
}

// RecordLoginFailure increments the counter and sets the lockout deadline in
// one statement, so two racing failures each see their own post-increment
// value and exactly one of them crosses the threshold.
func (r *CredentialRepository) RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (int, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var attempts int
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE locked_until
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING failed_login_attempts
	`, id, maxAttempts, lockUntil).Scan(&attempts)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record login failure: %w", err)
	}

	return attempts, attempts >= maxAttempts, nil
}

func (r *CredentialRepository) RecordLoginSuccess(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2,
		    login_count = login_count + 1,
		    updated_at = $2
		WHERE id = $1
	`, id, now)

	return err
}

func (r *CredentialRepository) SoftDelete(ctx context.Context, id string, now time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		UPDATE users SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL
	`, id, now)

	return err
}

// Purge removes the user and everything that references it in one
// transaction, so a partial cascade can never leave session rows pointing at
// a missing user.
func (r *CredentialRepository) Purge(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM audit_logs WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to purge audit logs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to purge user: %w", err)
	}

	return tx.Commit(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	user, err := scanUserFromRows(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return user, nil
}

func scanUserFromRows(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID, &user.Login, &user.PasswordHash, &user.DisplayName, &user.Role,
		&user.IsBlocked, &user.FailedLoginAttempts, &user.LockedUntil,
		&user.LastLoginAt, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt,
		&user.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

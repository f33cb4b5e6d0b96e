package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bkopanichuk/ems/internal/auth/domain"
)

type AuditRepository struct {
	db DB
}

func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.UserID, event.Action, event.Metadata, event.IPAddress, event.UserAgent, event.CreatedAt)

	return err
}

// Query returns matching entries newest-first with the total match count for
// pagination. The user projection is joined on the recorded user id; entries
// for the "unknown" user simply carry no projection.
func (r *AuditRepository) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args := buildAuditWhere(filter)

	var total int
	countQuery := `SELECT count(*) FROM audit_logs a` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT a.id, a.user_id, a.action, a.metadata, a.ip_address, a.user_agent, a.created_at,
		       u.id, u.login, u.display_name, u.role
		FROM audit_logs a
		LEFT JOIN users u ON u.id::text = a.user_id
		%s
		ORDER BY a.created_at DESC
		OFFSET $%d LIMIT $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Offset, filter.Limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var userID, login, displayName, role *string

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Action, &entry.Metadata,
			&entry.IPAddress, &entry.UserAgent, &entry.CreatedAt,
			&userID, &login, &displayName, &role,
		)
		if err != nil {
			return nil, 0, err
		}

		if userID != nil {
			entry.User = &domain.AuditUser{ID: *userID, Login: *login, DisplayName: *displayName, Role: *role}
		}

		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}

func (r *AuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func buildAuditWhere(filter domain.AuditFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.UserID != "" {
		add("a.user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		add("a.action = $%d", filter.Action)
	}
	if filter.StartDate != nil {
		add("a.created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("a.created_at <= $%d", *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}

	where := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	return where, args
}

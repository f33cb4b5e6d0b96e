package service

import (
	"context"
	"log"

	"github.com/bkopanichuk/ems/internal/auth/domain"
	"github.com/bkopanichuk/ems/internal/auth/dto"
)

const defaultAuditPageSize = 50

// AuditService records and queries the security event trail. Writes are
// best-effort: a failed insert is logged locally and never reaches the caller,
// so audit trouble cannot turn a valid login into a failure.
type AuditService struct {
	store domain.AuditStore
	clock domain.Clock
	ids   domain.IDGenerator
}

func NewAuditService(store domain.AuditStore, clock domain.Clock, ids domain.IDGenerator) *AuditService {
	return &AuditService{store: store, clock: clock, ids: ids}
}

func (a *AuditService) Log(ctx context.Context, event domain.AuditEvent) {
	event.ID = a.ids.NewID()
	event.CreatedAt = a.clock.Now()

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := a.store.Insert(ctx, &event); err != nil {
		log.Printf("warn: failed to write audit log (action=%s user=%s): %v", event.Action, event.UserID, err)
	}
}

func (a *AuditService) Query(ctx context.Context, input dto.AuditQueryInput) (*dto.AuditQueryOutput, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}

	perPage := input.PerPage
	if perPage < 1 {
		perPage = defaultAuditPageSize
	}

	filter := domain.AuditFilter{
		UserID:    input.UserID,
		Action:    input.Action,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Offset:    (page - 1) * perPage,
		Limit:     perPage,
	}

	entries, total, err := a.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := &dto.AuditQueryOutput{
		Data: make([]dto.AuditEntryOutput, 0, len(entries)),
		Meta: dto.AuditPageMeta{
			Total:    total,
			Page:     page,
			LastPage: (total + perPage - 1) / perPage,
		},
	}
	for _, e := range entries {
		out.Data = append(out.Data, dto.NewAuditEntryOutput(e))
	}

	return out, nil
}

// Prune deletes events older than the retention window and returns the number
// of rows removed.
func (a *AuditService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := a.clock.Now().AddDate(0, 0, -retentionDays)

	return a.store.DeleteBefore(ctx, cutoff)
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zonecal/zonecal/internal/core/domain"
	"github.com/zonecal/zonecal/internal/core/ports"
)

type AuditService struct {
	audit ports.AuditLogRepository
}

func NewAuditService(audit ports.AuditLogRepository) *AuditService {
	return &AuditService{audit: audit}
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context) ([]domain.LogEntry, error) {
	return s.audit.List(ctx)
}

// appendAudit records one audit entry. Audit writes are best effort: the
// entity mutation already committed, so a failed append is logged and
// swallowed rather than surfaced to the caller.
func appendAudit(ctx context.Context, repo ports.AuditLogRepository, logger *slog.Logger, eventType domain.EventType, entityID, description string) {
	entry := domain.LogEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		EventType:   eventType,
		EntityID:    entityID,
		Description: description,
	}
	if err := repo.Append(ctx, entry); err != nil {
		logger.Warn("append audit entry", "event_type", string(eventType), "err", err)
	}
}

package ports

import (
	"context"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type AuditLogRepository interface {
	Append(ctx context.Context, entry domain.LogEntry) error
	// List returns entries newest first.
	List(ctx context.Context) ([]domain.LogEntry, error)
	// Prune drops the oldest entries until at most keep remain, returning
	// how many were removed.
	Prune(ctx context.Context, keep int) (int, error)
}

package memory

import (
	"context"
	"slices"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type AuditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// Append records the entry, discarding the oldest entries when the store's
// cap is exceeded.
func (r *AuditRepository) Append(ctx context.Context, entry domain.LogEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, entry)
	if limit := r.store.auditCap; limit > 0 && len(r.store.entries) > limit {
		r.store.entries = slices.Delete(r.store.entries, 0, len(r.store.entries)-limit)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context) ([]domain.LogEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entries := make([]domain.LogEntry, len(r.store.entries))
	for i, entry := range r.store.entries {
		entries[len(entries)-1-i] = entry
	}
	return entries, nil
}

func (r *AuditRepository) Prune(ctx context.Context, keep int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	removed := len(r.store.entries) - keep
	if removed <= 0 {
		return 0, nil
	}
	r.store.entries = slices.Delete(r.store.entries, 0, removed)
	return removed, nil
}

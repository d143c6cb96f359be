package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/zonecal/zonecal/internal/adapters/sqlite/gormsqlite"
	"github.com/zonecal/zonecal/internal/core/domain"
)

type logEntryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
	EventType   string    `gorm:"column:event_type;not null"`
	EntityID    string    `gorm:"column:entity_id;not null"`
	Description string    `gorm:"column:description;not null"`
}

func (logEntryModel) TableName() string {
	return "audit_entries"
}

type AuditRepository struct {
	db *gormsqlite.DB
}

func NewAuditRepository(db *gormsqlite.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entry domain.LogEntry) error {
	model := logEntryModel{
		ID:          entry.ID,
		Timestamp:   entry.Timestamp,
		EventType:   string(entry.EventType),
		EntityID:    entry.EntityID,
		Description: entry.Description,
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) List(ctx context.Context) ([]domain.LogEntry, error) {
	var models []logEntryModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("timestamp DESC, id DESC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	entries := make([]domain.LogEntry, 0, len(models))
	for _, model := range models {
		entries = append(entries, domain.LogEntry{
			ID:          model.ID,
			Timestamp:   model.Timestamp.UTC(),
			EventType:   domain.EventType(model.EventType),
			EntityID:    model.EntityID,
			Description: model.Description,
		})
	}
	return entries, nil
}

// Prune deletes the oldest entries so at most keep remain.
func (r *AuditRepository) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	removed := 0
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var total int64
		if err := tx.Model(&logEntryModel{}).Count(&total).Error; err != nil {
			return err
		}
		over := int(total) - keep
		if over <= 0 {
			return nil
		}

		res := tx.Exec(
			"DELETE FROM audit_entries WHERE id IN (SELECT id FROM audit_entries ORDER BY timestamp ASC, id ASC LIMIT ?)",
			over,
		)
		if res.Error != nil {
			return res.Error
		}
		removed = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	return removed, nil
}

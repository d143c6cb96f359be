package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zonecal/zonecal/internal/adapters/sqlite/gormsqlite"
	"github.com/zonecal/zonecal/internal/core/domain"
)

type eventModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	StartUTC      time.Time `gorm:"column:start_utc;not null"`
	EndUTC        time.Time `gorm:"column:end_utc;not null"`
	EventTimezone string    `gorm:"column:event_timezone;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

func (eventModel) TableName() string {
	return "events"
}

type eventProfileModel struct {
	EventID   string `gorm:"column:event_id;primaryKey"`
	ProfileID string `gorm:"column:profile_id;primaryKey"`
}

func (eventProfileModel) TableName() string {
	return "event_profiles"
}

type EventRepository struct {
	db *gormsqlite.DB
}

func NewEventRepository(db *gormsqlite.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, event domain.Event) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		model := eventToModel(event)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		memberships := membershipModels(event)
		if len(memberships) == 0 {
			return nil
		}
		return tx.Create(&memberships).Error
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (domain.Event, error) {
	var model eventModel
	var memberIDs []string
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			return err
		}
		return tx.Model(&eventProfileModel{}).Where("event_id = ?", id).
			Order("profile_id ASC").Pluck("profile_id", &memberIDs).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Event{}, domain.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return eventToDomain(model, memberIDs), nil
}

// Update rewrites the membership rows wholesale; diffing them against the
// previous set is not worth it at this table size.
func (r *EventRepository) Update(ctx context.Context, event domain.Event) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&eventModel{}).Where("id = ?", event.ID).Updates(map[string]any{
			"start_utc":      event.StartUTC,
			"end_utc":        event.EndUTC,
			"event_timezone": event.EventTimezone,
			"updated_at":     event.UpdatedAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		if err := tx.Where("event_id = ?", event.ID).Delete(&eventProfileModel{}).Error; err != nil {
			return err
		}
		memberships := membershipModels(event)
		if len(memberships) == 0 {
			return nil
		}
		return tx.Create(&memberships).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("event_id = ?", id).Delete(&eventProfileModel{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&eventModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (r *EventRepository) ListForProfile(ctx context.Context, profileID string) ([]domain.Event, error) {
	var models []eventModel
	memberships := make(map[string][]string)
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Model(&eventModel{}).
			Joins("JOIN event_profiles ON event_profiles.event_id = events.id").
			Where("event_profiles.profile_id = ?", profileID).
			Order("events.start_utc ASC, events.id ASC").
			Find(&models).Error; err != nil {
			return err
		}
		if len(models) == 0 {
			return nil
		}

		ids := make([]string, 0, len(models))
		for _, model := range models {
			ids = append(ids, model.ID)
		}
		var rows []eventProfileModel
		if err := tx.Where("event_id IN ?", ids).Order("profile_id ASC").Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			memberships[row.EventID] = append(memberships[row.EventID], row.ProfileID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events for profile: %w", err)
	}

	events := make([]domain.Event, 0, len(models))
	for _, model := range models {
		events = append(events, eventToDomain(model, memberships[model.ID]))
	}
	return events, nil
}

func eventToModel(event domain.Event) eventModel {
	return eventModel{
		ID:            event.ID,
		StartUTC:      event.StartUTC,
		EndUTC:        event.EndUTC,
		EventTimezone: event.EventTimezone,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func eventToDomain(model eventModel, profileIDs []string) domain.Event {
	return domain.Event{
		ID:            model.ID,
		ProfileIDs:    profileIDs,
		StartUTC:      model.StartUTC.UTC(),
		EndUTC:        model.EndUTC.UTC(),
		EventTimezone: model.EventTimezone,
		CreatedAt:     model.CreatedAt.UTC(),
		UpdatedAt:     model.UpdatedAt.UTC(),
	}
}

func membershipModels(event domain.Event) []eventProfileModel {
	rows := make([]eventProfileModel, 0, len(event.ProfileIDs))
	for _, profileID := range event.ProfileIDs {
		rows = append(rows, eventProfileModel{EventID: event.ID, ProfileID: profileID})
	}
	return rows
}

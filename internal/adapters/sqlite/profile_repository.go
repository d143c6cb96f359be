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

type profileModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	UserTimezone string    `gorm:"column:user_timezone;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"`
}

func (profileModel) TableName() string {
	return "profiles"
}

type ProfileRepository struct {
	db *gormsqlite.DB
}

func NewProfileRepository(db *gormsqlite.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Insert(ctx context.Context, profile domain.Profile) error {
	model := profileToModel(profile)
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	var model profileModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profileToDomain(model), nil
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []profileModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id IN ?", ids).Order("id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("get profiles by ids: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(models))
	for _, model := range models {
		profiles = append(profiles, profileToDomain(model))
	}
	return profiles, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	var models []profileModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Order("created_at ASC, id ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(models))
	for _, model := range models {
		profiles = append(profiles, profileToDomain(model))
	}
	return profiles, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile domain.Profile) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&profileModel{}).Where("id = ?", profile.ID).Updates(map[string]any{
			"name":          profile.Name,
			"user_timezone": profile.UserTimezone,
			"updated_at":    profile.UpdatedAt,
		})
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
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Delete runs the whole cascade in one write transaction: membership rows
// for the profile go first, then events left without any members, then the
// profile row itself.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (domain.CascadeResult, error) {
	var result domain.CascadeResult
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var exists int64
		if err := tx.Model(&profileModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}

		var memberEventIDs []string
		if err := tx.Model(&eventProfileModel{}).Where("profile_id = ?", id).
			Order("event_id ASC").Pluck("event_id", &memberEventIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("profile_id = ?", id).Delete(&eventProfileModel{}).Error; err != nil {
			return err
		}

		if len(memberEventIDs) > 0 {
			var survivors []string
			if err := tx.Model(&eventProfileModel{}).Where("event_id IN ?", memberEventIDs).
				Distinct().Pluck("event_id", &survivors).Error; err != nil {
				return err
			}
			orphaned := subtractIDs(memberEventIDs, survivors)
			if len(orphaned) > 0 {
				if err := tx.Where("id IN ?", orphaned).Delete(&eventModel{}).Error; err != nil {
					return err
				}
			}
			result.EventsUpdated = len(memberEventIDs) - len(orphaned)
			result.EventsDeleted = len(orphaned)
		}

		return tx.Where("id = ?", id).Delete(&profileModel{}).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.CascadeResult{}, domain.ErrNotFound
		}
		return domain.CascadeResult{}, fmt.Errorf("delete profile: %w", err)
	}
	return result, nil
}

func profileToModel(profile domain.Profile) profileModel {
	return profileModel{
		ID:           profile.ID,
		Name:         profile.Name,
		UserTimezone: profile.UserTimezone,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	}
}

func profileToDomain(model profileModel) domain.Profile {
	return domain.Profile{
		ID:           model.ID,
		Name:         model.Name,
		UserTimezone: model.UserTimezone,
		CreatedAt:    model.CreatedAt.UTC(),
		UpdatedAt:    model.UpdatedAt.UTC(),
	}
}

func subtractIDs(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	var out []string
	for _, id := range all {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

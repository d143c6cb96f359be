package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zonecal/zonecal/internal/core/domain"
	"github.com/zonecal/zonecal/internal/core/ports"
)

type ProfileService struct {
	profiles        ports.ProfileRepository
	audit           ports.AuditLogRepository
	logger          *slog.Logger
	defaultTimezone string
}

func NewProfileService(profiles ports.ProfileRepository, audit ports.AuditLogRepository, logger *slog.Logger, defaultTimezone string) *ProfileService {
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &ProfileService{profiles: profiles, audit: audit, logger: logger, defaultTimezone: defaultTimezone}
}

func (s *ProfileService) Create(ctx context.Context, name string) (domain.Profile, error) {
	now := time.Now().UTC()
	profile := domain.Profile{
		ID:           uuid.NewString(),
		Name:         name,
		UserTimezone: s.defaultTimezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, err
	}
	if err := s.profiles.Insert(ctx, profile); err != nil {
		return domain.Profile{}, err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeProfileCreated, profile.ID,
		fmt.Sprintf("created profile %q", profile.Name))
	return profile, nil
}

func (s *ProfileService) List(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *ProfileService) Update(ctx context.Context, id, name, timezone string) (domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}

	profile.Name = name
	profile.UserTimezone = timezone
	profile.UpdatedAt = time.Now().UTC()
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, err
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return domain.Profile{}, err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeProfileUpdated, profile.ID,
		fmt.Sprintf("updated profile %q", profile.Name))
	return profile, nil
}

// Delete removes the profile and its event memberships in one repository
// operation, then records a single audit entry summarizing the cascade.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	profile, err := s.profiles.Get(ctx, id)
	if err != nil {
		return err
	}
	result, err := s.profiles.Delete(ctx, id)
	if err != nil {
		return err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeProfileDeleted, profile.ID,
		fmt.Sprintf("deleted profile %q; removed from %d events, deleted %d empty events",
			profile.Name, result.EventsUpdated, result.EventsDeleted))
	return nil
}

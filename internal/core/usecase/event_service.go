package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zonecal/zonecal/internal/core/civiltime"
	"github.com/zonecal/zonecal/internal/core/domain"
	"github.com/zonecal/zonecal/internal/core/ports"
)

// EventInput carries the civil (wall clock) form of an event as submitted by
// a caller. Start and End are "YYYY-MM-DDTHH:MM" with optional seconds,
// interpreted in Timezone.
type EventInput struct {
	ProfileIDs []string
	Start      string
	End        string
	Timezone   string
}

type EventService struct {
	events   ports.EventRepository
	profiles ports.ProfileRepository
	audit    ports.AuditLogRepository
	logger   *slog.Logger
}

func NewEventService(events ports.EventRepository, profiles ports.ProfileRepository, audit ports.AuditLogRepository, logger *slog.Logger) *EventService {
	return &EventService{events: events, profiles: profiles, audit: audit, logger: logger}
}

type resolvedEvent struct {
	profileIDs []string
	start      time.Time
	end        time.Time
	members    []domain.Profile
}

// resolveInput validates the civil input as a whole and converts it to UTC
// instants. All field problems are collected into one ValidationError so the
// caller sees every mistake at once.
func (s *EventService) resolveInput(ctx context.Context, in EventInput) (resolvedEvent, error) {
	var fieldErrs []domain.FieldError

	ids := domain.NormalizeProfileIDs(in.ProfileIDs)
	var members []domain.Profile
	if len(ids) == 0 {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "profileIds", Message: "must reference at least one profile"})
	} else {
		found, err := s.profiles.GetByIDs(ctx, ids)
		if err != nil {
			return resolvedEvent{}, err
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			fieldErrs = append(fieldErrs, domain.FieldError{Field: "profileIds", Message: "unknown profile ids: " + strings.Join(missing, ", ")})
		}
		members = found
	}

	var start, end time.Time
	if in.Timezone == "" {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "timezone", Message: "must not be empty"})
	} else {
		var err error
		start, err = civiltime.FromCivil(in.Start, in.Timezone)
		switch {
		case errors.Is(err, civiltime.ErrInvalidTimezone):
			fieldErrs = append(fieldErrs, domain.FieldError{Field: "timezone", Message: "invalid IANA timezone"})
		case err != nil:
			fieldErrs = append(fieldErrs, domain.FieldError{Field: "start", Message: "invalid civil date/time"})
		}
		if err == nil {
			end, err = civiltime.FromCivil(in.End, in.Timezone)
			if err != nil {
				fieldErrs = append(fieldErrs, domain.FieldError{Field: "end", Message: "invalid civil date/time"})
			}
		}
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "end", Message: "must be after start"})
	}

	if len(fieldErrs) > 0 {
		return resolvedEvent{}, &domain.ValidationError{Errors: fieldErrs}
	}
	return resolvedEvent{profileIDs: ids, start: start, end: end, members: members}, nil
}

func (s *EventService) Create(ctx context.Context, in EventInput) (domain.Event, error) {
	resolved, err := s.resolveInput(ctx, in)
	if err != nil {
		return domain.Event{}, err
	}

	now := time.Now().UTC()
	event := domain.Event{
		ID:            uuid.NewString(),
		ProfileIDs:    resolved.profileIDs,
		StartUTC:      resolved.start,
		EndUTC:        resolved.end,
		EventTimezone: in.Timezone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return domain.Event{}, err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeEventCreated, event.ID,
		describeEvent("created", event, resolved.members))
	return event, nil
}

func (s *EventService) Update(ctx context.Context, id string, in EventInput) (domain.Event, error) {
	event, err := s.events.Get(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}
	resolved, err := s.resolveInput(ctx, in)
	if err != nil {
		return domain.Event{}, err
	}

	event.ProfileIDs = resolved.profileIDs
	event.StartUTC = resolved.start
	event.EndUTC = resolved.end
	event.EventTimezone = in.Timezone
	event.UpdatedAt = time.Now().UTC()
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return domain.Event{}, err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeEventUpdated, event.ID,
		describeEvent("updated", event, resolved.members))
	return event, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	event, err := s.events.Get(ctx, id)
	if err != nil {
		return err
	}
	members, err := s.profiles.GetByIDs(ctx, event.ProfileIDs)
	if err != nil {
		return err
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}

	appendAudit(ctx, s.audit, s.logger, domain.EventTypeEventDeleted, event.ID,
		describeEvent("deleted", event, members))
	return nil
}

// ListForProfile returns the profile's events ordered by start time. The
// profile must exist; listing events of an unknown profile is NotFound, not
// an empty list.
func (s *EventService) ListForProfile(ctx context.Context, profileID string) ([]domain.Event, error) {
	if _, err := s.profiles.Get(ctx, profileID); err != nil {
		return nil, err
	}
	return s.events.ListForProfile(ctx, profileID)
}

func describeEvent(verb string, event domain.Event, members []domain.Profile) string {
	names := make([]string, 0, len(members))
	for _, p := range members {
		names = append(names, p.Name)
	}
	return fmt.Sprintf("%s event from %s to %s (%s) for %s",
		verb,
		event.StartUTC.Format(time.RFC3339),
		event.EndUTC.Format(time.RFC3339),
		event.EventTimezone,
		strings.Join(names, ", "))
}

func missingIDs(wanted []string, found []domain.Profile) []string {
	present := make(map[string]struct{}, len(found))
	for _, p := range found {
		present[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

package domain

import (
	"slices"
	"time"
)

// Event holds both instants in canonical UTC. EventTimezone records the zone
// the endpoints were authored in and is never used to re-derive them.
type Event struct {
	ID            string
	ProfileIDs    []string
	StartUTC      time.Time
	EndUTC        time.Time
	EventTimezone string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (e Event) Validate() error {
	var errs []FieldError
	if len(e.ProfileIDs) == 0 {
		errs = append(errs, FieldError{Field: "profileIds", Message: "must not be empty"})
	}
	if e.EventTimezone == "" {
		errs = append(errs, FieldError{Field: "timezone", Message: "must not be empty"})
	} else if _, err := time.LoadLocation(e.EventTimezone); err != nil {
		errs = append(errs, FieldError{Field: "timezone", Message: "invalid IANA timezone"})
	}
	if !e.StartUTC.Before(e.EndUTC) {
		errs = append(errs, FieldError{Field: "end", Message: "must be after start"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// NormalizeProfileIDs canonicalizes a membership set: duplicates and empty
// entries are dropped and the remainder is sorted.
func NormalizeProfileIDs(ids []string) []string {
	normalized := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	slices.Sort(normalized)
	return normalized
}

// CascadeResult summarizes what a profile deletion did to the event set.
// EventsUpdated counts events that lost the member but kept others;
// EventsDeleted counts events removed because their membership became empty.
type CascadeResult struct {
	EventsUpdated int
	EventsDeleted int
}

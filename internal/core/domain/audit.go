package domain

import "time"

type EventType string

const (
	EventTypeProfileCreated EventType = "PROFILE_CREATED"
	EventTypeProfileUpdated EventType = "PROFILE_UPDATED"
	EventTypeProfileDeleted EventType = "PROFILE_DELETED"
	EventTypeEventCreated   EventType = "EVENT_CREATED"
	EventTypeEventUpdated   EventType = "EVENT_UPDATED"
	EventTypeEventDeleted   EventType = "EVENT_DELETED"
)

// LogEntry is one line of the append-only audit trail. Description is
// human-readable and carries resolved profile names, not raw ids.
type LogEntry struct {
	ID          string
	Timestamp   time.Time
	EventType   EventType
	EntityID    string
	Description string
}

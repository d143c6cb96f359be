// Package memory keeps all entities in process memory behind a single lock.
// It backs the server when no database path is configured.
package memory

import (
	"sync"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]domain.Profile
	events   map[string]domain.Event
	entries  []domain.LogEntry
	auditCap int
}

// NewStore builds an empty store. auditCap bounds the audit log; zero keeps
// it unbounded.
func NewStore(auditCap int) *Store {
	if auditCap < 0 {
		auditCap = 0
	}
	return &Store{
		profiles: make(map[string]domain.Profile),
		events:   make(map[string]domain.Event),
		auditCap: auditCap,
	}
}

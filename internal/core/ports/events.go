package ports

import (
	"context"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type EventRepository interface {
	Insert(ctx context.Context, event domain.Event) error
	Get(ctx context.Context, id string) (domain.Event, error)
	Update(ctx context.Context, event domain.Event) error
	Delete(ctx context.Context, id string) error
	// ListForProfile returns events whose membership contains profileID,
	// ordered by start instant ascending.
	ListForProfile(ctx context.Context, profileID string) ([]domain.Event, error)
}

package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type EventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

func (r *EventRepository) Insert(ctx context.Context, event domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	event.ProfileIDs = slices.Clone(event.ProfileIDs)
	r.store.events[event.ID] = event
	return nil
}

func (r *EventRepository) Get(ctx context.Context, id string) (domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	event, ok := r.store.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	event.ProfileIDs = slices.Clone(event.ProfileIDs)
	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[event.ID]; !ok {
		return domain.ErrNotFound
	}
	event.ProfileIDs = slices.Clone(event.ProfileIDs)
	r.store.events[event.ID] = event
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.events, id)
	return nil
}

func (r *EventRepository) ListForProfile(ctx context.Context, profileID string) ([]domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var events []domain.Event
	for _, event := range r.store.events {
		if !slices.Contains(event.ProfileIDs, profileID) {
			continue
		}
		event.ProfileIDs = slices.Clone(event.ProfileIDs)
		events = append(events, event)
	}
	slices.SortFunc(events, func(a, b domain.Event) int {
		if c := a.StartUTC.Compare(b.StartUTC); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return events, nil
}

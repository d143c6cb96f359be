package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type ProfileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) Insert(ctx context.Context, profile domain.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.profiles[profile.ID] = profile
	return nil
}

func (r *ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	profile, ok := r.store.profiles[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return profile, nil
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	profiles := make([]domain.Profile, 0, len(ids))
	for _, id := range ids {
		if profile, ok := r.store.profiles[id]; ok {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	profiles := make([]domain.Profile, 0, len(r.store.profiles))
	for _, profile := range r.store.profiles {
		profiles = append(profiles, profile)
	}
	slices.SortFunc(profiles, func(a, b domain.Profile) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return profiles, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile domain.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.profiles[profile.ID]; !ok {
		return domain.ErrNotFound
	}
	r.store.profiles[profile.ID] = profile
	return nil
}

// Delete removes the profile and cascades over events under the same write
// lock: the id is dropped from every membership and events left without
// members are deleted.
func (r *ProfileRepository) Delete(ctx context.Context, id string) (domain.CascadeResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.profiles[id]; !ok {
		return domain.CascadeResult{}, domain.ErrNotFound
	}

	var result domain.CascadeResult
	for eventID, event := range r.store.events {
		idx := slices.Index(event.ProfileIDs, id)
		if idx < 0 {
			continue
		}
		if len(event.ProfileIDs) == 1 {
			delete(r.store.events, eventID)
			result.EventsDeleted++
			continue
		}
		event.ProfileIDs = slices.Delete(slices.Clone(event.ProfileIDs), idx, idx+1)
		r.store.events[eventID] = event
		result.EventsUpdated++
	}
	delete(r.store.profiles, id)
	return result, nil
}

package ports

import (
	"context"

	"github.com/zonecal/zonecal/internal/core/domain"
)

type ProfileRepository interface {
	Insert(ctx context.Context, profile domain.Profile) error
	Get(ctx context.Context, id string) (domain.Profile, error)
	// GetByIDs returns the profiles that exist among ids; absent ids are
	// simply missing from the result, not an error.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Update(ctx context.Context, profile domain.Profile) error
	// Delete removes the profile and cascades atomically: the id is removed
	// from every event's membership and events left without members are
	// deleted outright.
	Delete(ctx context.Context, id string) (domain.CascadeResult, error)
}

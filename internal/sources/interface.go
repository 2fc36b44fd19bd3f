package sources

import (
	"context"

	"github.com/flowcrm/pain-radar/internal/models"
)

// Fetcher is the contract for a platform transport. Implementations own
// pagination and rate limiting; callers treat results as at-least-once
// and possibly duplicate-laden.
type Fetcher interface {
	Platform() models.Platform
	// Fetch returns one bounded page of raw posts matching the keyword.
	Fetch(ctx context.Context, keyword string, limit int) ([]models.RawPost, error)
	IsEnabled() bool
}

// Registry resolves the fetcher for a platform.
type Registry struct {
	fetchers map[models.Platform]Fetcher
}

// NewRegistry builds a registry from the given fetchers.
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[models.Platform]Fetcher)}
	for _, f := range fetchers {
		r.fetchers[f.Platform()] = f
	}
	return r
}

// ForPlatform returns the fetcher registered for the platform, or false
// when none is registered or the fetcher is missing its credentials.
func (r *Registry) ForPlatform(p models.Platform) (Fetcher, bool) {
	f, ok := r.fetchers[p]
	if !ok || !f.IsEnabled() {
		return nil, false
	}
	return f, true
}

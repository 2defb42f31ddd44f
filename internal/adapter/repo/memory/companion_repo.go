package memory

import (
	"context"

	"fableturn/internal/app/ports"
)

type CompanionRepo struct {
	store *Store
}

func NewCompanionRepo(store *Store) CompanionRepo {
	return CompanionRepo{store: store}
}

func (r CompanionRepo) LatestUnresolved(_ context.Context, campaignID string) (ports.CompanionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	list := r.store.companions[campaignID]
	for i := len(list) - 1; i >= 0; i-- {
		if !list[i].Resolved {
			return list[i], nil
		}
	}
	return ports.CompanionRecord{}, ports.ErrNotFound
}

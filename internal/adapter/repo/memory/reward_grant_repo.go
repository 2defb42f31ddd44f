package memory

import (
	"context"

	"fableturn/internal/app/ports"
)

type RewardGrantRepo struct {
	store *Store
}

func NewRewardGrantRepo(store *Store) RewardGrantRepo {
	return RewardGrantRepo{store: store}
}

// Insert is the at-most-once gate: the duplicate check and the write
// happen under one lock, so concurrent grants for the same key see
// exactly one success.
func (r RewardGrantRepo) Insert(_ context.Context, rec ports.RewardGrantRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	key := grantKey(rec.TurnID, rec.CharacterID, rec.RewardKey)
	if _, exists := r.store.grants[key]; exists {
		return ports.ErrDuplicate
	}
	r.store.grants[key] = rec
	return nil
}

func (r RewardGrantRepo) Delete(_ context.Context, guardID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key, rec := range r.store.grants {
		if rec.GuardID == guardID {
			delete(r.store.grants, key)
			return nil
		}
	}
	return ports.ErrNotFound
}

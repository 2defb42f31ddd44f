package memory

import (
	"context"
	"sort"

	"fableturn/internal/app/ports"
)

type CharacterRepo struct {
	store *Store
}

func NewCharacterRepo(store *Store) CharacterRepo {
	return CharacterRepo{store: store}
}

func (r CharacterRepo) ListByCampaign(_ context.Context, campaignID string) ([]ports.CharacterRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []ports.CharacterRecord
	for _, c := range r.store.characters {
		if c.CampaignID == campaignID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CharacterID < out[j].CharacterID })
	return out, nil
}

func (r CharacterRepo) AddExperience(_ context.Context, characterID string, xp int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.characters[characterID]
	if !ok {
		return ports.ErrNotFound
	}
	c.XP += xp
	r.store.characters[characterID] = c
	return nil
}

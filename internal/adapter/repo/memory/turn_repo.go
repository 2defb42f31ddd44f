package memory

import (
	"context"

	"fableturn/internal/app/ports"
)

type TurnRepo struct {
	store *Store
}

func NewTurnRepo(store *Store) TurnRepo {
	return TurnRepo{store: store}
}

func (r TurnRepo) MaxIndex(_ context.Context, campaignID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	turns := r.store.turns[campaignID]
	if len(turns) == 0 {
		return 0, ports.ErrNotFound
	}
	max := int64(-1)
	for _, t := range turns {
		if t.TurnIndex > max {
			max = t.TurnIndex
		}
	}
	return max, nil
}

func (r TurnRepo) Commit(_ context.Context, rec ports.TurnRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.turns[rec.CampaignID] {
		if t.TurnIndex == rec.TurnIndex {
			return ports.ErrConflict
		}
	}
	r.store.turns[rec.CampaignID] = append(r.store.turns[rec.CampaignID], rec)
	return nil
}

func (r TurnRepo) ListByCampaign(_ context.Context, campaignID string, limit int) ([]ports.TurnRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	turns := r.store.turns[campaignID]
	out := make([]ports.TurnRecord, len(turns))
	copy(out, turns)
	// Newest first, matching the SQL adapter's ordering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

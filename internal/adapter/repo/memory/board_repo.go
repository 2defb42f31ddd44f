package memory

import (
	"context"

	"fableturn/internal/app/ports"
)

type BoardRepo struct {
	store *Store
}

func NewBoardRepo(store *Store) BoardRepo {
	return BoardRepo{store: store}
}

func (r BoardRepo) GetByID(_ context.Context, boardID string) (ports.BoardRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.boards[boardID]
	if !ok {
		return ports.BoardRecord{}, ports.ErrNotFound
	}
	return rec, nil
}

func (r BoardRepo) SaveWithVersion(_ context.Context, rec ports.BoardRecord, expectedVersion int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	current, ok := r.store.boards[rec.BoardID]
	if !ok {
		if expectedVersion != 0 {
			return ports.ErrConflict
		}
		r.store.boards[rec.BoardID] = rec
		return nil
	}
	if current.Version != expectedVersion {
		return ports.ErrConflict
	}
	r.store.boards[rec.BoardID] = rec
	return nil
}

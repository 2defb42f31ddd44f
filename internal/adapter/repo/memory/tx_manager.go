package memory

import "context"

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serializes transaction bodies against each other. The repos
// lock the store per call, so fn may use them freely; holding txMu
// keeps an index re-check and the commit that follows it atomic with
// respect to other transactions.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()
	return fn(ctx)
}

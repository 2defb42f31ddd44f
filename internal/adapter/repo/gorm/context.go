package gormrepo

import (
	"context"

	"gorm.io/gorm"
)

// The active transaction travels on the context so every repo in this
// package joins the same tx when called from TxManager.RunInTx.
type ctxTxKey struct{}

func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, ctxTxKey{}, tx)
}

func dbFrom(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(ctxTxKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return base
}

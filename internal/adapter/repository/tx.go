package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// withTx stashes a transaction handle in the context so that writes made by
// other repositories inside the same callback join the transaction.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// dbFrom returns the transaction from ctx when present, otherwise fallback.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/erp/payables/internal/domain/shared"
)

type txContextKey struct{}

// GormTransactionManager implements shared.TransactionManager by carrying
// the transaction handle in the context, so the repositories join the
// transaction without changing their signatures.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a transaction manager on a database handle
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside one transaction. A context already bound
// to a transaction joins it instead of opening a nested one.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	tx, _ := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx
}

// session resolves the database handle for a context: the bound transaction
// when there is one, the base handle otherwise.
func session(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

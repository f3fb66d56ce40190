// Package uow provides unit-of-work semantics over gorm transactions, both
// as an explicit Execute wrapper for services and as an HTTP middleware that
// scopes a transaction to the request.
package uow

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/apiforge/apiforge/pkg/reqctx"
)

// GormTransaction wraps a *gorm.DB transaction behind the
// reqctx.DatabaseTransaction interface. gorm's transaction methods return
// *gorm.DB for chaining, so each is flattened to a plain error.
type GormTransaction struct {
	DB *gorm.DB
}

// NewGormTransaction wraps an already-begun gorm transaction.
func NewGormTransaction(tx *gorm.DB) *GormTransaction {
	return &GormTransaction{DB: tx}
}

func (t *GormTransaction) Commit() error {
	return t.DB.Commit().Error
}

func (t *GormTransaction) Rollback() error {
	return t.DB.Rollback().Error
}

func (t *GormTransaction) SavePoint(name string) error {
	return t.DB.SavePoint(name).Error
}

func (t *GormTransaction) RollbackTo(name string) error {
	return t.DB.RollbackTo(name).Error
}

// GetDB returns the underlying transaction handle.
func (t *GormTransaction) GetDB() *gorm.DB {
	return t.DB
}

var _ reqctx.DatabaseTransaction = (*GormTransaction)(nil)

// UnitOfWork begins, commits, and rolls back transactions against one
// database handle.
type UnitOfWork struct {
	db *gorm.DB
}

// New creates a unit of work over a database handle.
func New(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Begin starts a transaction and returns a context carrying it, so that
// repositories resolve their session from the transaction.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, reqctx.DatabaseTransaction, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	wrapped := NewGormTransaction(tx)
	return reqctx.WithTransaction(ctx, wrapped), wrapped, nil
}

// Execute runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise, including when fn panics.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	txCtx, tx, err := u.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

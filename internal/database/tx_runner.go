package database

import (
	"context"

	"gorm.io/gorm"

	"tourrental/internal/pkg/apperr"
	"tourrental/internal/pkg/dbctx"
)

// TxRunner opens the single transaction scope shared by every write of one operation.
type TxRunner interface {
	InTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// InTx commits when fn returns nil and rolls back otherwise. Not-found, validation and
// conflict errors reach the caller unchanged; any other failure is reported as an aborted transaction.
func (r *gormTxRunner) InTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return apperr.New(apperr.CodeInternal, op, "transaction runner has nil db", nil)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
	if err == nil {
		return nil
	}
	mapped := apperr.MapError(op, err)
	switch apperr.CodeOf(mapped) {
	case apperr.CodeNotFound, apperr.CodeValidation, apperr.CodeConflict, apperr.CodeTransactionAborted:
		return mapped
	default:
		return apperr.Wrap(apperr.CodeTransactionAborted, op, err)
	}
}

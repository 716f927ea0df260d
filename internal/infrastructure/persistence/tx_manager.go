package persistence

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/civic-backend/internal/pkg/apperror"
)

type txKey struct{}

// TxManager хранит открытую транзакцию в контексте. Адаптеры, получившие
// такой контекст, выполняют запросы внутри неё.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx открывает транзакцию или присоединяется к уже открытой в ctx.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.RecordStoreFailure(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.RecordStoreFailure(err, "failed to commit transaction")
	}
	return nil
}

func txFromContext(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// executor возвращает транзакцию из ctx или пул соединений.
func executor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db
}

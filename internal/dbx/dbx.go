// Package dbx содержит общую для репозиториев работу с транзакциями:
// интерфейс DBTX, которому удовлетворяют *sql.DB и *sql.Tx, и передачу
// открытой транзакции через context.Context.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX подмножество database/sql, которое используют репозитории.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Conn возвращает транзакцию из ctx, а если ее нет, то db.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// InTx сообщает, есть ли в ctx открытая транзакция.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// WithTx открывает транзакцию и вызывает fn с контекстом, в котором она лежит.
// При ошибке или панике транзакция откатывается, панику пробрасывает дальше.
// Если в ctx уже есть транзакция, fn выполняется в ней.
//
// Пример:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context) error {
//	    _, err := dbx.Conn(ctx, db).ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}

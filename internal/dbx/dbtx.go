// Package dbx defines the single seam the repository layer is written
// against: a query interface satisfied by both the connection pool and an
// open transaction, plus a helper that turns a function into an atomic unit
// of work. Repositories never know which of the two they are running on;
// the workflow services decide by handing them either *sql.DB or the tx
// inside WithTx.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the slice of database/sql the repositories use. *sql.DB and
// *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction commits only when fn
// returns nil; any error or panic rolls it back, and panics propagate to
// the caller. Multi-row workflow writes (an order insert plus its side rows,
// a review update) go through here so a partial write never becomes visible.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if _, err := rm.Orders(tx).Create(ctx, order); err != nil {
//	        return err
//	    }
//	    return rm.Attachments(tx).Create(ctx, att)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	committing := false
	defer func() {
		// reached on fn error or panic; Rollback on a finished tx is a no-op
		if !committing {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	committing = true
	return tx.Commit()
}

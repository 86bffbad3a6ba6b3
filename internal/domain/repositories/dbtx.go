package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the common interface between pgxpool.Pool and pgx.Tx, allowing
// repositories to run against either depending on what's in the context.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txContextKey struct{}

// SetTx stores a transaction in the context so repositories automatically
// participate in it.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// GetTx retrieves the transaction from the context, or nil if none.
func GetTx(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txContextKey{}).(pgx.Tx)
	return tx
}

// TxFn is a function executed within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a database transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}

package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database/sql handle used by SQL-backed stores.
// Both *sql.DB and *sql.Tx satisfy it, so a store can be pointed at a
// transaction without changing its queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

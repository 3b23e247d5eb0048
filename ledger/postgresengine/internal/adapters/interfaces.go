package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the storage engine.
//
// Query is for read-only statements and may be served by a read replica.
// QueryReturning is for mutating statements that return rows
// (UPDATE/INSERT ... RETURNING) and must always run on the primary.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	QueryReturning(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

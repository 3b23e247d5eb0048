// Package postgresengine provides a PostgreSQL implementation of the entity
// store and the append-only ledger.
//
// It supports multiple database adapters (pgx, sql.DB, sqlx) behind a common
// interface, a configurable table pair, and entry ids assigned by the
// database so they are strictly increasing in commit order.
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(db)
//
//	// With custom table names and operational logging
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		db,
//		postgresengine.WithEntityTableName("my_entities"),
//		postgresengine.WithLedgerTableName("my_ledger"),
//		postgresengine.WithLogger(logger),
//	)
//
//	entity, _ := store.GetEntity(ctx, "acc-1")
//	entries, _ := store.QueryEntries(ctx, filter)
package postgresengine

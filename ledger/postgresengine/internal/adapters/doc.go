// Package adapters provides database adapter implementations for the
// PostgreSQL entity store and ledger.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, allowing the
// storage engine to work seamlessly with any supported connection type.
package adapters

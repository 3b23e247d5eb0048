// Package config provides database configuration helpers for PostgreSQL
// connections for the example: accounts and inventory bookkeeping.
//
// This package contains factory functions for creating database connections
// using different PostgreSQL drivers (pgx.Pool, sql.DB, sqlx.DB) with a
// pre-configured local database DSN, plus the schema statements the storage
// engine expects.
package config

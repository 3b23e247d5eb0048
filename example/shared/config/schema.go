package config

import (
	"context"
	"database/sql"
)

const createEntitiesTable = `
CREATE TABLE IF NOT EXISTS entities (
	entity_id     TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	name          TEXT NOT NULL,
	value         NUMERIC NOT NULL,
	unit_price    NUMERIC NOT NULL DEFAULT 0,
	min_threshold NUMERIC NOT NULL DEFAULT 0,
	active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMP WITH TIME ZONE NOT NULL
)`

const createLedgerTable = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	entry_id         BIGSERIAL PRIMARY KEY,
	transaction_id   UUID NOT NULL,
	occurred_at      TIMESTAMP WITH TIME ZONE NOT NULL,
	operation_type   TEXT NOT NULL,
	entity_ids       JSONB NOT NULL,
	amount           NUMERIC NOT NULL,
	unit_price       NUMERIC NOT NULL DEFAULT 0,
	resulting_values JSONB NOT NULL
)`

const createLedgerIndexes = `
CREATE INDEX IF NOT EXISTS idx_ledger_entries_entity_ids ON ledger_entries USING GIN (entity_ids);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_occurred_at ON ledger_entries (occurred_at)`

// EnsureSchema creates the entity and ledger tables plus their indexes if
// they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{createEntitiesTable, createLedgerTable, createLedgerIndexes} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

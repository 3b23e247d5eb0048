package ledger

import (
	"errors"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database connection is supplied to a store factory.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyEntityTableName is returned when an empty entity table name is supplied.
	ErrEmptyEntityTableName = errors.New("empty entityTableName supplied")

	// ErrEmptyLedgerTableName is returned when an empty ledger table name is supplied.
	ErrEmptyLedgerTableName = errors.New("empty ledgerTableName supplied")

	// ErrUnknownEntity is returned when no active entity exists for the given id.
	ErrUnknownEntity = errors.New("entity does not exist")

	// ErrEntityAlreadyExists is returned when an entity with the given id was already created.
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// ErrQueryingEntriesFailed is returned when querying ledger entries from the store fails.
	ErrQueryingEntriesFailed = errors.New("querying ledger entries failed")

	// ErrAppendingEntriesFailed is returned when appending ledger entries to the store fails.
	ErrAppendingEntriesFailed = errors.New("appending ledger entries failed")

	// ErrBuildingQueryFailed is returned when building a store query fails.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrScanningDBRowFailed is returned when scanning a database row fails.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrStoringEntityFailed is returned when persisting an entity fails.
	ErrStoringEntityFailed = errors.New("storing entity failed")

	// ErrApplyingDeltaFailed is returned when applying a delta to an entity value fails.
	ErrApplyingDeltaFailed = errors.New("applying delta failed")
)

// EntryIDUint64 is a type alias for uint64, representing the monotonically increasing id of a committed LedgerEntry.
type EntryIDUint64 = uint64

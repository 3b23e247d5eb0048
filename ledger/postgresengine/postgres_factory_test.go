package postgresengine_test

import (
	"database/sql"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/postgresengine"
)

func Test_Factories_NilConnection(t *testing.T) {
	tests := []struct {
		name string
		act  func() (postgresengine.Store, error)
	}{
		{
			name: "pgx pool",
			act: func() (postgresengine.Store, error) {
				return postgresengine.NewStoreFromPGXPool(nil)
			},
		},
		{
			name: "database/sql",
			act: func() (postgresengine.Store, error) {
				var db *sql.DB
				return postgresengine.NewStoreFromSQLDB(db)
			},
		},
		{
			name: "sqlx",
			act: func() (postgresengine.Store, error) {
				var db *sqlx.DB
				return postgresengine.NewStoreFromSQLX(db)
			},
		},
		{
			name: "pgx pool with replica, nil primary",
			act: func() (postgresengine.Store, error) {
				return postgresengine.NewStoreFromPGXPoolWithReplica(nil, &pgxpool.Pool{})
			},
		},
		{
			name: "pgx pool with replica, nil replica",
			act: func() (postgresengine.Store, error) {
				return postgresengine.NewStoreFromPGXPoolWithReplica(&pgxpool.Pool{}, nil)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.act()

			// assert
			assert.ErrorIs(t, err, ledger.ErrNilDatabaseConnection)
		})
	}
}

func Test_Factories_InvalidTableNameOptions(t *testing.T) {
	tests := []struct {
		name        string
		option      postgresengine.Option
		expectedErr error
	}{
		{
			name:        "empty entity table name",
			option:      postgresengine.WithEntityTableName(""),
			expectedErr: ledger.ErrEmptyEntityTableName,
		},
		{
			name:        "empty ledger table name",
			option:      postgresengine.WithLedgerTableName(""),
			expectedErr: ledger.ErrEmptyLedgerTableName,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := postgresengine.NewStoreFromPGXPool(&pgxpool.Pool{}, tc.option)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_Factories_AcceptObservabilityOptions(t *testing.T) {
	// act
	_, err := postgresengine.NewStoreFromPGXPoolWithReplica(
		&pgxpool.Pool{},
		&pgxpool.Pool{},
		postgresengine.WithContextualLogger(slog.Default()),
		postgresengine.WithLogger(slog.Default()),
	)

	// assert
	assert.NoError(t, err)
}

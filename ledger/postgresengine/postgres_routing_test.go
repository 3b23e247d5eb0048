package postgresengine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/postgresengine/internal/adapters"
)

// Read-only statements may be served by a replica, so they must go through the
// adapter's Query path. UPDATE/INSERT ... RETURNING statements mutate and must
// go through QueryReturning, which is pinned to the primary.
func Test_Statements_AreRoutedByMutationKind(t *testing.T) {
	// arrange
	ctx := context.Background()
	adapter := &routingAdapterSpy{}
	store, err := newStore(adapter)
	require.NoError(t, err)

	filter := ledger.BuildEntryFilter().
		Matching().
		AnyEntityIDOf("acc-1").
		Finalize()

	entry, buildErr := ledger.BuildLedgerEntry(
		uuid.New(),
		ledger.OperationTypeDeposit,
		time.Now(),
		[]string{"acc-1"},
		decimal.NewFromInt(10),
		map[string]decimal.Decimal{"acc-1": decimal.NewFromInt(110)},
	)
	require.NoError(t, buildErr)

	// act
	_, _ = store.GetEntity(ctx, "acc-1")
	_, _ = store.QueryEntries(ctx, filter)
	_, _ = store.ApplyDelta(ctx, "acc-1", decimal.NewFromInt(10))
	_, _ = store.AppendEntries(ctx, entry)

	// assert
	assert.Equal(t, 2, adapter.queryCalls, "reads go through the replica-eligible path")
	assert.Equal(t, 2, adapter.queryReturningCalls, "statements with RETURNING stay on the primary")
}

func Test_DeactivateEntity_UsesExec(t *testing.T) {
	// arrange
	ctx := context.Background()
	adapter := &routingAdapterSpy{rowsAffected: 1}
	store, err := newStore(adapter)
	require.NoError(t, err)

	// act
	deactivateErr := store.DeactivateEntity(ctx, "acc-1")

	// assert
	require.NoError(t, deactivateErr)
	assert.Equal(t, 1, adapter.execCalls)
	assert.Zero(t, adapter.queryCalls)
	assert.Zero(t, adapter.queryReturningCalls)
}

// routingAdapterSpy records which adapter path each statement takes. Rows are
// always empty, the tests only assert routing.
type routingAdapterSpy struct {
	queryCalls          int
	queryReturningCalls int
	execCalls           int
	rowsAffected        int64
}

func (a *routingAdapterSpy) Query(_ context.Context, _ string) (adapters.DBRows, error) {
	a.queryCalls++
	return emptyRows{}, nil
}

func (a *routingAdapterSpy) QueryReturning(_ context.Context, _ string) (adapters.DBRows, error) {
	a.queryReturningCalls++
	return emptyRows{}, nil
}

func (a *routingAdapterSpy) Exec(_ context.Context, _ string) (adapters.DBResult, error) {
	a.execCalls++
	return staticResult{rowsAffected: a.rowsAffected}, nil
}

type emptyRows struct{}

func (emptyRows) Next() bool        { return false }
func (emptyRows) Scan(...any) error { return nil }
func (emptyRows) Close() error      { return nil }

type staticResult struct {
	rowsAffected int64
}

func (r staticResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

var _ adapters.DBAdapter = (*routingAdapterSpy)(nil)

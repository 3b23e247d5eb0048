package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/memoryengine"
)

func Test_Store_InsertEntity_And_GetEntity(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	account := givenAccount(t, "acc-1", decimal.NewFromInt(100))

	// act
	insertErr := store.InsertEntity(ctx, account)

	// assert
	require.NoError(t, insertErr)

	loaded, getErr := store.GetEntity(ctx, "acc-1")
	require.NoError(t, getErr)
	assert.Equal(t, account.ID, loaded.ID)
	assert.True(t, loaded.Value.Equal(decimal.NewFromInt(100)))
}

func Test_Store_InsertEntity_DuplicateID(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.NewFromInt(100))))

	// act
	err := store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.NewFromInt(50)))

	// assert
	assert.ErrorIs(t, err, ledger.ErrEntityAlreadyExists)
}

func Test_Store_GetEntity_Unknown(t *testing.T) {
	// act
	_, err := givenStore(t).GetEntity(context.Background(), "missing")

	// assert
	assert.ErrorIs(t, err, ledger.ErrUnknownEntity)
}

func Test_Store_GetEntity_ReturnsDeactivatedEntities(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.Zero)))
	require.NoError(t, store.DeactivateEntity(ctx, "acc-1"))

	// act
	loaded, err := store.GetEntity(ctx, "acc-1")

	// assert
	require.NoError(t, err)
	assert.False(t, loaded.Active)
}

func Test_Store_ListEntities_FiltersByKindAndActivity(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-2", decimal.Zero)))
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.Zero)))
	require.NoError(t, store.InsertEntity(ctx, givenStockItem(t, "item-1", decimal.NewFromInt(5))))
	require.NoError(t, store.DeactivateEntity(ctx, "acc-2"))

	// act
	accounts, err := store.ListEntities(ctx, ledger.KindAccount)
	all, allErr := store.ListEntities(ctx, "")

	// assert
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)

	require.NoError(t, allErr)
	require.Len(t, all, 2)
	assert.Equal(t, "acc-1", all[0].ID)
	assert.Equal(t, "item-1", all[1].ID)
}

func Test_Store_ApplyDelta(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.NewFromInt(100))))

	// act
	newValue, err := store.ApplyDelta(ctx, "acc-1", decimal.NewFromInt(-30))

	// assert
	require.NoError(t, err)
	assert.True(t, newValue.Equal(decimal.NewFromInt(70)))

	loaded, getErr := store.GetEntity(ctx, "acc-1")
	require.NoError(t, getErr)
	assert.True(t, loaded.Value.Equal(decimal.NewFromInt(70)))
}

func Test_Store_ApplyDelta_UnknownOrInactiveEntity(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	require.NoError(t, store.InsertEntity(ctx, givenAccount(t, "acc-1", decimal.Zero)))
	require.NoError(t, store.DeactivateEntity(ctx, "acc-1"))

	// act + assert
	_, missingErr := store.ApplyDelta(ctx, "missing", decimal.NewFromInt(1))
	assert.ErrorIs(t, missingErr, ledger.ErrUnknownEntity)

	_, inactiveErr := store.ApplyDelta(ctx, "acc-1", decimal.NewFromInt(1))
	assert.ErrorIs(t, inactiveErr, ledger.ErrUnknownEntity)
}

func Test_Store_AppendEntries_AssignsStrictlyIncreasingIDs(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	first := givenLedgerEntry(t, ledger.OperationTypeDeposit, []string{"acc-1"})
	second := givenLedgerEntry(t, ledger.OperationTypeWithdraw, []string{"acc-1"})

	// act
	appendedFirst, firstErr := store.AppendEntries(ctx, first)
	appendedSecond, secondErr := store.AppendEntries(ctx, second)

	// assert
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	require.Len(t, appendedFirst, 1)
	require.Len(t, appendedSecond, 1)
	assert.Equal(t, ledger.EntryIDUint64(1), appendedFirst[0].EntryID)
	assert.Equal(t, ledger.EntryIDUint64(2), appendedSecond[0].EntryID)
}

func Test_Store_AppendEntries_StoredEntriesAreImmutableCopies(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)
	entry := givenLedgerEntry(t, ledger.OperationTypeTransfer, []string{"acc-1", "acc-2"})

	appended, err := store.AppendEntries(ctx, entry)
	require.NoError(t, err)

	// act: mutate the caller-side copies after the append
	appended[0].EntityIDs[0] = "tampered"
	appended[0].ResultingValues["acc-1"] = decimal.NewFromInt(-999)

	// assert
	queried, queryErr := store.QueryEntries(ctx, ledger.BuildEntryFilter().MatchingAnyEntry())
	require.NoError(t, queryErr)
	require.Len(t, queried, 1)
	assert.Equal(t, "acc-1", queried[0].EntityIDs[0])
	assert.True(t, queried[0].ResultingValues["acc-1"].Equal(decimal.NewFromInt(100)))
}

func Test_Store_QueryEntries_AppliesFilter(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := givenStore(t)

	_, err := store.AppendEntries(
		ctx,
		givenLedgerEntry(t, ledger.OperationTypeDeposit, []string{"acc-1"}),
		givenLedgerEntry(t, ledger.OperationTypeSell, []string{"item-1"}),
		givenLedgerEntry(t, ledger.OperationTypeDeposit, []string{"acc-2"}),
	)
	require.NoError(t, err)

	// act
	deposits, queryErr := store.QueryEntries(
		ctx,
		ledger.BuildEntryFilter().
			Matching().
			AnyOperationTypeOf(ledger.OperationTypeDeposit).
			Finalize(),
	)

	// assert
	require.NoError(t, queryErr)
	require.Len(t, deposits, 2)
	assert.Equal(t, []string{"acc-1"}, deposits[0].EntityIDs)
	assert.Equal(t, []string{"acc-2"}, deposits[1].EntityIDs)
}

/***** test helpers *****/

func givenStore(t *testing.T) *memoryengine.Store {
	t.Helper()

	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	return store
}

func givenAccount(t *testing.T, id string, balance decimal.Decimal) ledger.Entity {
	t.Helper()

	account, err := ledger.BuildAccount(id, "account "+id, balance, decimal.Zero, time.Now())
	require.NoError(t, err)

	return account
}

func givenStockItem(t *testing.T, id string, stock decimal.Decimal) ledger.Entity {
	t.Helper()

	item, err := ledger.BuildStockItem(id, "item "+id, stock, decimal.NewFromInt(10), decimal.Zero, time.Now())
	require.NoError(t, err)

	return item
}

func givenLedgerEntry(t *testing.T, operationType ledger.OperationType, entityIDs []string) ledger.LedgerEntry {
	t.Helper()

	resultingValues := make(map[string]decimal.Decimal, len(entityIDs))
	for _, entityID := range entityIDs {
		resultingValues[entityID] = decimal.NewFromInt(100)
	}

	entry, err := ledger.BuildLedgerEntry(
		uuid.New(), operationType, time.Now(), entityIDs, decimal.NewFromInt(10), resultingValues)
	require.NoError(t, err)

	return entry
}

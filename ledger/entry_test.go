package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

func Test_BuildLedgerEntry_ValidInput(t *testing.T) {
	// arrange
	transactionID := uuid.New()
	occurredAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	resultingValues := map[string]decimal.Decimal{
		"acc-1": decimal.NewFromInt(70),
		"acc-2": decimal.NewFromInt(80),
	}

	// act
	entry, err := ledger.BuildLedgerEntry(
		transactionID,
		ledger.OperationTypeTransfer,
		occurredAt,
		[]string{"acc-1", "acc-2"},
		decimal.NewFromInt(30),
		resultingValues,
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryIDUint64(0), entry.EntryID)
	assert.Equal(t, transactionID, entry.TransactionID)
	assert.Equal(t, ledger.OperationTypeTransfer, entry.OperationType)
	assert.Equal(t, []string{"acc-1", "acc-2"}, entry.EntityIDs)
	assert.True(t, entry.Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, entry.UnitPrice.IsZero())
}

func Test_BuildLedgerEntry_ErrorCases(t *testing.T) {
	validResultingValues := map[string]decimal.Decimal{"acc-1": decimal.NewFromInt(70)}

	tests := []struct {
		name            string
		transactionID   uuid.UUID
		operationType   ledger.OperationType
		entityIDs       []string
		amount          decimal.Decimal
		resultingValues map[string]decimal.Decimal
		expectedErr     error
	}{
		{
			name:            "nil transaction id",
			transactionID:   uuid.Nil,
			operationType:   ledger.OperationTypeDeposit,
			entityIDs:       []string{"acc-1"},
			amount:          decimal.NewFromInt(10),
			resultingValues: validResultingValues,
			expectedErr:     ledger.ErrMissingTransactionID,
		},
		{
			name:            "unknown operation type",
			transactionID:   uuid.New(),
			operationType:   ledger.OperationType("refund"),
			entityIDs:       []string{"acc-1"},
			amount:          decimal.NewFromInt(10),
			resultingValues: validResultingValues,
			expectedErr:     ledger.ErrUnknownOperationType,
		},
		{
			name:            "no entity ids",
			transactionID:   uuid.New(),
			operationType:   ledger.OperationTypeDeposit,
			entityIDs:       nil,
			amount:          decimal.NewFromInt(10),
			resultingValues: validResultingValues,
			expectedErr:     ledger.ErrNoEntityIDs,
		},
		{
			name:            "negative amount",
			transactionID:   uuid.New(),
			operationType:   ledger.OperationTypeDeposit,
			entityIDs:       []string{"acc-1"},
			amount:          decimal.NewFromInt(-10),
			resultingValues: validResultingValues,
			expectedErr:     ledger.ErrNegativeEntryAmount,
		},
		{
			name:            "missing resulting value for involved entity",
			transactionID:   uuid.New(),
			operationType:   ledger.OperationTypeTransfer,
			entityIDs:       []string{"acc-1", "acc-2"},
			amount:          decimal.NewFromInt(10),
			resultingValues: validResultingValues,
			expectedErr:     ledger.ErrMissingResultingValue,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := ledger.BuildLedgerEntry(
				tc.transactionID, tc.operationType, time.Now(), tc.entityIDs, tc.amount, tc.resultingValues)

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_LedgerEntry_PricedAt_ReturnsCopyWithUnitPrice(t *testing.T) {
	// arrange
	entry, err := ledger.BuildLedgerEntry(
		uuid.New(),
		ledger.OperationTypeSell,
		time.Now(),
		[]string{"item-1"},
		decimal.NewFromInt(5),
		map[string]decimal.Decimal{"item-1": decimal.NewFromInt(45)},
	)
	require.NoError(t, err)

	// act
	priced := entry.PricedAt(decimal.RequireFromString("9.99"))

	// assert
	assert.True(t, priced.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, entry.UnitPrice.IsZero())
}

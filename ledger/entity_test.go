package ledger_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

func Test_BuildAccount_ValidInput(t *testing.T) {
	// arrange
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// act
	account, err := ledger.BuildAccount("acc-1", "Alice", decimal.NewFromInt(100), decimal.NewFromInt(10), createdAt)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)
	assert.Equal(t, ledger.KindAccount, account.Kind)
	assert.True(t, account.Value.Equal(decimal.NewFromInt(100)))
	assert.True(t, account.UnitPrice.IsZero())
	assert.True(t, account.MinThreshold.Equal(decimal.NewFromInt(10)))
	assert.True(t, account.Active)
	assert.Equal(t, createdAt, account.CreatedAt)
}

func Test_BuildStockItem_ValidInput(t *testing.T) {
	// arrange
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// act
	item, err := ledger.BuildStockItem(
		"item-1", "Widget", decimal.NewFromInt(50), decimal.RequireFromString("9.99"), decimal.NewFromInt(10), createdAt)

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.KindStockItem, item.Kind)
	assert.True(t, item.Value.Equal(decimal.NewFromInt(50)))
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, item.Active)
}

func Test_BuildAccount_ErrorCases(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		entityName     string
		openingBalance decimal.Decimal
		minThreshold   decimal.Decimal
		expectedErr    error
	}{
		{
			name:           "empty id",
			id:             "",
			entityName:     "Alice",
			openingBalance: decimal.NewFromInt(100),
			minThreshold:   decimal.Zero,
			expectedErr:    ledger.ErrEmptyEntityID,
		},
		{
			name:           "empty name",
			id:             "acc-1",
			entityName:     "",
			openingBalance: decimal.NewFromInt(100),
			minThreshold:   decimal.Zero,
			expectedErr:    ledger.ErrEmptyEntityName,
		},
		{
			name:           "negative opening balance",
			id:             "acc-1",
			entityName:     "Alice",
			openingBalance: decimal.NewFromInt(-1),
			minThreshold:   decimal.Zero,
			expectedErr:    ledger.ErrNegativeOpeningValue,
		},
		{
			name:           "negative min threshold",
			id:             "acc-1",
			entityName:     "Alice",
			openingBalance: decimal.NewFromInt(100),
			minThreshold:   decimal.NewFromInt(-5),
			expectedErr:    ledger.ErrNegativeMinThreshold,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := ledger.BuildAccount(tc.id, tc.entityName, tc.openingBalance, tc.minThreshold, time.Now())

			// assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_BuildStockItem_NegativeUnitPrice(t *testing.T) {
	// act
	_, err := ledger.BuildStockItem(
		"item-1", "Widget", decimal.NewFromInt(10), decimal.NewFromInt(-1), decimal.Zero, time.Now())

	// assert
	assert.ErrorIs(t, err, ledger.ErrNegativeUnitPrice)
}

func Test_BuildStockItem_ZeroInitialStockIsAllowed(t *testing.T) {
	// act
	item, err := ledger.BuildStockItem(
		"item-1", "Widget", decimal.Zero, decimal.NewFromInt(5), decimal.Zero, time.Now())

	// assert
	require.NoError(t, err)
	assert.True(t, item.Value.IsZero())
}

package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrMissingTransactionID is returned when a ledger entry is built without a transaction id.
	ErrMissingTransactionID = errors.New("transaction id must not be nil")

	// ErrUnknownOperationType is returned when a ledger entry is built with an operation type the engine does not know.
	ErrUnknownOperationType = errors.New("unknown operation type")

	// ErrNoEntityIDs is returned when a ledger entry is built without any involved entity.
	ErrNoEntityIDs = errors.New("ledger entry must involve at least one entity")

	// ErrNegativeEntryAmount is returned when a ledger entry is built with a negative amount.
	ErrNegativeEntryAmount = errors.New("ledger entry amount must not be negative")

	// ErrMissingResultingValue is returned when a ledger entry lacks the resulting value of an involved entity.
	ErrMissingResultingValue = errors.New("ledger entry must carry a resulting value for every involved entity")
)

// OperationType identifies the logical domain operation a LedgerEntry records.
type OperationType string

const (
	OperationTypeTransfer   OperationType = "transfer"
	OperationTypeDeposit    OperationType = "deposit"
	OperationTypeWithdraw   OperationType = "withdraw"
	OperationTypePurchase   OperationType = "purchase"
	OperationTypeSell       OperationType = "sell"
	OperationTypeCreate     OperationType = "create"
	OperationTypeDeactivate OperationType = "deactivate"
)

// knownOperationTypes is the closed set accepted by BuildLedgerEntry.
var knownOperationTypes = map[OperationType]struct{}{
	OperationTypeTransfer:   {},
	OperationTypeDeposit:    {},
	OperationTypeWithdraw:   {},
	OperationTypePurchase:   {},
	OperationTypeSell:       {},
	OperationTypeCreate:     {},
	OperationTypeDeactivate: {},
}

// LedgerEntries is an alias type for a slice of LedgerEntry.
type LedgerEntries = []LedgerEntry

// LedgerEntry is the immutable audit record of exactly one committed logical
// operation. A transfer is recorded as one entry listing both entity ids.
//
// EntryID is assigned by the Ledger on append and is strictly increasing in
// commit order; it is zero until the entry has been committed. Once an entry
// has been committed its content never changes.
//
// While its properties are exported, it should only be constructed with the
// supplied factory method BuildLedgerEntry.
type LedgerEntry struct {
	EntryID         EntryIDUint64
	TransactionID   uuid.UUID
	OccurredAt      time.Time
	OperationType   OperationType
	EntityIDs       []string
	Amount          decimal.Decimal
	UnitPrice       decimal.Decimal
	ResultingValues map[string]decimal.Decimal
}

// PricedAt returns a copy of the entry carrying the unit price in effect when
// the operation was recorded. Purchase entries record the supply-side unit
// cost, sell entries the selling price; all other entries leave it zero.
func (e LedgerEntry) PricedAt(unitPrice decimal.Decimal) LedgerEntry {
	e.UnitPrice = unitPrice

	return e
}

// BuildLedgerEntry is a factory method for LedgerEntry.
//
// It validates that the entry carries a transaction id, a known operation
// type, at least one involved entity, a non-negative amount, and the
// resulting value of every involved entity.
func BuildLedgerEntry(
	transactionID uuid.UUID,
	operationType OperationType,
	occurredAt time.Time,
	entityIDs []string,
	amount decimal.Decimal,
	resultingValues map[string]decimal.Decimal,
) (LedgerEntry, error) {

	if transactionID == uuid.Nil {
		return LedgerEntry{}, ErrMissingTransactionID
	}

	if _, ok := knownOperationTypes[operationType]; !ok {
		return LedgerEntry{}, ErrUnknownOperationType
	}

	if len(entityIDs) == 0 {
		return LedgerEntry{}, ErrNoEntityIDs
	}

	if amount.IsNegative() {
		return LedgerEntry{}, ErrNegativeEntryAmount
	}

	for _, entityID := range entityIDs {
		if _, ok := resultingValues[entityID]; !ok {
			return LedgerEntry{}, ErrMissingResultingValue
		}
	}

	return LedgerEntry{
		TransactionID:   transactionID,
		OccurredAt:      occurredAt,
		OperationType:   operationType,
		EntityIDs:       entityIDs,
		Amount:          amount,
		ResultingValues: resultingValues,
	}, nil
}

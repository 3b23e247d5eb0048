package ledger

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrTransactionFinalized is returned when a Committed or Aborted transaction is modified.
var ErrTransactionFinalized = errors.New("transaction is already finalized")

// TransactionState models the Pending -> Committed | Aborted state machine.
// No transition leaves Committed or Aborted.
type TransactionState int

const (
	// StatePending is the initial state, created on operation entry.
	StatePending TransactionState = iota

	// StateCommitted is terminal: all deltas applied and ledger entries appended.
	StateCommitted

	// StateAborted is terminal: zero observable effect on store and ledger.
	StateAborted
)

// String provides a string representation of TransactionState for logging and debugging.
func (s TransactionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StagedOperation is one (entity id, delta) pair staged inside a pending transaction.
type StagedOperation struct {
	EntityID string
	Delta    decimal.Decimal
	Reason   OperationType
}

// Transaction is the transient all-or-nothing mutation scope.
//
// It is created by the transaction manager on operation entry, finalized on
// commit or abort, and discarded afterwards, except for the ledger entries a
// committed transaction produced.
type Transaction struct {
	id         uuid.UUID
	state      TransactionState
	operations []StagedOperation
	deltaSums  map[string]decimal.Decimal
}

// BeginTransaction creates a new Transaction in StatePending.
func BeginTransaction(id uuid.UUID) *Transaction {
	return &Transaction{
		id:        id,
		state:     StatePending,
		deltaSums: make(map[string]decimal.Decimal),
	}
}

// ID returns the transaction id.
func (tx *Transaction) ID() uuid.UUID {
	return tx.id
}

// State returns the current transaction state.
func (tx *Transaction) State() TransactionState {
	return tx.state
}

// Operations returns the staged operations in staging order.
func (tx *Transaction) Operations() []StagedOperation {
	return tx.operations
}

// StagedDeltaSum returns the cumulative delta already staged for the given
// entity in this transaction. Zero if the entity has not been touched yet.
func (tx *Transaction) StagedDeltaSum(entityID string) decimal.Decimal {
	if sum, ok := tx.deltaSums[entityID]; ok {
		return sum
	}

	return decimal.Zero
}

// Stage adds one (entity id, delta) pair to the pending transaction.
// Returns ErrTransactionFinalized if the transaction is no longer pending.
func (tx *Transaction) Stage(entityID string, delta decimal.Decimal, reason OperationType) error {
	if tx.state != StatePending {
		return ErrTransactionFinalized
	}

	tx.operations = append(tx.operations, StagedOperation{
		EntityID: entityID,
		Delta:    delta,
		Reason:   reason,
	})
	tx.deltaSums[entityID] = tx.StagedDeltaSum(entityID).Add(delta)

	return nil
}

// MarkCommitted transitions the transaction from Pending to Committed.
// Returns ErrTransactionFinalized if the transaction is no longer pending.
func (tx *Transaction) MarkCommitted() error {
	if tx.state != StatePending {
		return ErrTransactionFinalized
	}

	tx.state = StateCommitted

	return nil
}

// MarkAborted transitions the transaction from Pending to Aborted.
// Returns ErrTransactionFinalized if the transaction is no longer pending.
func (tx *Transaction) MarkAborted() error {
	if tx.state != StatePending {
		return ErrTransactionFinalized
	}

	tx.state = StateAborted

	return nil
}

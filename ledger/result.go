package ledger

import (
	"github.com/google/uuid"
)

// FailureKind classifies a failed domain operation for the caller.
type FailureKind int

const (
	FailureInsufficientFunds FailureKind = iota
	FailureInsufficientStock
	FailureUnknownEntity
	FailureInvalidAmount
	FailureConsistencyViolation
	FailureLockTimeout
	FailurePersistence
)

// String provides a string representation of FailureKind for messages and logging.
func (k FailureKind) String() string {
	switch k {
	case FailureInsufficientFunds:
		return "InsufficientFunds"
	case FailureInsufficientStock:
		return "InsufficientStock"
	case FailureUnknownEntity:
		return "UnknownEntity"
	case FailureInvalidAmount:
		return "InvalidAmount"
	case FailureConsistencyViolation:
		return "ConsistencyViolation"
	case FailureLockTimeout:
		return "LockTimeout"
	case FailurePersistence:
		return "PersistenceError"
	default:
		return "Unknown"
	}
}

// OperationFailure carries the structured, human-readable reason of a failed operation.
// EntityID names the entity the failure relates to, empty when not entity-specific.
type OperationFailure struct {
	Kind     FailureKind
	Message  string
	EntityID string
}

// TransactionResult is the structured outcome of one domain operation.
//
// On success, CommittedEntries holds the ledger entries the transaction
// produced. On failure, Failure carries the classified reason and the store
// is guaranteed to be unchanged.
//
// It should only be constructed with the supplied factory methods:
//   - CommittedResult
//   - RejectedResult
//   - LockTimeoutResult
//   - PersistenceFailureResult
type TransactionResult struct {
	Success          bool
	TransactionID    uuid.UUID
	CommittedEntries LedgerEntries
	Failure          *OperationFailure
}

// CommittedResult creates a TransactionResult for a committed transaction.
func CommittedResult(transactionID uuid.UUID, entries ...LedgerEntry) TransactionResult {
	return TransactionResult{
		Success:          true,
		TransactionID:    transactionID,
		CommittedEntries: entries,
	}
}

// RejectedResult creates a TransactionResult for a transaction aborted by a validation failure.
func RejectedResult(transactionID uuid.UUID, validation ValidationResult, entityID string) TransactionResult {
	return TransactionResult{
		Success:       false,
		TransactionID: transactionID,
		Failure: &OperationFailure{
			Kind:     failureKindFromRejectReason(validation.Reason),
			Message:  validation.Reason.String(),
			EntityID: entityID,
		},
	}
}

// LockTimeoutResult creates a TransactionResult for a transaction that could not
// acquire an entity lock within the bounded wait. The caller may retry.
func LockTimeoutResult(transactionID uuid.UUID, entityID string) TransactionResult {
	return TransactionResult{
		Success:       false,
		TransactionID: transactionID,
		Failure: &OperationFailure{
			Kind:     FailureLockTimeout,
			Message:  "timed out waiting for entity lock",
			EntityID: entityID,
		},
	}
}

// PersistenceFailureResult creates a TransactionResult for a transaction that
// failed during the mutate-and-append phase. The same condition is also
// surfaced as an error by the operation.
func PersistenceFailureResult(transactionID uuid.UUID, err error) TransactionResult {
	return TransactionResult{
		Success:       false,
		TransactionID: transactionID,
		Failure: &OperationFailure{
			Kind:    FailurePersistence,
			Message: err.Error(),
		},
	}
}

// HasFailure returns true if the operation did not commit.
func (r TransactionResult) HasFailure() bool {
	return r.Failure != nil
}

func failureKindFromRejectReason(reason RejectReason) FailureKind {
	switch reason {
	case ReasonInvalidAmount:
		return FailureInvalidAmount
	case ReasonUnknownEntity:
		return FailureUnknownEntity
	case ReasonInsufficientFunds:
		return FailureInsufficientFunds
	case ReasonInsufficientStock:
		return FailureInsufficientStock
	default:
		return FailureConsistencyViolation
	}
}

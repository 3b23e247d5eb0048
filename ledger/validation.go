package ledger

import (
	"github.com/shopspring/decimal"
)

// RejectReason classifies why a proposed mutation was rejected by the consistency check.
type RejectReason int

const (
	// ReasonOk means the proposed mutation was accepted.
	ReasonOk RejectReason = iota

	// ReasonInvalidAmount means the operation's magnitude was zero or negative where a positive one is required.
	ReasonInvalidAmount

	// ReasonUnknownEntity means no active entity exists for the id.
	ReasonUnknownEntity

	// ReasonInsufficientFunds means an account balance would drop below zero.
	ReasonInsufficientFunds

	// ReasonInsufficientStock means a stock count would drop below zero.
	ReasonInsufficientStock

	// ReasonConsistencyViolation means a domain invariant other than the above would be violated.
	ReasonConsistencyViolation
)

// String provides a string representation of RejectReason for messages and logging.
func (r RejectReason) String() string {
	switch r {
	case ReasonOk:
		return "ok"
	case ReasonInvalidAmount:
		return "invalid amount"
	case ReasonUnknownEntity:
		return "unknown entity"
	case ReasonInsufficientFunds:
		return "insufficient funds"
	case ReasonInsufficientStock:
		return "insufficient stock"
	case ReasonConsistencyViolation:
		return "consistency violation"
	default:
		return "unknown"
	}
}

// ValidationResult is the outcome of a pure consistency check against a proposed delta.
//
// It should only be constructed with the factory methods Accept and Reject.
type ValidationResult struct {
	Accepted bool
	Reason   RejectReason
}

// Accept creates a ValidationResult for an accepted mutation.
func Accept() ValidationResult {
	return ValidationResult{Accepted: true, Reason: ReasonOk}
}

// Reject creates a ValidationResult for a rejected mutation with the given reason.
func Reject(reason RejectReason) ValidationResult {
	return ValidationResult{Accepted: false, Reason: reason}
}

// ValidateAmount checks the operation contract that a magnitude must be strictly positive.
// Pure function, no side effects.
func ValidateAmount(amount decimal.Decimal) ValidationResult {
	if !amount.IsPositive() {
		return Reject(ReasonInvalidAmount)
	}

	return Accept()
}

// ValidateDelta checks whether applying pendingDeltaSum on top of currentValue
// would violate the non-negativity invariant for the given entity kind.
//
// The pendingDeltaSum must include every delta already staged for the same
// entity earlier in the same transaction, so a transaction touching one entity
// twice is checked cumulatively, not independently.
//
// Pure function, no side effects.
func ValidateDelta(currentValue decimal.Decimal, pendingDeltaSum decimal.Decimal, kind EntityKind) ValidationResult {
	if currentValue.Add(pendingDeltaSum).IsNegative() {
		switch kind {
		case KindAccount:
			return Reject(ReasonInsufficientFunds)
		case KindStockItem:
			return Reject(ReasonInsufficientStock)
		default:
			return Reject(ReasonConsistencyViolation)
		}
	}

	return Accept()
}

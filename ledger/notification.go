package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ThresholdNotification reports that a successful commit moved an entity's
// value below its soft MinThreshold. It is observable side-channel output and
// never changes the outcome of the transaction that triggered it.
type ThresholdNotification struct {
	EntityID     string
	EntityName   string
	Kind         EntityKind
	CurrentValue decimal.Decimal
	MinThreshold decimal.Decimal
	OccurredAt   time.Time
}

// ThresholdNotifier receives soft-threshold notifications emitted by the
// transaction manager after a successful commit. Implementations must not
// block the commit path for long; errors are the implementation's problem,
// a notification can never fail the transaction that caused it.
type ThresholdNotifier interface {
	ThresholdCrossed(ctx context.Context, notification ThresholdNotification)
}

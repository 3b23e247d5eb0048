package txmanager

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

const (
	defaultLockTimeout = 3 * time.Second

	logMsgTransactionCommitted = "transaction committed"
	logMsgTransactionAborted   = "transaction aborted"
	logMsgPersistenceFailure   = "persistence failure during mutate-and-append phase"
	logMsgDeltasUndone         = "applied deltas undone after persistence failure"
	logMsgUndoFailedHalting    = "compensating undo failed - halting all writes until operator recovery"
	logAttrTransactionID       = "transaction_id"
	logAttrOperationType       = "operation_type"
	logAttrEntityID            = "entity_id"
	logAttrReason              = "reason"
	logAttrEntryCount          = "entry_count"
	logAttrDurationMS          = "duration_ms"
	logAttrError               = "error"

	metricOperationDuration = "ledger_operation_duration"
	metricCommitsTotal      = "ledger_commits_total"
	metricAbortsTotal       = "ledger_aborts_total"
	labelOperation          = "operation"
	labelOutcome            = "outcome"

	spanNamePrefix      = "txmanager."
	spanAttrOperation   = "operation"
	spanStatusCommitted = "committed"
	spanStatusAborted   = "aborted"
	spanStatusError     = "error"

	outcomeCommitted   = "committed"
	outcomeAborted     = "aborted"
	outcomeLockTimeout = "lock_timeout"
	outcomeError       = "error"
)

var (
	// ErrNilEntityStore is returned when a nil entity store is supplied to the factory.
	ErrNilEntityStore = errors.New("entity store must not be nil")

	// ErrNilLedger is returned when a nil ledger is supplied to the factory.
	ErrNilLedger = errors.New("ledger must not be nil")

	// ErrInvalidLockTimeout is returned when a non-positive lock timeout is configured.
	ErrInvalidLockTimeout = errors.New("lock timeout must be positive")

	// ErrNilClock is returned when a nil clock func is configured.
	ErrNilClock = errors.New("clock must not be nil")

	// ErrWritesHalted is returned for every write once a compensating undo has
	// failed. The engine refuses further writes until operator recovery because
	// the storage contract itself can no longer be trusted.
	ErrWritesHalted = errors.New("writes are halted after a failed undo, operator recovery required")
)

// EntityStore defines the interface needed by the TransactionManager for
// reading and mutating entity state. The TransactionManager is the only
// component allowed to call the mutators.
type EntityStore interface {
	GetEntity(ctx context.Context, entityID string) (ledger.Entity, error)
	InsertEntity(ctx context.Context, entity ledger.Entity) error
	DeactivateEntity(ctx context.Context, entityID string) error
	ApplyDelta(ctx context.Context, entityID string, delta decimal.Decimal) (decimal.Decimal, error)
}

// Ledger defines the interface needed by the TransactionManager for appending
// committed operations to the audit log.
type Ledger interface {
	AppendEntries(ctx context.Context, entries ...ledger.LedgerEntry) (ledger.LedgerEntries, error)
}

// TransactionManager orchestrates every domain operation through the generic
// commit protocol: begin -> lock -> validate -> mutate-all-or-none -> append
// to the ledger -> commit, or abort with zero observable effect.
//
// Validation failures are reported as data in the TransactionResult, never as
// errors. Only persistence-class failures surface as errors; after a failed
// compensating undo the manager halts and refuses all further writes.
type TransactionManager struct {
	store       EntityStore
	auditLog    Ledger
	locks       *entityLockManager
	lockTimeout time.Duration
	logger      ledger.Logger
	metrics     ledger.MetricsCollector
	tracing     ledger.TracingCollector
	notifier    ledger.ThresholdNotifier
	clock       func() time.Time
	halted      atomic.Bool
}

// Option defines a functional option for configuring a TransactionManager.
type Option func(*TransactionManager) error

// WithLogger sets the logger for the TransactionManager.
func WithLogger(logger ledger.Logger) Option {
	return func(m *TransactionManager) error {
		m.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the TransactionManager.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(m *TransactionManager) error {
		m.metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the TransactionManager.
func WithTracing(collector ledger.TracingCollector) Option {
	return func(m *TransactionManager) error {
		m.tracing = collector
		return nil
	}
}

// WithNotifier sets the soft-threshold notifier for the TransactionManager.
func WithNotifier(notifier ledger.ThresholdNotifier) Option {
	return func(m *TransactionManager) error {
		m.notifier = notifier
		return nil
	}
}

// WithLockTimeout sets the bounded wait for entity lock acquisition.
func WithLockTimeout(timeout time.Duration) Option {
	return func(m *TransactionManager) error {
		if timeout <= 0 {
			return ErrInvalidLockTimeout
		}

		m.lockTimeout = timeout

		return nil
	}
}

// WithClock sets the time source used for ledger entry timestamps.
// Intended for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(m *TransactionManager) error {
		if clock == nil {
			return ErrNilClock
		}

		m.clock = clock

		return nil
	}
}

// NewTransactionManager creates a new TransactionManager on top of the given
// entity store and ledger with optional configuration.
func NewTransactionManager(store EntityStore, auditLog Ledger, options ...Option) (*TransactionManager, error) {
	if store == nil {
		return nil, ErrNilEntityStore
	}

	if auditLog == nil {
		return nil, ErrNilLedger
	}

	m := &TransactionManager{
		store:       store,
		auditLog:    auditLog,
		locks:       newEntityLockManager(),
		lockTimeout: defaultLockTimeout,
		clock:       time.Now,
	}

	for _, option := range options {
		if err := option(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Halted reports whether the manager refuses writes after a failed undo.
func (m *TransactionManager) Halted() bool {
	return m.halted.Load()
}

/***** domain operations *****/

// Transfer moves amount from one account to another, all-or-nothing.
// Requires amount > 0, two distinct ids, and both ids resolving to active accounts.
func (m *TransactionManager) Transfer(ctx context.Context, fromID string, toID string, amount decimal.Decimal) (
	ledger.TransactionResult,
	error,
) {

	op := operation{
		operationType:  ledger.OperationTypeTransfer,
		amount:         amount,
		requiredKind:   ledger.KindAccount,
		intents:        []intent{{entityID: fromID, delta: amount.Neg()}, {entityID: toID, delta: amount}},
		entryEntityIDs: []string{fromID, toID},
	}

	if fromID == toID {
		tx := ledger.BeginTransaction(uuid.New())
		return m.abortRejected(tx, op, ledger.Reject(ledger.ReasonConsistencyViolation), fromID, time.Now()), nil
	}

	return m.execute(ctx, op)
}

// Deposit increases an account balance by amount. Requires amount > 0.
func (m *TransactionManager) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (
	ledger.TransactionResult,
	error,
) {

	return m.execute(ctx, operation{
		operationType:  ledger.OperationTypeDeposit,
		amount:         amount,
		requiredKind:   ledger.KindAccount,
		intents:        []intent{{entityID: accountID, delta: amount}},
		entryEntityIDs: []string{accountID},
	})
}

// Withdraw decreases an account balance by amount.
// Requires amount > 0 and sufficient funds.
func (m *TransactionManager) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (
	ledger.TransactionResult,
	error,
) {

	return m.execute(ctx, operation{
		operationType:  ledger.OperationTypeWithdraw,
		amount:         amount,
		requiredKind:   ledger.KindAccount,
		intents:        []intent{{entityID: accountID, delta: amount.Neg()}},
		entryEntityIDs: []string{accountID},
	})
}

// Purchase increases a stock item's quantity, always accepted for positive
// quantity - supply side is unconstrained. The unitCost is recorded for
// gross profit reporting.
func (m *TransactionManager) Purchase(ctx context.Context, itemID string, quantity decimal.Decimal, unitCost decimal.Decimal) (
	ledger.TransactionResult,
	error,
) {

	if unitCost.IsNegative() {
		tx := ledger.BeginTransaction(uuid.New())
		op := operation{operationType: ledger.OperationTypePurchase, amount: quantity}
		return m.abortRejected(tx, op, ledger.Reject(ledger.ReasonInvalidAmount), itemID, time.Now()), nil
	}

	return m.execute(ctx, operation{
		operationType:  ledger.OperationTypePurchase,
		amount:         quantity,
		requiredKind:   ledger.KindStockItem,
		intents:        []intent{{entityID: itemID, delta: quantity}},
		entryEntityIDs: []string{itemID},
		unitPrice:      unitCost,
	})
}

// Sell decreases a stock item's quantity.
// Requires quantity > 0 and sufficient stock.
func (m *TransactionManager) Sell(ctx context.Context, itemID string, quantity decimal.Decimal) (
	ledger.TransactionResult,
	error,
) {

	return m.execute(ctx, operation{
		operationType:   ledger.OperationTypeSell,
		amount:          quantity,
		requiredKind:    ledger.KindStockItem,
		intents:         []intent{{entityID: itemID, delta: quantity.Neg()}},
		entryEntityIDs:  []string{itemID},
		priceFromEntity: true,
	})
}

/***** generic commit protocol *****/

// intent is one proposed (entity id, delta) pair of a domain operation.
type intent struct {
	entityID string
	delta    decimal.Decimal
}

// operation describes one logical domain operation for the generic commit protocol.
type operation struct {
	operationType   ledger.OperationType
	amount          decimal.Decimal
	requiredKind    ledger.EntityKind
	intents         []intent
	entryEntityIDs  []string
	unitPrice       decimal.Decimal
	priceFromEntity bool
}

// unitPriceFor resolves the unit price recorded on the entry: purchases carry
// the supply-side unit cost handed in by the caller, sells the selling price
// the item had when validation read it.
func unitPriceFor(op operation, entitiesBefore map[string]ledger.Entity) decimal.Decimal {
	if op.priceFromEntity {
		return entitiesBefore[op.entryEntityIDs[0]].UnitPrice
	}

	return op.unitPrice
}

// execute runs the generic commit protocol for the given operation.
//
// The returned error is non-nil only for persistence-class failures and for
// caller cancellation before the mutate-and-append phase; every expected
// validation failure is reported inside the TransactionResult.
func (m *TransactionManager) execute(ctx context.Context, op operation) (ledger.TransactionResult, error) {
	start := time.Now()
	tx := ledger.BeginTransaction(uuid.New())

	ctx, span := m.startSpan(ctx, op)

	if m.halted.Load() {
		m.finishSpan(span, spanStatusError)
		return ledger.PersistenceFailureResult(tx.ID(), ErrWritesHalted), ErrWritesHalted
	}

	if validation := ledger.ValidateAmount(op.amount); !validation.Accepted {
		result := m.abortRejected(tx, op, validation, "", start)
		m.finishSpan(span, spanStatusAborted)

		return result, nil
	}

	release, blockedEntityID, lockErr := m.locks.acquire(ctx, canonicalLockOrder(op.intents), m.lockTimeout)
	if lockErr != nil {
		_ = tx.MarkAborted()
		m.finishSpan(span, spanStatusAborted)

		if errors.Is(lockErr, ErrLockTimeout) {
			m.logAborted(tx, op, "lock timeout", blockedEntityID)
			m.recordOutcome(op, outcomeLockTimeout, start)

			return ledger.LockTimeoutResult(tx.ID(), blockedEntityID), nil
		}

		// context canceled or deadline exceeded while waiting for a lock
		return ledger.TransactionResult{Success: false, TransactionID: tx.ID()}, lockErr
	}
	defer release()

	entitiesBefore, validation, rejectedEntityID, storeErr := m.validateAndStage(ctx, tx, op)
	if storeErr != nil {
		// nothing was applied yet, aborting has zero effect
		_ = tx.MarkAborted()
		m.finishSpan(span, spanStatusError)
		m.recordOutcome(op, outcomeError, start)

		return ledger.PersistenceFailureResult(tx.ID(), storeErr), storeErr
	}

	if !validation.Accepted {
		result := m.abortRejected(tx, op, validation, rejectedEntityID, start)
		m.finishSpan(span, spanStatusAborted)

		return result, nil
	}

	// Last cancellation point: once the mutate-and-append phase starts, the
	// transaction runs to Committed or Aborted no matter what the caller does.
	if ctxErr := ctx.Err(); ctxErr != nil {
		_ = tx.MarkAborted()
		m.logAborted(tx, op, "canceled by caller", "")
		m.recordOutcome(op, outcomeAborted, start)
		m.finishSpan(span, spanStatusAborted)

		return ledger.TransactionResult{Success: false, TransactionID: tx.ID()}, ctxErr
	}

	writeCtx := context.WithoutCancel(ctx)

	resultingValues, appliedCount, applyErr := m.applyDeltas(writeCtx, tx)
	if applyErr != nil {
		result, err := m.undoAndFail(writeCtx, tx, op, tx.Operations()[:appliedCount], applyErr)
		m.finishSpan(span, spanStatusError)
		m.recordOutcome(op, outcomeError, start)

		return result, err
	}

	occurredAt := m.clock()

	entry, buildErr := ledger.BuildLedgerEntry(
		tx.ID(), op.operationType, occurredAt, op.entryEntityIDs, op.amount, resultingValues)
	if buildErr != nil {
		result, err := m.undoAndFail(writeCtx, tx, op, tx.Operations(), buildErr)
		m.finishSpan(span, spanStatusError)
		m.recordOutcome(op, outcomeError, start)

		return result, err
	}

	entry = entry.PricedAt(unitPriceFor(op, entitiesBefore))

	committed, appendErr := m.auditLog.AppendEntries(writeCtx, entry)
	if appendErr != nil {
		joined := errors.Join(ledger.ErrAppendingEntriesFailed, appendErr)
		result, err := m.undoAndFail(writeCtx, tx, op, tx.Operations(), joined)
		m.finishSpan(span, spanStatusError)
		m.recordOutcome(op, outcomeError, start)

		return result, err
	}

	_ = tx.MarkCommitted()

	m.logCommitted(tx, op, len(committed), start)
	m.recordOutcome(op, outcomeCommitted, start)
	m.finishSpan(span, spanStatusCommitted)
	m.emitThresholdNotifications(ctx, entitiesBefore, resultingValues, occurredAt)

	return ledger.CommittedResult(tx.ID(), committed...), nil
}

// validateAndStage runs the pure consistency checks for every intent against
// the entity's current value plus any deltas already staged for the same
// entity earlier in this transaction, staging accepted deltas as it goes.
//
// It returns the entity snapshots read during validation (for threshold
// notifications), the first failing ValidationResult with the offending
// entity id, or a store error.
func (m *TransactionManager) validateAndStage(ctx context.Context, tx *ledger.Transaction, op operation) (
	map[string]ledger.Entity,
	ledger.ValidationResult,
	string,
	error,
) {

	entitiesBefore := make(map[string]ledger.Entity, len(op.intents))

	for _, it := range op.intents {
		entity, err := m.store.GetEntity(ctx, it.entityID)

		switch {
		case errors.Is(err, ledger.ErrUnknownEntity):
			return nil, ledger.Reject(ledger.ReasonUnknownEntity), it.entityID, nil

		case err != nil:
			return nil, ledger.ValidationResult{}, "", err
		}

		if !entity.Active {
			return nil, ledger.Reject(ledger.ReasonUnknownEntity), it.entityID, nil
		}

		if entity.Kind != op.requiredKind {
			return nil, ledger.Reject(ledger.ReasonConsistencyViolation), it.entityID, nil
		}

		validation := ledger.ValidateDelta(entity.Value, tx.StagedDeltaSum(it.entityID).Add(it.delta), entity.Kind)
		if !validation.Accepted {
			return nil, validation, it.entityID, nil
		}

		if _, ok := entitiesBefore[it.entityID]; !ok {
			entitiesBefore[it.entityID] = entity
		}

		_ = tx.Stage(it.entityID, it.delta, op.operationType)
	}

	return entitiesBefore, ledger.Accept(), "", nil
}

// applyDeltas applies every staged delta in staging order, collecting the
// resulting values. On the first failure it returns the error together with
// the count of deltas applied so far, so the caller can undo exactly those.
func (m *TransactionManager) applyDeltas(ctx context.Context, tx *ledger.Transaction) (
	map[string]decimal.Decimal,
	int,
	error,
) {

	resultingValues := make(map[string]decimal.Decimal, len(tx.Operations()))

	for i, staged := range tx.Operations() {
		newValue, err := m.store.ApplyDelta(ctx, staged.EntityID, staged.Delta)
		if err != nil {
			return resultingValues, i, errors.Join(ledger.ErrApplyingDeltaFailed, err)
		}

		resultingValues[staged.EntityID] = newValue
	}

	return resultingValues, len(tx.Operations()), nil
}

// undoAndFail reverts the already-applied prefix of the transaction's deltas
// in reverse order and surfaces a persistence failure. If the undo itself
// fails the manager halts: no further writes are accepted until an operator
// has recovered the store, a silently inconsistent store would be worse.
func (m *TransactionManager) undoAndFail(
	ctx context.Context,
	tx *ledger.Transaction,
	op operation,
	applied []ledger.StagedOperation,
	cause error,
) (ledger.TransactionResult, error) {

	if m.logger != nil {
		m.logger.Error(
			logMsgPersistenceFailure,
			logAttrTransactionID, tx.ID().String(),
			logAttrOperationType, string(op.operationType),
			logAttrError, cause.Error())
	}

	for i := len(applied) - 1; i >= 0; i-- {
		if _, undoErr := m.store.ApplyDelta(ctx, applied[i].EntityID, applied[i].Delta.Neg()); undoErr != nil {
			m.halted.Store(true)

			if m.logger != nil {
				m.logger.Error(
					logMsgUndoFailedHalting,
					logAttrTransactionID, tx.ID().String(),
					logAttrEntityID, applied[i].EntityID,
					logAttrError, undoErr.Error())
			}

			halted := errors.Join(ErrWritesHalted, cause, undoErr)

			return ledger.PersistenceFailureResult(tx.ID(), halted), halted
		}
	}

	_ = tx.MarkAborted()

	if m.logger != nil {
		m.logger.Warn(
			logMsgDeltasUndone,
			logAttrTransactionID, tx.ID().String(),
			logAttrOperationType, string(op.operationType))
	}

	return ledger.PersistenceFailureResult(tx.ID(), cause), cause
}

// abortRejected finalizes the transaction as Aborted for an expected
// validation failure and builds the structured result.
func (m *TransactionManager) abortRejected(
	tx *ledger.Transaction,
	op operation,
	validation ledger.ValidationResult,
	entityID string,
	start time.Time,
) ledger.TransactionResult {

	_ = tx.MarkAborted()

	m.logAborted(tx, op, validation.Reason.String(), entityID)
	m.recordOutcome(op, outcomeAborted, start)

	return ledger.RejectedResult(tx.ID(), validation, entityID)
}

// emitThresholdNotifications notifies when a successful commit moved an
// entity's value from at-or-above its MinThreshold to below it. Non-fatal by
// contract, the commit already happened.
func (m *TransactionManager) emitThresholdNotifications(
	ctx context.Context,
	entitiesBefore map[string]ledger.Entity,
	resultingValues map[string]decimal.Decimal,
	occurredAt time.Time,
) {

	if m.notifier == nil {
		return
	}

	for entityID, entity := range entitiesBefore {
		newValue, ok := resultingValues[entityID]
		if !ok {
			continue
		}

		if !entity.MinThreshold.IsPositive() {
			continue // threshold of zero disables the warning
		}

		crossedDownward := entity.Value.GreaterThanOrEqual(entity.MinThreshold) &&
			newValue.LessThan(entity.MinThreshold)

		if crossedDownward {
			m.notifier.ThresholdCrossed(ctx, ledger.ThresholdNotification{
				EntityID:     entityID,
				EntityName:   entity.Name,
				Kind:         entity.Kind,
				CurrentValue: newValue,
				MinThreshold: entity.MinThreshold,
				OccurredAt:   occurredAt,
			})
		}
	}
}

// canonicalLockOrder returns the sorted, deduplicated entity ids of the
// operation's intents. Sorting establishes the canonical lock acquisition
// order that makes multi-entity transactions deadlock-free.
func canonicalLockOrder(intents []intent) []string {
	entityIDs := make([]string, 0, len(intents))

	for _, it := range intents {
		entityIDs = append(entityIDs, it.entityID)
	}

	slices.Sort(entityIDs)

	return slices.Compact(entityIDs)
}

/***** observability helpers *****/

func (m *TransactionManager) startSpan(ctx context.Context, op operation) (context.Context, ledger.SpanContext) {
	if m.tracing == nil {
		return ctx, nil
	}

	return m.tracing.StartSpan(
		ctx,
		spanNamePrefix+string(op.operationType),
		map[string]string{spanAttrOperation: string(op.operationType)})
}

func (m *TransactionManager) finishSpan(span ledger.SpanContext, status string) {
	if m.tracing == nil || span == nil {
		return
	}

	m.tracing.FinishSpan(span, status, nil)
}

func (m *TransactionManager) recordOutcome(op operation, outcome string, start time.Time) {
	if m.metrics == nil {
		return
	}

	labels := map[string]string{
		labelOperation: string(op.operationType),
		labelOutcome:   outcome,
	}

	m.metrics.RecordDuration(metricOperationDuration, time.Since(start), labels)

	if outcome == outcomeCommitted {
		m.metrics.IncrementCounter(metricCommitsTotal, labels)
	} else {
		m.metrics.IncrementCounter(metricAbortsTotal, labels)
	}
}

func (m *TransactionManager) logCommitted(tx *ledger.Transaction, op operation, entryCount int, start time.Time) {
	if m.logger == nil {
		return
	}

	m.logger.Info(
		logMsgTransactionCommitted,
		logAttrTransactionID, tx.ID().String(),
		logAttrOperationType, string(op.operationType),
		logAttrEntryCount, entryCount,
		logAttrDurationMS, durationToMilliseconds(time.Since(start)))
}

func (m *TransactionManager) logAborted(tx *ledger.Transaction, op operation, reason string, entityID string) {
	if m.logger == nil {
		return
	}

	m.logger.Info(
		logMsgTransactionAborted,
		logAttrTransactionID, tx.ID().String(),
		logAttrOperationType, string(op.operationType),
		logAttrReason, reason,
		logAttrEntityID, entityID)
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

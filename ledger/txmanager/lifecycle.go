package txmanager

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

// CreateAccount creates a new account entity and records its creation in the
// ledger. A positive opening balance is part of the same create entry.
func (m *TransactionManager) CreateAccount(
	ctx context.Context,
	accountID string,
	name string,
	openingBalance decimal.Decimal,
	minThreshold decimal.Decimal,
) (ledger.TransactionResult, error) {

	entity, buildErr := ledger.BuildAccount(accountID, name, openingBalance, minThreshold, m.clock())
	if buildErr != nil {
		tx := ledger.BeginTransaction(uuid.New())
		_ = tx.MarkAborted()

		return ledger.RejectedResult(tx.ID(), rejectionForFactoryError(buildErr), accountID), nil
	}

	return m.createEntity(ctx, entity)
}

// CreateStockItem creates a new stock item entity and records its creation in
// the ledger. Initial stock is additionally recorded as a purchase entry of
// the same transaction, so valuation reports see it as supplied inventory.
func (m *TransactionManager) CreateStockItem(
	ctx context.Context,
	itemID string,
	name string,
	initialStock decimal.Decimal,
	unitPrice decimal.Decimal,
	minThreshold decimal.Decimal,
) (ledger.TransactionResult, error) {

	entity, buildErr := ledger.BuildStockItem(itemID, name, initialStock, unitPrice, minThreshold, m.clock())
	if buildErr != nil {
		tx := ledger.BeginTransaction(uuid.New())
		_ = tx.MarkAborted()

		return ledger.RejectedResult(tx.ID(), rejectionForFactoryError(buildErr), itemID), nil
	}

	return m.createEntity(ctx, entity)
}

// Deactivate logically deactivates an entity. Entities are never physically
// deleted while referenced by ledger history; deactivation is refused with a
// ConsistencyViolation while the entity still holds value.
func (m *TransactionManager) Deactivate(ctx context.Context, entityID string) (ledger.TransactionResult, error) {
	tx := ledger.BeginTransaction(uuid.New())

	if m.halted.Load() {
		return ledger.PersistenceFailureResult(tx.ID(), ErrWritesHalted), ErrWritesHalted
	}

	release, _, lockErr := m.locks.acquire(ctx, []string{entityID}, m.lockTimeout)
	if lockErr != nil {
		_ = tx.MarkAborted()

		if errors.Is(lockErr, ErrLockTimeout) {
			return ledger.LockTimeoutResult(tx.ID(), entityID), nil
		}

		return ledger.TransactionResult{Success: false, TransactionID: tx.ID()}, lockErr
	}
	defer release()

	entity, getErr := m.store.GetEntity(ctx, entityID)

	switch {
	case errors.Is(getErr, ledger.ErrUnknownEntity):
		_ = tx.MarkAborted()
		return ledger.RejectedResult(tx.ID(), ledger.Reject(ledger.ReasonUnknownEntity), entityID), nil

	case getErr != nil:
		_ = tx.MarkAborted()
		return ledger.PersistenceFailureResult(tx.ID(), getErr), getErr
	}

	if !entity.Active {
		_ = tx.MarkAborted()
		return ledger.RejectedResult(tx.ID(), ledger.Reject(ledger.ReasonUnknownEntity), entityID), nil
	}

	if !entity.Value.IsZero() {
		// remaining value would vanish from the books
		_ = tx.MarkAborted()
		return ledger.RejectedResult(tx.ID(), ledger.Reject(ledger.ReasonConsistencyViolation), entityID), nil
	}

	writeCtx := context.WithoutCancel(ctx)

	if err := m.store.DeactivateEntity(writeCtx, entityID); err != nil {
		_ = tx.MarkAborted()
		return ledger.PersistenceFailureResult(tx.ID(), err), err
	}

	entry, buildErr := ledger.BuildLedgerEntry(
		tx.ID(),
		ledger.OperationTypeDeactivate,
		m.clock(),
		[]string{entityID},
		decimal.Zero,
		map[string]decimal.Decimal{entityID: entity.Value},
	)
	if buildErr != nil {
		return m.haltAfterUnrecoverableCreate(tx, entityID, buildErr)
	}

	committed, appendErr := m.auditLog.AppendEntries(writeCtx, entry)
	if appendErr != nil {
		// deactivation cannot be compensated, the store has no re-activate
		return m.haltAfterUnrecoverableCreate(tx, entityID, errors.Join(ledger.ErrAppendingEntriesFailed, appendErr))
	}

	_ = tx.MarkCommitted()
	m.logLifecycleCommitted(tx, ledger.OperationTypeDeactivate, entityID)

	return ledger.CommittedResult(tx.ID(), committed...), nil
}

// createEntity runs the create protocol shared by CreateAccount and
// CreateStockItem: lock the new id, insert, append the create entry (plus a
// purchase entry for initial stock), commit. On append failure the inserted
// entity is compensated by deactivating it again.
func (m *TransactionManager) createEntity(ctx context.Context, entity ledger.Entity) (ledger.TransactionResult, error) {
	tx := ledger.BeginTransaction(uuid.New())

	if m.halted.Load() {
		return ledger.PersistenceFailureResult(tx.ID(), ErrWritesHalted), ErrWritesHalted
	}

	release, _, lockErr := m.locks.acquire(ctx, []string{entity.ID}, m.lockTimeout)
	if lockErr != nil {
		_ = tx.MarkAborted()

		if errors.Is(lockErr, ErrLockTimeout) {
			return ledger.LockTimeoutResult(tx.ID(), entity.ID), nil
		}

		return ledger.TransactionResult{Success: false, TransactionID: tx.ID()}, lockErr
	}
	defer release()

	writeCtx := context.WithoutCancel(ctx)

	insertErr := m.store.InsertEntity(writeCtx, entity)

	switch {
	case errors.Is(insertErr, ledger.ErrEntityAlreadyExists):
		_ = tx.MarkAborted()
		return ledger.RejectedResult(tx.ID(), ledger.Reject(ledger.ReasonConsistencyViolation), entity.ID), nil

	case insertErr != nil:
		_ = tx.MarkAborted()
		joined := errors.Join(ledger.ErrStoringEntityFailed, insertErr)

		return ledger.PersistenceFailureResult(tx.ID(), joined), joined
	}

	entries, buildErr := m.buildCreateEntries(tx, entity)
	if buildErr != nil {
		return m.compensateCreate(writeCtx, tx, entity.ID, buildErr)
	}

	committed, appendErr := m.auditLog.AppendEntries(writeCtx, entries...)
	if appendErr != nil {
		return m.compensateCreate(writeCtx, tx, entity.ID, errors.Join(ledger.ErrAppendingEntriesFailed, appendErr))
	}

	_ = tx.MarkCommitted()
	m.logLifecycleCommitted(tx, ledger.OperationTypeCreate, entity.ID)

	return ledger.CommittedResult(tx.ID(), committed...), nil
}

func (m *TransactionManager) buildCreateEntries(tx *ledger.Transaction, entity ledger.Entity) (
	ledger.LedgerEntries,
	error,
) {

	occurredAt := m.clock()
	resultingValues := map[string]decimal.Decimal{entity.ID: entity.Value}

	createEntry, err := ledger.BuildLedgerEntry(
		tx.ID(), ledger.OperationTypeCreate, occurredAt, []string{entity.ID}, entity.Value, resultingValues)
	if err != nil {
		return nil, err
	}

	entries := ledger.LedgerEntries{createEntry}

	if entity.Kind == ledger.KindStockItem && entity.Value.IsPositive() {
		purchaseEntry, buildErr := ledger.BuildLedgerEntry(
			tx.ID(), ledger.OperationTypePurchase, occurredAt, []string{entity.ID}, entity.Value, resultingValues)
		if buildErr != nil {
			return nil, buildErr
		}

		entries = append(entries, purchaseEntry.PricedAt(entity.UnitPrice))
	}

	return entries, nil
}

// compensateCreate undoes an entity insert whose ledger entry could not be
// appended. If the compensation fails the manager halts.
func (m *TransactionManager) compensateCreate(
	ctx context.Context,
	tx *ledger.Transaction,
	entityID string,
	cause error,
) (ledger.TransactionResult, error) {

	if undoErr := m.store.DeactivateEntity(ctx, entityID); undoErr != nil {
		return m.haltAfterUnrecoverableCreate(tx, entityID, errors.Join(cause, undoErr))
	}

	_ = tx.MarkAborted()

	return ledger.PersistenceFailureResult(tx.ID(), cause), cause
}

func (m *TransactionManager) haltAfterUnrecoverableCreate(
	tx *ledger.Transaction,
	entityID string,
	cause error,
) (ledger.TransactionResult, error) {

	m.halted.Store(true)

	if m.logger != nil {
		m.logger.Error(
			logMsgUndoFailedHalting,
			logAttrTransactionID, tx.ID().String(),
			logAttrEntityID, entityID,
			logAttrError, cause.Error())
	}

	halted := errors.Join(ErrWritesHalted, cause)

	return ledger.PersistenceFailureResult(tx.ID(), halted), halted
}

func (m *TransactionManager) logLifecycleCommitted(tx *ledger.Transaction, operationType ledger.OperationType, entityID string) {
	if m.logger == nil {
		return
	}

	m.logger.Info(
		logMsgTransactionCommitted,
		logAttrTransactionID, tx.ID().String(),
		logAttrOperationType, string(operationType),
		logAttrEntityID, entityID)
}

// rejectionForFactoryError maps entity factory errors onto validation reasons.
func rejectionForFactoryError(err error) ledger.ValidationResult {
	switch {
	case errors.Is(err, ledger.ErrNegativeOpeningValue),
		errors.Is(err, ledger.ErrNegativeUnitPrice),
		errors.Is(err, ledger.ErrNegativeMinThreshold):
		return ledger.Reject(ledger.ReasonInvalidAmount)

	default:
		return ledger.Reject(ledger.ReasonConsistencyViolation)
	}
}

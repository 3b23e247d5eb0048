package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	defaultEntityTableName = "entities"
	defaultLedgerTableName = "ledger_entries"

	logMsgBuildQueryFailed     = "failed to build query"
	logMsgDBQueryFailed        = "database query execution failed"
	logMsgDBExecFailed         = "database execution failed"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgScanRowFailed        = "failed to scan database row"
	logMsgBuildEntryFailed     = "failed to build ledger entry from database row"
	logMsgRowsAffectedFailed   = "failed to get rows affected count"
	logMsgEntriesQueried       = "ledger entries queried"
	logMsgEntriesAppended      = "ledger entries appended"
	logMsgSQLExecuted          = "executed sql for: "
	logMsgOperation            = "ledger store operation: "
	logAttrError               = "error"
	logAttrQuery               = "query"
	logAttrEntryCount          = "entry_count"
	logAttrDurationMS          = "duration_ms"
	logActionQuery             = "query"
	logActionExec              = "exec"
	metricStoreDuration        = "ledgerstore_operation_duration"
	metricStoreErrors          = "ledgerstore_errors_total"
	metricEntriesAppended      = "ledgerstore_entries_appended"
	metricEntriesQueried       = "ledgerstore_entries_queried"
	metricLabelOperation       = "operation"
	metricOperationGet         = "get_entity"
	metricOperationList        = "list_entities"
	metricOperationInsert      = "insert_entity"
	metricOperationDeactivate  = "deactivate_entity"
	metricOperationApplyDelta  = "apply_delta"
	metricOperationAppend      = "append_entries"
	metricOperationQueryLedger = "query_entries"

	colEntityID        = "entity_id"
	colKind            = "kind"
	colName            = "name"
	colValue           = "value"
	colUnitPrice       = "unit_price"
	colMinThreshold    = "min_threshold"
	colActive          = "active"
	colCreatedAt       = "created_at"
	colEntryID         = "entry_id"
	colTransactionID   = "transaction_id"
	colOccurredAt      = "occurred_at"
	colOperationType   = "operation_type"
	colEntityIDs       = "entity_ids"
	colAmount          = "amount"
	colResultingValues = "resulting_values"

	dialectPostgres = "postgres"
	castNumeric     = "?::numeric"
	castJsonb       = "?::jsonb"
	jsonContains    = `%s @> '[%q]'`
)

type (
	sqlQueryString = string
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the PostgreSQL implementation of the entity store and the
// append-only ledger. It leverages a database adapter and supports
// customizable logging and table configuration.
type Store struct {
	db               adapters.DBAdapter
	entityTableName  string
	ledgerTableName  string
	logger           ledger.Logger
	contextualLogger ledger.ContextualLogger
	metricsCollector ledger.MetricsCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolWithReplica creates a new Store using a primary pgx Pool
// for writes and a replica Pool for read-only queries. Mutating statements,
// including UPDATE/INSERT ... RETURNING, always run on the primary.
func NewStoreFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil || replica == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ledger.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	s := Store{
		db:              db,
		entityTableName: defaultEntityTableName,
		ledgerTableName: defaultLedgerTableName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

/***** entity store *****/

// GetEntity returns the current state of the entity with the given id,
// including deactivated entities. It returns ledger.ErrUnknownEntity when no
// such entity exists.
func (s Store) GetEntity(ctx context.Context, entityID string) (ledger.Entity, error) {
	defer s.observeDuration(metricOperationGet, time.Now())

	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.entityTableName).
		Select(colEntityID, colKind, colName, colValue, colUnitPrice, colMinThreshold, colActive, colCreatedAt).
		Where(goqu.Ex{colEntityID: entityID})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return ledger.Entity{}, s.buildQueryError(toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return ledger.Entity{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return ledger.Entity{}, ledger.ErrUnknownEntity
	}

	entity, scanErr := s.scanEntity(rows)
	if scanErr != nil {
		return ledger.Entity{}, scanErr
	}

	return entity, nil
}

// ListEntities returns every active entity of the given kind ordered by id.
// An empty kind returns active entities of every kind.
func (s Store) ListEntities(ctx context.Context, kind ledger.EntityKind) ([]ledger.Entity, error) {
	defer s.observeDuration(metricOperationList, time.Now())

	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.entityTableName).
		Select(colEntityID, colKind, colName, colValue, colUnitPrice, colMinThreshold, colActive, colCreatedAt).
		Where(goqu.Ex{colActive: true}).
		Order(goqu.I(colEntityID).Asc())

	if kind != "" {
		selectStmt = selectStmt.Where(goqu.Ex{colKind: string(kind)})
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, s.buildQueryError(toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	entities := make([]ledger.Entity, 0)

	for rows.Next() {
		entity, scanErr := s.scanEntity(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

// InsertEntity stores a new entity. It returns ledger.ErrEntityAlreadyExists
// when an entity with the same id is already stored, active or not.
func (s Store) InsertEntity(ctx context.Context, entity ledger.Entity) error {
	defer s.observeDuration(metricOperationInsert, time.Now())

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.entityTableName).
		Cols(colEntityID, colKind, colName, colValue, colUnitPrice, colMinThreshold, colActive, colCreatedAt).
		Vals(goqu.Vals{
			entity.ID,
			string(entity.Kind),
			entity.Name,
			goqu.L(castNumeric, entity.Value.String()),
			goqu.L(castNumeric, entity.UnitPrice.String()),
			goqu.L(castNumeric, entity.MinThreshold.String()),
			entity.Active,
			entity.CreatedAt,
		}).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return s.buildQueryError(toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery)
	if execErr != nil {
		return errors.Join(ledger.ErrStoringEntityFailed, execErr)
	}

	if rowsAffected == 0 {
		return ledger.ErrEntityAlreadyExists
	}

	return nil
}

// DeactivateEntity marks an active entity as inactive. It returns
// ledger.ErrUnknownEntity when no active entity with the given id exists.
func (s Store) DeactivateEntity(ctx context.Context, entityID string) error {
	defer s.observeDuration(metricOperationDeactivate, time.Now())

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.entityTableName).
		Set(goqu.Record{colActive: false}).
		Where(goqu.Ex{colEntityID: entityID, colActive: true})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return s.buildQueryError(toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery)
	if execErr != nil {
		return errors.Join(ledger.ErrStoringEntityFailed, execErr)
	}

	if rowsAffected == 0 {
		return ledger.ErrUnknownEntity
	}

	return nil
}

// ApplyDelta adds delta to the value of an active entity and returns the
// resulting value. It returns ledger.ErrUnknownEntity when no active entity
// with the given id exists. Consistency checks happen before this is called;
// the store itself applies plain arithmetic.
func (s Store) ApplyDelta(ctx context.Context, entityID string, delta decimal.Decimal) (decimal.Decimal, error) {
	defer s.observeDuration(metricOperationApplyDelta, time.Now())

	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.entityTableName).
		Set(goqu.Record{colValue: goqu.L("? + ?::numeric", goqu.C(colValue), delta.String())}).
		Where(goqu.Ex{colEntityID: entityID, colActive: true}).
		Returning(colValue)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return decimal.Zero, s.buildQueryError(toSQLErr)
	}

	rows, queryErr := s.executeReturning(ctx, sqlQuery)
	if queryErr != nil {
		return decimal.Zero, errors.Join(ledger.ErrApplyingDeltaFailed, queryErr)
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return decimal.Zero, ledger.ErrUnknownEntity
	}

	var newValue decimal.Decimal
	if scanErr := rows.Scan(&newValue); scanErr != nil {
		return decimal.Zero, s.scanRowError(scanErr)
	}

	return newValue, nil
}

/***** ledger *****/

// AppendEntries appends the given entries to the ledger atomically. The
// database assigns the strictly increasing entry ids; the returned copies
// carry them. Committed entries are never updated or deleted.
func (s Store) AppendEntries(ctx context.Context, entries ...ledger.LedgerEntry) (ledger.LedgerEntries, error) {
	defer s.observeDuration(metricOperationAppend, time.Now())

	if len(entries) == 0 {
		return ledger.LedgerEntries{}, nil
	}

	sqlQuery, buildErr := s.buildAppendQuery(entries)
	if buildErr != nil {
		return nil, buildErr
	}

	start := time.Now()
	rows, queryErr := s.db.QueryReturning(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionExec, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBExecFailed, queryErr, sqlQuery)
		s.countError(metricOperationAppend)

		return nil, errors.Join(ledger.ErrAppendingEntriesFailed, queryErr)
	}
	defer s.closeRows(rows)

	appended := make(ledger.LedgerEntries, 0, len(entries))

	for _, entry := range entries {
		if !rows.Next() {
			s.countError(metricOperationAppend)
			return nil, ledger.ErrAppendingEntriesFailed
		}

		var entryID int64
		if scanErr := rows.Scan(&entryID); scanErr != nil {
			return nil, s.scanRowError(scanErr)
		}

		entry.EntryID = ledger.EntryIDUint64(entryID)
		appended = append(appended, entry)
	}

	s.logOperation(
		ctx,
		logMsgEntriesAppended,
		logAttrEntryCount, len(appended),
		logAttrDurationMS, s.durationToMilliseconds(duration))
	s.recordValue(metricEntriesAppended, float64(len(appended)), metricOperationAppend)

	return appended, nil
}

// QueryEntries retrieves committed ledger entries matching the filter
// criteria, ordered by entry id ascending.
func (s Store) QueryEntries(ctx context.Context, filter ledger.EntryFilter) (ledger.LedgerEntries, error) {
	defer s.observeDuration(metricOperationQueryLedger, time.Now())

	sqlQuery, buildErr := s.buildSelectEntriesQuery(filter)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, errors.Join(ledger.ErrQueryingEntriesFailed, queryErr)
	}
	defer s.closeRows(rows)

	entries := make(ledger.LedgerEntries, 0)

	for rows.Next() {
		entry, scanErr := s.scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		entries = append(entries, entry)
	}

	s.logOperation(ctx, logMsgEntriesQueried, logAttrEntryCount, len(entries))
	s.recordValue(metricEntriesQueried, float64(len(entries)), metricOperationQueryLedger)

	return entries, nil
}

/***** query building *****/

func (s Store) buildAppendQuery(entries ledger.LedgerEntries) (sqlQueryString, error) {
	rows := make([][]interface{}, 0, len(entries))

	for _, entry := range entries {
		entityIDsJSON, marshalErr := json.Marshal(entry.EntityIDs)
		if marshalErr != nil {
			return "", s.buildQueryError(marshalErr)
		}

		resultingValuesJSON, marshalErr := json.Marshal(entry.ResultingValues)
		if marshalErr != nil {
			return "", s.buildQueryError(marshalErr)
		}

		rows = append(rows, goqu.Vals{
			entry.TransactionID.String(),
			entry.OccurredAt,
			string(entry.OperationType),
			goqu.L(castJsonb, string(entityIDsJSON)),
			goqu.L(castNumeric, entry.Amount.String()),
			goqu.L(castNumeric, entry.UnitPrice.String()),
			goqu.L(castJsonb, string(resultingValuesJSON)),
		})
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.ledgerTableName).
		Cols(colTransactionID, colOccurredAt, colOperationType, colEntityIDs, colAmount, colUnitPrice, colResultingValues).
		Vals(rows...).
		Returning(colEntryID)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", s.buildQueryError(toSQLErr)
	}

	return sqlQuery, nil
}

func (s Store) buildSelectEntriesQuery(filter ledger.EntryFilter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.ledgerTableName).
		Select(colEntryID, colTransactionID, colOccurredAt, colOperationType, colEntityIDs, colAmount, colUnitPrice, colResultingValues).
		Order(goqu.I(colEntryID).Asc())

	selectStmt = s.addEntryWhereClause(filter, selectStmt)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", s.buildQueryError(toSQLErr)
	}

	return sqlQuery, nil
}

func (s Store) addEntryWhereClause(filter ledger.EntryFilter, selectStmt *goqu.SelectDataset) *goqu.SelectDataset {
	if operationTypes := filter.OperationTypes(); len(operationTypes) > 0 {
		typeExpressions := make([]goqu.Expression, 0, len(operationTypes))

		for _, operationType := range operationTypes {
			typeExpressions = append(typeExpressions, goqu.Ex{colOperationType: string(operationType)})
		}

		selectStmt = selectStmt.Where(goqu.Or(typeExpressions...))
	}

	if entityIDs := filter.EntityIDs(); len(entityIDs) > 0 {
		// any-of semantics: the jsonb array of involved ids must contain one of them
		idExpressions := make([]goqu.Expression, 0, len(entityIDs))

		for _, entityID := range entityIDs {
			idExpressions = append(idExpressions, goqu.L(fmt.Sprintf(jsonContains, colEntityIDs, entityID)))
		}

		selectStmt = selectStmt.Where(goqu.Or(idExpressions...))
	}

	if !filter.OccurredFrom().IsZero() {
		selectStmt = selectStmt.Where(goqu.C(colOccurredAt).Gte(filter.OccurredFrom()))
	}

	if !filter.OccurredUntil().IsZero() {
		selectStmt = selectStmt.Where(goqu.C(colOccurredAt).Lte(filter.OccurredUntil()))
	}

	return selectStmt
}

/***** row scanning *****/

func (s Store) scanEntity(rows adapters.DBRows) (ledger.Entity, error) {
	var entity ledger.Entity
	var kind string

	scanErr := rows.Scan(
		&entity.ID,
		&kind,
		&entity.Name,
		&entity.Value,
		&entity.UnitPrice,
		&entity.MinThreshold,
		&entity.Active,
		&entity.CreatedAt,
	)
	if scanErr != nil {
		return ledger.Entity{}, s.scanRowError(scanErr)
	}

	entity.Kind = ledger.EntityKind(kind)

	return entity, nil
}

func (s Store) scanEntry(rows adapters.DBRows) (ledger.LedgerEntry, error) {
	var entryID int64
	var transactionID uuid.UUID
	var occurredAt time.Time
	var operationType string
	var entityIDsJSON []byte
	var amount decimal.Decimal
	var unitPrice decimal.Decimal
	var resultingValuesJSON []byte

	scanErr := rows.Scan(
		&entryID, &transactionID, &occurredAt, &operationType,
		&entityIDsJSON, &amount, &unitPrice, &resultingValuesJSON)
	if scanErr != nil {
		return ledger.LedgerEntry{}, s.scanRowError(scanErr)
	}

	var entityIDs []string
	if unmarshalErr := json.Unmarshal(entityIDsJSON, &entityIDs); unmarshalErr != nil {
		return ledger.LedgerEntry{}, s.buildEntryError(unmarshalErr, operationType)
	}

	resultingValues := make(map[string]decimal.Decimal)
	if unmarshalErr := json.Unmarshal(resultingValuesJSON, &resultingValues); unmarshalErr != nil {
		return ledger.LedgerEntry{}, s.buildEntryError(unmarshalErr, operationType)
	}

	entry, buildErr := ledger.BuildLedgerEntry(
		transactionID, ledger.OperationType(operationType), occurredAt, entityIDs, amount, resultingValues)
	if buildErr != nil {
		return ledger.LedgerEntry{}, s.buildEntryError(buildErr, operationType)
	}

	entry.EntryID = ledger.EntryIDUint64(entryID)

	return entry.PricedAt(unitPrice), nil
}

/***** execution and logging helpers *****/

func (s Store) executeQuery(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, sqlQuery)
		return nil, errors.Join(ledger.ErrQueryingEntriesFailed, queryErr)
	}

	return rows, nil
}

// executeReturning runs a mutating statement with a RETURNING clause. It goes
// through the adapter's primary-only path so replicas never receive writes.
func (s Store) executeReturning(ctx context.Context, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.db.QueryReturning(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionExec, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBExecFailed, queryErr, sqlQuery)
		return nil, queryErr
	}

	return rows, nil
}

func (s Store) executeStatement(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, logActionExec, duration)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, sqlQuery)
		return 0, execErr
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr, sqlQuery)
		return 0, rowsAffectedErr
	}

	return rowsAffected, nil
}

func (s Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (s Store) buildQueryError(cause error) error {
	if s.logger != nil {
		s.logger.Error(logMsgBuildQueryFailed, logAttrError, cause.Error())
	}

	return errors.Join(ledger.ErrBuildingQueryFailed, cause)
}

func (s Store) scanRowError(cause error) error {
	if s.logger != nil {
		s.logger.Error(logMsgScanRowFailed, logAttrError, cause.Error())
	}

	return errors.Join(ledger.ErrScanningDBRowFailed, cause)
}

func (s Store) buildEntryError(cause error, operationType string) error {
	if s.logger != nil {
		s.logger.Error(logMsgBuildEntryFailed, logAttrError, cause.Error(), logAttrQuery, operationType)
	}

	return errors.Join(ledger.ErrScanningDBRowFailed, cause)
}

// logError logs error information, preferring the contextual logger for trace
// correlation when one is configured.
func (s Store) logError(ctx context.Context, msg string, cause error, sqlQuery string) {
	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, logAttrError, cause.Error(), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, logAttrError, cause.Error(), logAttrQuery, sqlQuery)
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level,
// preferring the contextual logger when one is configured.
func (s Store) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, s.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level, preferring the
// contextual logger when one is configured.
func (s Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

func (s Store) observeDuration(operation string, start time.Time) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(
			metricStoreDuration,
			time.Since(start),
			map[string]string{metricLabelOperation: operation})
	}
}

func (s Store) countError(operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(
			metricStoreErrors,
			map[string]string{metricLabelOperation: operation})
	}
}

// recordValue records gauge-style metrics such as entry counts per operation.
func (s Store) recordValue(metric string, value float64, operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.RecordValue(
			metric,
			value,
			map[string]string{metricLabelOperation: operation})
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s Store) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

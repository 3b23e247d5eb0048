package memoryengine

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

const (
	logMsgEntryAppended     = "ledger entry appended"
	logMsgEntityInserted    = "entity inserted"
	logMsgEntityDeactivated = "entity deactivated"
	logAttrEntryID          = "entry_id"
	logAttrEntityID         = "entity_id"
	logAttrOperationType    = "operation_type"
)

// Store is the in-memory entity store and append-only ledger.
//
// Entity values and the ledger tail are the only shared mutable state; a
// store-wide mutex guards them so every single store operation is atomic with
// respect to concurrent readers. Business validation is not the store's job,
// ApplyDelta performs plain arithmetic only.
type Store struct {
	mu          sync.RWMutex
	entities    map[string]ledger.Entity
	entries     ledger.LedgerEntries
	nextEntryID ledger.EntryIDUint64
	logger      ledger.Logger
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates a new empty in-memory Store with optional configuration.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{
		entities:    make(map[string]ledger.Entity),
		nextEntryID: 1,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// GetEntity returns the current state of the entity with the given id,
// including logically deactivated ones. Returns ledger.ErrUnknownEntity if
// the id was never created.
func (s *Store) GetEntity(_ context.Context, entityID string) (ledger.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.entities[entityID]
	if !ok {
		return ledger.Entity{}, ledger.ErrUnknownEntity
	}

	return entity, nil
}

// ListEntities returns all active entities of the given kind, sorted by id.
// An empty kind matches every kind.
func (s *Store) ListEntities(_ context.Context, kind ledger.EntityKind) ([]ledger.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]ledger.Entity, 0)

	for _, entity := range s.entities {
		if !entity.Active {
			continue
		}

		if kind != "" && entity.Kind != kind {
			continue
		}

		entities = append(entities, entity)
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].ID < entities[j].ID
	})

	return entities, nil
}

// InsertEntity stores a newly created entity.
// Returns ledger.ErrEntityAlreadyExists if the id is already taken.
func (s *Store) InsertEntity(_ context.Context, entity ledger.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities[entity.ID]; ok {
		return ledger.ErrEntityAlreadyExists
	}

	s.entities[entity.ID] = entity

	if s.logger != nil {
		s.logger.Info(logMsgEntityInserted, logAttrEntityID, entity.ID)
	}

	return nil
}

// DeactivateEntity marks the entity as inactive. The entity is never removed,
// its ledger history stays referenceable forever.
// Returns ledger.ErrUnknownEntity if the id was never created.
func (s *Store) DeactivateEntity(_ context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[entityID]
	if !ok {
		return ledger.ErrUnknownEntity
	}

	entity.Active = false
	s.entities[entityID] = entity

	if s.logger != nil {
		s.logger.Info(logMsgEntityDeactivated, logAttrEntityID, entityID)
	}

	return nil
}

// ApplyDelta atomically adds delta to the entity's current value and returns
// the new value. It performs no business validation; consistency checking
// happens before any delta is applied.
// Returns ledger.ErrUnknownEntity if the id is unknown or deactivated.
func (s *Store) ApplyDelta(_ context.Context, entityID string, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[entityID]
	if !ok || !entity.Active {
		return decimal.Zero, ledger.ErrUnknownEntity
	}

	entity.Value = entity.Value.Add(delta)
	s.entities[entityID] = entity

	return entity.Value, nil
}

// AppendEntries appends the given entries to the ledger, assigning strictly
// increasing entry ids in commit order, and returns the committed entries
// with their ids set. Entries are stored as copies, the committed history can
// never be altered through a retained or queried entry.
func (s *Store) AppendEntries(_ context.Context, entries ...ledger.LedgerEntry) (ledger.LedgerEntries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := make(ledger.LedgerEntries, 0, len(entries))

	for _, entry := range entries {
		entry.EntryID = s.nextEntryID
		s.nextEntryID++

		s.entries = append(s.entries, copyEntry(entry))
		committed = append(committed, copyEntry(entry))

		if s.logger != nil {
			s.logger.Info(
				logMsgEntryAppended,
				logAttrEntryID, entry.EntryID,
				logAttrOperationType, string(entry.OperationType))
		}
	}

	return committed, nil
}

// QueryEntries returns copies of all committed entries matching the filter,
// in entry id order. The scan is finite and restartable; a fresh call
// re-scans from the filter with no hidden cursor state.
func (s *Store) QueryEntries(_ context.Context, filter ledger.EntryFilter) (ledger.LedgerEntries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matching := make(ledger.LedgerEntries, 0)

	for _, entry := range s.entries {
		if filter.Matches(entry) {
			matching = append(matching, copyEntry(entry))
		}
	}

	return matching, nil
}

// copyEntry deep-copies the slice and map fields so that stored and returned
// entries never share mutable state with the caller.
func copyEntry(entry ledger.LedgerEntry) ledger.LedgerEntry {
	entityIDs := make([]string, len(entry.EntityIDs))
	copy(entityIDs, entry.EntityIDs)

	resultingValues := make(map[string]decimal.Decimal, len(entry.ResultingValues))
	for entityID, value := range entry.ResultingValues {
		resultingValues[entityID] = value
	}

	entry.EntityIDs = entityIDs
	entry.ResultingValues = resultingValues

	return entry
}

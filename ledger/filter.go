package ledger

import (
	"slices"
	"time"
)

/***** EntryFilter *****/

// EntryFilter defines the criteria for querying committed ledger entries.
//
// A zero filter matches every entry. It should only be constructed through
// BuildEntryFilter; queries against a filter are finite and restartable, a
// fresh query call re-scans from the filter with no hidden cursor state.
type EntryFilter struct {
	operationTypes []OperationType
	entityIDs      []string
	occurredFrom   time.Time
	occurredUntil  time.Time
}

func (f EntryFilter) OperationTypes() []OperationType {
	return f.operationTypes
}

func (f EntryFilter) EntityIDs() []string {
	return f.entityIDs
}

func (f EntryFilter) OccurredFrom() time.Time {
	return f.occurredFrom
}

func (f EntryFilter) OccurredUntil() time.Time {
	return f.occurredUntil
}

// Matches reports whether the given entry satisfies every criterion of the filter.
// Storage engines that can push the criteria into their query language are free
// to do so instead of calling this.
func (f EntryFilter) Matches(entry LedgerEntry) bool {
	if len(f.operationTypes) > 0 && !slices.Contains(f.operationTypes, entry.OperationType) {
		return false
	}

	if len(f.entityIDs) > 0 {
		anyMatch := false

		for _, entityID := range f.entityIDs {
			if slices.Contains(entry.EntityIDs, entityID) {
				anyMatch = true
				break
			}
		}

		if !anyMatch {
			return false
		}
	}

	if !f.occurredFrom.IsZero() && entry.OccurredAt.Before(f.occurredFrom) {
		return false
	}

	if !f.occurredUntil.IsZero() && entry.OccurredAt.After(f.occurredUntil) {
		return false
	}

	return true
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic entry filter to be used in store-specific
// ledger implementations to build queries for the specific query language,
// e.g.: in-memory matching, Postgres, ...
// It is designed with the idea to only allow "useful" filter combinations:
//
//   - empty filter
//   - (operationType OR operationType...)
//   - (entityID OR entityID...)
//   - ((operationType OR ...) AND (entityID OR ...))
//   - any of the above AND an occurred-at time range
type FilterBuilder interface {
	// Matching starts building the filter criteria.
	Matching() EmptyFilterBuilder

	// MatchingAnyEntry directly creates an empty EntryFilter.
	MatchingAnyEntry() EntryFilter
}

type EmptyFilterBuilder interface {
	// AnyOperationTypeOf adds one or multiple OperationTypes, expecting ANY of them to match.
	//
	// It sanitizes the input:
	//	- removing empty OperationTypes ("")
	//	- sorting the OperationTypes
	//	- removing duplicate OperationTypes
	AnyOperationTypeOf(operationType OperationType, operationTypes ...OperationType) FilterBuilderLackingEntityIDs

	// AnyEntityIDOf adds one or multiple entity ids, expecting ANY of them to match.
	//
	// It sanitizes the input:
	//	- removing empty entity ids ("")
	//	- sorting the entity ids
	//	- removing duplicate entity ids
	AnyEntityIDOf(entityID string, entityIDs ...string) FilterBuilderLackingOperationTypes
}

type FilterBuilderLackingEntityIDs interface {
	// AndAnyEntityIDOf adds one or multiple entity ids, expecting ANY of them to match.
	AndAnyEntityIDOf(entityID string, entityIDs ...string) CompletedFilterBuilder

	// OccurredFrom restricts the filter to entries at or after the given time.
	OccurredFrom(from time.Time) CompletedFilterBuilder

	// OccurredUntil restricts the filter to entries at or before the given time.
	OccurredUntil(until time.Time) CompletedFilterBuilder

	// Finalize returns the EntryFilter.
	Finalize() EntryFilter
}

type FilterBuilderLackingOperationTypes interface {
	// AndAnyOperationTypeOf adds one or multiple OperationTypes, expecting ANY of them to match.
	AndAnyOperationTypeOf(operationType OperationType, operationTypes ...OperationType) CompletedFilterBuilder

	// OccurredFrom restricts the filter to entries at or after the given time.
	OccurredFrom(from time.Time) CompletedFilterBuilder

	// OccurredUntil restricts the filter to entries at or before the given time.
	OccurredUntil(until time.Time) CompletedFilterBuilder

	// Finalize returns the EntryFilter.
	Finalize() EntryFilter
}

type CompletedFilterBuilder interface {
	// OccurredFrom restricts the filter to entries at or after the given time.
	OccurredFrom(from time.Time) CompletedFilterBuilder

	// OccurredUntil restricts the filter to entries at or before the given time.
	OccurredUntil(until time.Time) CompletedFilterBuilder

	// Finalize returns the EntryFilter.
	Finalize() EntryFilter
}

// filterBuilder implements all the interfaces of FilterBuilder.
type filterBuilder struct {
	filter EntryFilter
}

// BuildEntryFilter creates a FilterBuilder which must eventually be finalized
// with Finalize() or MatchingAnyEntry().
func BuildEntryFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts building the filter criteria.
func (fb filterBuilder) Matching() EmptyFilterBuilder {
	return fb
}

// MatchingAnyEntry directly creates an empty EntryFilter.
func (fb filterBuilder) MatchingAnyEntry() EntryFilter {
	return fb.filter
}

// AnyOperationTypeOf adds one or multiple OperationTypes, expecting ANY of them to match.
func (fb filterBuilder) AnyOperationTypeOf(
	operationType OperationType,
	operationTypes ...OperationType,
) FilterBuilderLackingEntityIDs {

	fb.filter.operationTypes = append(
		fb.filter.operationTypes,
		fb.sanitizeOperationTypes(operationType, operationTypes...)...,
	)

	return fb
}

// AndAnyOperationTypeOf adds one or multiple OperationTypes, expecting ANY of them to match.
func (fb filterBuilder) AndAnyOperationTypeOf(
	operationType OperationType,
	operationTypes ...OperationType,
) CompletedFilterBuilder {

	fb.filter.operationTypes = append(
		fb.filter.operationTypes,
		fb.sanitizeOperationTypes(operationType, operationTypes...)...,
	)

	return fb
}

// AnyEntityIDOf adds one or multiple entity ids, expecting ANY of them to match.
func (fb filterBuilder) AnyEntityIDOf(entityID string, entityIDs ...string) FilterBuilderLackingOperationTypes {
	fb.filter.entityIDs = append(
		fb.filter.entityIDs,
		fb.sanitizeEntityIDs(entityID, entityIDs...)...,
	)

	return fb
}

// AndAnyEntityIDOf adds one or multiple entity ids, expecting ANY of them to match.
func (fb filterBuilder) AndAnyEntityIDOf(entityID string, entityIDs ...string) CompletedFilterBuilder {
	fb.filter.entityIDs = append(
		fb.filter.entityIDs,
		fb.sanitizeEntityIDs(entityID, entityIDs...)...,
	)

	return fb
}

// OccurredFrom restricts the filter to entries at or after the given time.
func (fb filterBuilder) OccurredFrom(from time.Time) CompletedFilterBuilder {
	fb.filter.occurredFrom = from

	return fb
}

// OccurredUntil restricts the filter to entries at or before the given time.
func (fb filterBuilder) OccurredUntil(until time.Time) CompletedFilterBuilder {
	fb.filter.occurredUntil = until

	return fb
}

// Finalize returns the EntryFilter.
func (fb filterBuilder) Finalize() EntryFilter {
	return fb.filter
}

func (fb filterBuilder) sanitizeOperationTypes(
	operationType OperationType,
	operationTypes ...OperationType,
) []OperationType {

	allOperationTypes := append([]OperationType{operationType}, operationTypes...)
	allOperationTypes = slices.DeleteFunc(
		allOperationTypes,
		func(o OperationType) bool {
			return o == ""
		})
	slices.Sort(allOperationTypes)
	allOperationTypes = slices.Compact(allOperationTypes)
	allOperationTypes = slices.Clip(allOperationTypes)

	return allOperationTypes
}

func (fb filterBuilder) sanitizeEntityIDs(entityID string, entityIDs ...string) []string {
	allEntityIDs := append([]string{entityID}, entityIDs...)
	allEntityIDs = slices.DeleteFunc(
		allEntityIDs,
		func(id string) bool {
			return id == ""
		})
	slices.Sort(allEntityIDs)
	allEntityIDs = slices.Compact(allEntityIDs)
	allEntityIDs = slices.Clip(allEntityIDs)

	return allEntityIDs
}

// Package ledger provides the core abstractions and types for an atomic,
// audit-logged mutation engine over shared numeric quantities such as
// account balances and stock levels.
//
// This package defines the fundamental value types and contracts used across
// the storage engines and the transaction manager, including entities,
// ledger entries, transactions, entry filters, validation, and common error
// definitions.
//
// Key types:
//   - Entity: an Account or StockItem holding a non-negative numeric value
//   - LedgerEntry: an immutable record of one committed operation
//   - Transaction: the Pending -> Committed | Aborted mutation scope
//   - ValidationResult: the outcome of a pure consistency check
//   - TransactionResult: the structured outcome of a domain operation
//   - EntryFilter: criteria for querying ledger history
//
// Common usage pattern:
//
//	filter := ledger.BuildEntryFilter().
//		Matching().
//		AnyOperationTypeOf(ledger.OperationTypeSell, ledger.OperationTypePurchase).
//		AndAnyEntityIDOf(itemID).
//		Finalize()
//
//	entries, err := store.QueryEntries(ctx, filter)
//	if err != nil {
//		// handle error
//	}
package ledger

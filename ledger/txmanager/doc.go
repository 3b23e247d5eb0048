// Package txmanager coordinates all-or-nothing transactions over accounts and
// stock items.
//
// Every public operation runs the same protocol: begin a pending transaction,
// acquire per-entity locks in canonical order, validate every staged delta
// against current values, apply the deltas, append the audit entries and
// commit. Validation failures are reported as data on the TransactionResult
// with a nil error; infrastructure failures additionally return an error.
//
// If persisting the audit entries fails after deltas were applied, the
// manager compensates by undoing the applied prefix in reverse order. If that
// compensation itself fails the manager halts and refuses further writes,
// because entity values and the ledger can no longer be trusted to agree.
//
// A TransactionManager is constructed from an EntityStore and a Ledger plus
// functional options:
//
//	manager, err := txmanager.NewTransactionManager(
//		store,
//		auditLog,
//		txmanager.WithLogger(logger),
//		txmanager.WithLockTimeout(2*time.Second),
//	)
package txmanager

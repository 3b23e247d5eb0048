// Package memoryengine provides the embedded, process-memory implementation
// of the entity store and the append-only ledger.
//
// It matches the engine's documented single-writer, serializable default: all
// writes go through the transaction manager, a store-wide mutex makes each
// individual store operation atomic with respect to concurrent readers, and
// queried ledger entries are returned as copies so no caller can alter the
// committed history.
package memoryengine

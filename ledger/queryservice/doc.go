// Package queryservice implements the read side of the engine: current
// values, per-entity history, low-stock reporting, sales aggregation and
// inventory valuation.
//
// The service only observes committed state through narrow read interfaces
// and never calls any mutator, so it can safely run next to concurrent
// transaction processing.
package queryservice

package postgresengine

import (
	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithEntityTableName sets the table name holding current entity state.
func WithEntityTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return ledger.ErrEmptyEntityTableName
		}

		s.entityTableName = tableName

		return nil
	}
}

// WithLedgerTableName sets the table name holding committed ledger entries.
func WithLedgerTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return ledger.ErrEmptyLedgerTableName
		}

		s.ledgerTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Entry counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// It receives the same messages as the plain logger and is preferred over it
// when both are configured, carrying the caller's context for trace correlation.
func WithContextualLogger(logger ledger.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// The collector will receive query and append durations, error counters,
// and entry counts per append/query.
func WithMetrics(collector ledger.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

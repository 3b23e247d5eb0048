// Demopostgres runs the same bookkeeping operations as the in-memory demo
// against a local PostgreSQL database. It creates the schema if needed, so a
// fresh database from the compose file works out of the box.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/example/shared/config"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/postgresengine"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/queryservice"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/txmanager"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	schemaDB := config.PostgresSQLDBConfig()
	if err := config.EnsureSchema(ctx, schemaDB); err != nil {
		log.Fatal("failed to ensure schema: ", err)
	}

	if err := schemaDB.Close(); err != nil {
		log.Fatal("failed to close schema connection: ", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config.PostgresPGXPoolConfig())
	if err != nil {
		log.Fatal("failed to create connection pool: ", err)
	}
	defer pool.Close()

	store, err := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithLogger(logger))
	if err != nil {
		log.Fatal("failed to create store: ", err)
	}

	manager, err := txmanager.NewTransactionManager(
		store,
		store,
		txmanager.WithLogger(logger),
		txmanager.WithLockTimeout(2*time.Second),
	)
	if err != nil {
		log.Fatal("failed to create transaction manager: ", err)
	}

	queries, err := queryservice.NewService(store, store, queryservice.WithLogger(logger))
	if err != nil {
		log.Fatal("failed to create query service: ", err)
	}

	accountID := fmt.Sprintf("acc-%d", time.Now().UnixNano())

	if result, opErr := manager.CreateAccount(ctx, accountID, "Demo Account", decimal.NewFromInt(100), decimal.Zero); opErr != nil || result.HasFailure() {
		log.Fatalf("create account failed: %v / %+v", opErr, result.Failure)
	}

	if result, opErr := manager.Deposit(ctx, accountID, decimal.NewFromInt(50)); opErr != nil || result.HasFailure() {
		log.Fatalf("deposit failed: %v / %+v", opErr, result.Failure)
	}

	if result, opErr := manager.Withdraw(ctx, accountID, decimal.NewFromInt(30)); opErr != nil || result.HasFailure() {
		log.Fatalf("withdraw failed: %v / %+v", opErr, result.Failure)
	}

	balance, err := queries.CurrentValue(ctx, accountID)
	if err != nil {
		log.Fatal("failed to query balance: ", err)
	}

	history, err := queries.History(ctx, accountID, time.Time{})
	if err != nil {
		log.Fatal("failed to query history: ", err)
	}

	fmt.Printf("%s balance: %s, %d ledger entries\n", accountID, balance.String(), len(history))
}

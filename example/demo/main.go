// Demo wires the in-memory storage engine, the transaction manager and the
// query service together and runs a small bookkeeping session: accounts with
// deposits and transfers, stock items with purchases and sales, and the
// reports built from the resulting ledger.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/memoryengine"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/queryservice"
	"github.com/AntonStoeckl/transactional-ledger-go/ledger/txmanager"
)

const (
	accountAlice = "acc-alice"
	accountBob   = "acc-bob"
	itemWidget   = "item-widget"
)

// consoleNotifier prints threshold notifications to stdout; in a production
// setup this would publish to an alerting channel instead.
type consoleNotifier struct{}

func (consoleNotifier) ThresholdCrossed(_ context.Context, notification ledger.ThresholdNotification) {
	fmt.Printf(
		"!! low stock: %s (%s) is down to %s, threshold %s\n",
		notification.EntityName,
		notification.EntityID,
		notification.CurrentValue.String(),
		notification.MinThreshold.String(),
	)
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	store, err := memoryengine.NewStore(memoryengine.WithLogger(logger))
	if err != nil {
		log.Fatal("failed to create store: ", err)
	}

	manager, err := txmanager.NewTransactionManager(
		store,
		store,
		txmanager.WithLogger(logger),
		txmanager.WithNotifier(consoleNotifier{}),
		txmanager.WithLockTimeout(2*time.Second),
	)
	if err != nil {
		log.Fatal("failed to create transaction manager: ", err)
	}

	queries, err := queryservice.NewService(store, store, queryservice.WithLogger(logger))
	if err != nil {
		log.Fatal("failed to create query service: ", err)
	}

	runSession(ctx, manager)
	printReports(ctx, queries)
}

func runSession(ctx context.Context, manager *txmanager.TransactionManager) {
	mustSucceed(manager.CreateAccount(ctx, accountAlice, "Alice", dec("100"), decimal.Zero))
	mustSucceed(manager.CreateAccount(ctx, accountBob, "Bob", dec("50"), decimal.Zero))
	mustSucceed(manager.CreateStockItem(ctx, itemWidget, "Widget", dec("50"), dec("9.99"), dec("10")))

	mustSucceed(manager.Deposit(ctx, accountBob, dec("25")))
	mustSucceed(manager.Transfer(ctx, accountAlice, accountBob, dec("30")))

	// more than Alice has left, rejected without any effect
	report(manager.Transfer(ctx, accountAlice, accountBob, dec("500")))

	mustSucceed(manager.Purchase(ctx, itemWidget, dec("10"), dec("4.50")))

	// drops the widget below its threshold of 10, the notifier fires
	mustSucceed(manager.Sell(ctx, itemWidget, dec("55")))

	// only 5 left, rejected
	report(manager.Sell(ctx, itemWidget, dec("10")))
}

func printReports(ctx context.Context, queries *queryservice.Service) {
	for _, entityID := range []string{accountAlice, accountBob} {
		balance, err := queries.CurrentValue(ctx, entityID)
		if err != nil {
			log.Fatal("failed to query balance: ", err)
		}

		fmt.Printf("%s balance: %s\n", entityID, formatMoney(balance))
	}

	history, err := queries.History(ctx, accountAlice, time.Time{})
	if err != nil {
		log.Fatal("failed to query history: ", err)
	}

	fmt.Printf("\nhistory of %s:\n", accountAlice)
	for _, entry := range history {
		fmt.Printf(
			"  #%d %-10s amount=%s resulting=%s\n",
			entry.EntryID,
			entry.OperationType,
			entry.Amount.String(),
			entry.ResultingValues[accountAlice].String(),
		)
	}

	lowStock, err := queries.LowStockReport(ctx, decimal.Zero)
	if err != nil {
		log.Fatal("failed to build low stock report: ", err)
	}

	fmt.Println("\nlow stock:")
	for _, item := range lowStock {
		fmt.Printf("  %s stock=%s threshold=%s deficit=%s\n",
			item.Name, item.CurrentStock.String(), item.MinThreshold.String(), item.Deficit.String())
	}

	sales, err := queries.AggregateSales(ctx, time.Time{}, time.Time{})
	if err != nil {
		log.Fatal("failed to aggregate sales: ", err)
	}

	fmt.Printf("\nsales: %d sales, %s units, revenue %s, cost of goods %s, gross profit %s\n",
		sales.SaleCount,
		sales.UnitsSold.String(),
		formatMoney(sales.TotalRevenue),
		formatMoney(sales.CostOfGoods),
		formatMoney(sales.GrossProfit),
	)

	valuation, err := queries.InventoryValuation(ctx)
	if err != nil {
		log.Fatal("failed to build inventory valuation: ", err)
	}

	fmt.Printf("inventory valuation: %s\n", formatMoney(valuation.TotalValue))
}

func mustSucceed(result ledger.TransactionResult, err error) {
	if err != nil {
		log.Fatal("operation failed: ", err)
	}

	if result.HasFailure() {
		log.Fatalf("operation rejected: %s (%s)", result.Failure.Kind.String(), result.Failure.Message)
	}
}

func report(result ledger.TransactionResult, err error) {
	if err != nil {
		log.Fatal("operation failed: ", err)
	}

	if result.HasFailure() {
		fmt.Printf("rejected as expected: %s\n", result.Failure.Kind.String())
	}
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func formatMoney(amount decimal.Decimal) string {
	return money.New(amount.Mul(decimal.NewFromInt(100)).IntPart(), money.EUR).Display()
}

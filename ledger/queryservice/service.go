package queryservice

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/transactional-ledger-go/ledger"
)

const (
	logMsgReportBuilt  = "report built"
	logAttrReport      = "report"
	logAttrEntityCount = "entity_count"
	logAttrEntryCount  = "entry_count"

	reportLowStock           = "low_stock"
	reportAggregateSales     = "aggregate_sales"
	reportInventoryValuation = "inventory_valuation"
)

var (
	// ErrNilEntityReader is returned when a Service is constructed without an entity reader.
	ErrNilEntityReader = errors.New("entity reader must not be nil")

	// ErrNilLedgerReader is returned when a Service is constructed without a ledger reader.
	ErrNilLedgerReader = errors.New("ledger reader must not be nil")
)

// EntityReader is the read access to current entity state the service needs.
type EntityReader interface {
	GetEntity(ctx context.Context, entityID string) (ledger.Entity, error)
	ListEntities(ctx context.Context, kind ledger.EntityKind) ([]ledger.Entity, error)
}

// LedgerReader is the read access to committed ledger entries the service needs.
type LedgerReader interface {
	QueryEntries(ctx context.Context, filter ledger.EntryFilter) (ledger.LedgerEntries, error)
}

// LowStockItem is one line of a low-stock report.
type LowStockItem struct {
	EntityID     string
	Name         string
	CurrentStock decimal.Decimal
	MinThreshold decimal.Decimal
	Deficit      decimal.Decimal
}

// SellerRank is one line of the top-seller ranking of a SalesReport.
type SellerRank struct {
	EntityID  string
	UnitsSold decimal.Decimal
	Revenue   decimal.Decimal
}

// SalesReport aggregates the stock movements of a time range.
//
// Revenue comes from sell entries, cost of goods from purchase entries, each
// valued at the unit price recorded on the entry itself, so later price
// changes never rewrite historical reports.
type SalesReport struct {
	From         time.Time
	To           time.Time
	SaleCount    int
	UnitsSold    decimal.Decimal
	TotalRevenue decimal.Decimal
	CostOfGoods  decimal.Decimal
	GrossProfit  decimal.Decimal
	TopSellers   []SellerRank
}

// ValuationItem is one line of an inventory valuation report.
type ValuationItem struct {
	EntityID  string
	Name      string
	Stock     decimal.Decimal
	UnitPrice decimal.Decimal
	Value     decimal.Decimal
}

// ValuationReport values the whole active inventory at current unit prices.
type ValuationReport struct {
	Items      []ValuationItem
	TotalValue decimal.Decimal
}

// Option is the typical functional option to configure a Service.
type Option func(s *Service) error

// WithLogger configures a logger for operational messages.
func WithLogger(logger ledger.Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// Service answers read-only queries over committed entity state and ledger history.
type Service struct {
	entities EntityReader
	auditLog LedgerReader
	logger   ledger.Logger
}

// NewService is the factory for a Service with optional functional options.
func NewService(entities EntityReader, auditLog LedgerReader, options ...Option) (*Service, error) {
	if entities == nil {
		return nil, ErrNilEntityReader
	}

	if auditLog == nil {
		return nil, ErrNilLedgerReader
	}

	s := &Service{
		entities: entities,
		auditLog: auditLog,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CurrentValue returns the committed balance or quantity of the entity.
// Unknown or deactivated entities yield ledger.ErrUnknownEntity.
func (s *Service) CurrentValue(ctx context.Context, entityID string) (decimal.Decimal, error) {
	entity, err := s.entities.GetEntity(ctx, entityID)
	if err != nil {
		return decimal.Zero, err
	}

	if !entity.Active {
		return decimal.Zero, ledger.ErrUnknownEntity
	}

	return entity.Value, nil
}

// History returns every committed ledger entry involving the entity at or
// after since, oldest first. A zero since returns the full history. The scan
// is finite and restartable, calling it again re-reads from the ledger.
// An empty entity id is rejected, it would otherwise match the whole ledger
// after filter sanitization drops it.
func (s *Service) History(ctx context.Context, entityID string, since time.Time) (ledger.LedgerEntries, error) {
	if entityID == "" {
		return nil, ledger.ErrEmptyEntityID
	}

	builder := ledger.BuildEntryFilter().
		Matching().
		AnyEntityIDOf(entityID)

	var filter ledger.EntryFilter
	if since.IsZero() {
		filter = builder.Finalize()
	} else {
		filter = builder.OccurredFrom(since).Finalize()
	}

	return s.auditLog.QueryEntries(ctx, filter)
}

// LowStockReport lists every active stock item whose quantity has fallen
// below its effective threshold. The floor overrides smaller per-item
// thresholds; items with neither are skipped. Sorted by largest deficit first.
func (s *Service) LowStockReport(ctx context.Context, floor decimal.Decimal) ([]LowStockItem, error) {
	items, err := s.entities.ListEntities(ctx, ledger.KindStockItem)
	if err != nil {
		return nil, err
	}

	report := make([]LowStockItem, 0)

	for _, item := range items {
		threshold := item.MinThreshold
		if floor.GreaterThan(threshold) {
			threshold = floor
		}

		if !threshold.IsPositive() || item.Value.GreaterThanOrEqual(threshold) {
			continue
		}

		report = append(report, LowStockItem{
			EntityID:     item.ID,
			Name:         item.Name,
			CurrentStock: item.Value,
			MinThreshold: threshold,
			Deficit:      threshold.Sub(item.Value),
		})
	}

	sort.Slice(report, func(i, j int) bool {
		if !report[i].Deficit.Equal(report[j].Deficit) {
			return report[i].Deficit.GreaterThan(report[j].Deficit)
		}

		return report[i].EntityID < report[j].EntityID
	})

	s.logReport(reportLowStock, len(report), 0)

	return report, nil
}

// AggregateSales aggregates all sell and purchase entries of the given time
// range into revenue, cost of goods, gross profit and a top-seller ranking.
// A zero from or to leaves that side of the range open.
func (s *Service) AggregateSales(ctx context.Context, from time.Time, to time.Time) (SalesReport, error) {
	builder := ledger.BuildEntryFilter().
		Matching().
		AnyOperationTypeOf(ledger.OperationTypeSell, ledger.OperationTypePurchase)

	var completed ledger.CompletedFilterBuilder

	switch {
	case !from.IsZero():
		completed = builder.OccurredFrom(from)
		if !to.IsZero() {
			completed = completed.OccurredUntil(to)
		}

	case !to.IsZero():
		completed = builder.OccurredUntil(to)
	}

	var filter ledger.EntryFilter
	if completed != nil {
		filter = completed.Finalize()
	} else {
		filter = builder.Finalize()
	}

	entries, err := s.auditLog.QueryEntries(ctx, filter)
	if err != nil {
		return SalesReport{}, err
	}

	report := SalesReport{From: from, To: to}
	perSeller := make(map[string]SellerRank)

	for _, entry := range entries {
		value := entry.Amount.Mul(entry.UnitPrice)

		switch entry.OperationType {
		case ledger.OperationTypeSell:
			report.SaleCount++
			report.UnitsSold = report.UnitsSold.Add(entry.Amount)
			report.TotalRevenue = report.TotalRevenue.Add(value)

			rank := perSeller[entry.EntityIDs[0]]
			rank.EntityID = entry.EntityIDs[0]
			rank.UnitsSold = rank.UnitsSold.Add(entry.Amount)
			rank.Revenue = rank.Revenue.Add(value)
			perSeller[entry.EntityIDs[0]] = rank

		case ledger.OperationTypePurchase:
			report.CostOfGoods = report.CostOfGoods.Add(value)
		}
	}

	report.GrossProfit = report.TotalRevenue.Sub(report.CostOfGoods)

	for _, rank := range perSeller {
		report.TopSellers = append(report.TopSellers, rank)
	}

	sort.Slice(report.TopSellers, func(i, j int) bool {
		if !report.TopSellers[i].Revenue.Equal(report.TopSellers[j].Revenue) {
			return report.TopSellers[i].Revenue.GreaterThan(report.TopSellers[j].Revenue)
		}

		return report.TopSellers[i].EntityID < report.TopSellers[j].EntityID
	})

	s.logReport(reportAggregateSales, len(perSeller), len(entries))

	return report, nil
}

// InventoryValuation values every active stock item at its current unit
// price. Sorted by entity id for stable rendering.
func (s *Service) InventoryValuation(ctx context.Context) (ValuationReport, error) {
	items, err := s.entities.ListEntities(ctx, ledger.KindStockItem)
	if err != nil {
		return ValuationReport{}, err
	}

	report := ValuationReport{Items: make([]ValuationItem, 0, len(items))}

	for _, item := range items {
		value := item.Value.Mul(item.UnitPrice)

		report.Items = append(report.Items, ValuationItem{
			EntityID:  item.ID,
			Name:      item.Name,
			Stock:     item.Value,
			UnitPrice: item.UnitPrice,
			Value:     value,
		})

		report.TotalValue = report.TotalValue.Add(value)
	}

	s.logReport(reportInventoryValuation, len(report.Items), 0)

	return report, nil
}

func (s *Service) logReport(report string, entityCount int, entryCount int) {
	if s.logger == nil {
		return
	}

	s.logger.Debug(
		logMsgReportBuilt,
		logAttrReport, report,
		logAttrEntityCount, entityCount,
		logAttrEntryCount, entryCount)
}

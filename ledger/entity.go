package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyEntityID is returned when an empty entity id is supplied to a factory method.
	ErrEmptyEntityID = errors.New("entity id must not be empty")

	// ErrEmptyEntityName is returned when an empty entity name is supplied to a factory method.
	ErrEmptyEntityName = errors.New("entity name must not be empty")

	// ErrNegativeOpeningValue is returned when an entity would be created with a negative value.
	ErrNegativeOpeningValue = errors.New("opening value must not be negative")

	// ErrNegativeUnitPrice is returned when a stock item would be created with a negative unit price.
	ErrNegativeUnitPrice = errors.New("unit price must not be negative")

	// ErrNegativeMinThreshold is returned when a negative soft threshold is supplied.
	ErrNegativeMinThreshold = errors.New("min threshold must not be negative")
)

// EntityKind discriminates the two kinds of entities the engine mutates.
type EntityKind string

const (
	// KindAccount is a funds account whose Value is a monetary balance.
	KindAccount EntityKind = "Account"

	// KindStockItem is an inventory item whose Value is a stock count.
	KindStockItem EntityKind = "StockItem"
)

// Entity is the authoritative current state of one account or stock item.
//
// It is owned exclusively by an entity store and is only ever mutated inside
// a committed transaction. Value is guaranteed to be non-negative in every
// committed state.
//
// While its properties are exported, it should only be constructed with the
// supplied factory methods:
//   - BuildAccount
//   - BuildStockItem
type Entity struct {
	ID           string
	Kind         EntityKind
	Value        decimal.Decimal
	Name         string
	UnitPrice    decimal.Decimal
	MinThreshold decimal.Decimal
	Active       bool
	CreatedAt    time.Time
}

// BuildAccount is a factory method for an Account Entity.
//
// The openingBalance becomes the initial Value, minThreshold is the soft
// low-balance warning line (zero disables the warning).
func BuildAccount(
	id string,
	name string,
	openingBalance decimal.Decimal,
	minThreshold decimal.Decimal,
	createdAt time.Time,
) (Entity, error) {

	if err := validateEntityInput(id, name, openingBalance, minThreshold); err != nil {
		return Entity{}, err
	}

	return Entity{
		ID:           id,
		Kind:         KindAccount,
		Value:        openingBalance,
		Name:         name,
		UnitPrice:    decimal.Zero,
		MinThreshold: minThreshold,
		Active:       true,
		CreatedAt:    createdAt,
	}, nil
}

// BuildStockItem is a factory method for a StockItem Entity.
//
// The initialStock becomes the initial Value, unitPrice is the current sales
// price, minThreshold is the soft low-stock warning line.
func BuildStockItem(
	id string,
	name string,
	initialStock decimal.Decimal,
	unitPrice decimal.Decimal,
	minThreshold decimal.Decimal,
	createdAt time.Time,
) (Entity, error) {

	if err := validateEntityInput(id, name, initialStock, minThreshold); err != nil {
		return Entity{}, err
	}

	if unitPrice.IsNegative() {
		return Entity{}, ErrNegativeUnitPrice
	}

	return Entity{
		ID:           id,
		Kind:         KindStockItem,
		Value:        initialStock,
		Name:         name,
		UnitPrice:    unitPrice,
		MinThreshold: minThreshold,
		Active:       true,
		CreatedAt:    createdAt,
	}, nil
}

func validateEntityInput(id string, name string, openingValue decimal.Decimal, minThreshold decimal.Decimal) error {
	if id == "" {
		return ErrEmptyEntityID
	}

	if name == "" {
		return ErrEmptyEntityName
	}

	if openingValue.IsNegative() {
		return ErrNegativeOpeningValue
	}

	if minThreshold.IsNegative() {
		return ErrNegativeMinThreshold
	}

	return nil
}

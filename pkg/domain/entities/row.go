package entities

import "github.com/shopspring/decimal"

// RowField identifies an engine-governed field on a consumption row.
// Recompute sequencing and override tracking are keyed by it.
type RowField int

const (
	FieldOpeningStock RowField = iota
	FieldIssued
	FieldConsumption
	FieldInQty
	FieldClosingStock
	FieldWarehouse
)

// String method for RowField enum
func (f RowField) String() string {
	switch f {
	case FieldOpeningStock:
		return "opening_stock"
	case FieldIssued:
		return "issued"
	case FieldConsumption:
		return "consumption"
	case FieldInQty:
		return "in_qty"
	case FieldClosingStock:
		return "closing_stock"
	case FieldWarehouse:
		return "warehouse"
	default:
		return "unknown"
	}
}

// OverrideSet carries the per-row "user has taken ownership" flags. A set
// flag protects the field from system recomputation. Flags are one-way;
// the only reset path is the Scrap in-qty carve-out handled by the engine.
type OverrideSet struct {
	Warehouse   bool
	Consumption bool
	InQty       bool
}

// ConsumptionRow is one line of a production record's material-consumption
// table: an item participating in the shift's production together with its
// derived stock movement quantities.
type ConsumptionRow struct {
	ItemCode ItemCode
	ItemName string
	StockUOM string
	ItemType string

	// Category is derived once when the item code is assigned and re-derived
	// only when the code changes.
	Category Category

	OpeningStock decimal.Decimal
	Issued       decimal.Decimal
	Consumption  decimal.Decimal
	InQty        decimal.Decimal
	ClosingStock decimal.Decimal

	// Exactly one of the two warehouses is populated, by category.
	SourceWarehouse string
	TargetWarehouse string

	Overrides OverrideSet
}

// Snapshot returns a value copy of the row, used by tests and by the guard
// contract checks to verify frozen records stay untouched.
func (r *ConsumptionRow) Snapshot() ConsumptionRow {
	return *r
}

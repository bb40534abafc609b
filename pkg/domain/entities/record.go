package entities

import (
	"github.com/shopspring/decimal"
)

// LifecycleState tracks where a production record is in its document
// lifecycle. Once the state leaves Draft the record is immutable to the
// reconciliation engine.
type LifecycleState int

const (
	StateDraft LifecycleState = iota
	StateSubmitted
	StateCancelled
)

// String method for LifecycleState enum
func (s LifecycleState) String() string {
	switch s {
	case StateDraft:
		return "Draft"
	case StateSubmitted:
		return "Submitted"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// RecordField identifies an engine-governed record-level field.
type RecordField int

const (
	RecordFieldNetWeight RecordField = iota
	RecordFieldHopperOpeningQty
	RecordFieldHopperClosingQty
	RecordFieldMipOpeningQty
	RecordFieldMipClosingQty
)

// String method for RecordField enum
func (f RecordField) String() string {
	switch f {
	case RecordFieldNetWeight:
		return "net_weight"
	case RecordFieldHopperOpeningQty:
		return "hopper_opening_qty"
	case RecordFieldHopperClosingQty:
		return "hopper_closing_qty"
	case RecordFieldMipOpeningQty:
		return "mip_opening_qty"
	case RecordFieldMipClosingQty:
		return "mip_closing_qty"
	default:
		return "unknown"
	}
}

// ProductionRecord is the parent document for one shift's production run:
// process inputs, record-level derived scalars, and the ordered material
// consumption table.
type ProductionRecord struct {
	ID             string
	ProductionDate ShiftRef

	// Process inputs
	BOMID            string
	QtyToManufacture decimal.Decimal
	ManufacturedQty  decimal.Decimal
	GrossWeight      decimal.Decimal
	PackingWeight    decimal.Decimal

	// Hopper & tray buffer
	HopperItem       ItemCode
	HopperOpeningQty decimal.Decimal
	HopperAddOrUsed  decimal.Decimal
	HopperClosingQty decimal.Decimal

	// Material-in-process pool
	MipOpeningQty decimal.Decimal
	MipGenerated  decimal.Decimal
	MipUsed       decimal.Decimal
	MipClosingQty decimal.Decimal

	ProcessLossWeight decimal.Decimal
	NetWeight         decimal.Decimal

	// Reference of the stock entry generated on submit
	StockEntryNo string

	State LifecycleState

	// Saving marks a persistence round-trip in flight; engine writes are
	// suspended while it is set so a fresh save is not immediately dirtied.
	Saving bool

	Rows []*ConsumptionRow
}

// NewProductionRecord creates a draft record for the given shift.
func NewProductionRecord(id string, ref ShiftRef) *ProductionRecord {
	return &ProductionRecord{
		ID:             id,
		ProductionDate: ref,
		State:          StateDraft,
	}
}

// Editable reports whether the engine may mutate the record right now.
func (r *ProductionRecord) Editable() bool {
	return r.State == StateDraft && !r.Saving
}

// RowByItem returns the first row carrying the given item code, or nil.
func (r *ProductionRecord) RowByItem(code ItemCode) *ConsumptionRow {
	for _, row := range r.Rows {
		if row.ItemCode == code {
			return row
		}
	}
	return nil
}

// RowsByCategory returns the rows of the given category in table order.
func (r *ProductionRecord) RowsByCategory(c Category) []*ConsumptionRow {
	var rows []*ConsumptionRow
	for _, row := range r.Rows {
		if row.Category == c {
			rows = append(rows, row)
		}
	}
	return rows
}

// RawConsumptionSum totals consumption across all Raw Material rows. It is
// an input to the hopper/tray mass balance and the Prime row closing stock.
func (r *ProductionRecord) RawConsumptionSum() decimal.Decimal {
	sum := decimal.Zero
	for _, row := range r.Rows {
		if row.Category == RawMaterial {
			sum = sum.Add(row.Consumption)
		}
	}
	return sum
}

// ItemCodes returns the item codes of all rows that have one assigned.
func (r *ProductionRecord) ItemCodes() []ItemCode {
	codes := make([]ItemCode, 0, len(r.Rows))
	for _, row := range r.Rows {
		if row.ItemCode != "" {
			codes = append(codes, row.ItemCode)
		}
	}
	return codes
}

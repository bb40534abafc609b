package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// StockLedgerRepository provides the shift carry-forward and valuation
// queries backed by the external stock-ledger service. "Previous" means
// the temporally latest record strictly before the given shift reference,
// always excluding the record currently under edit (excludeID may be empty
// for a record that was never saved). A scope with no prior record yields
// zero, not an error.
type StockLedgerRepository interface {
	// PreviousClosingStock returns the closing stock recorded by the most
	// recent prior shift for each requested item. Items with no history are
	// missing from the result map.
	PreviousClosingStock(ctx context.Context, itemCodes []entities.ItemCode, ref entities.ShiftRef, excludeID string) (map[entities.ItemCode]decimal.Decimal, error)

	// PreviousHopperClosing returns the hopper/tray closing quantity of the
	// most recent prior shift record.
	PreviousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error)

	// PreviousMipClosing returns the material-in-process closing quantity
	// of the most recent prior shift record.
	PreviousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error)

	// ValuationRate returns the latest valuation rate for an item in a
	// warehouse, or zero when no ledger entry carries one.
	ValuationRate(ctx context.Context, itemCode entities.ItemCode, warehouse string) (decimal.Decimal, error)
}

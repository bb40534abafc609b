// Package stockentry translates a submitted production record into the
// stock entries that post its material movements to the ledger: one
// Manufacture entry covering raw-material issues and finished/scrap
// receipts, plus an optional Material Receipt for a positive hopper
// balance.
package stockentry

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

var (
	// ErrNegativeQuantity rejects a record carrying a negative movement
	// quantity; the derivation math permits negatives on screen, but they
	// must be corrected before the record can post.
	ErrNegativeQuantity = errors.New("stock entry line quantity is negative")

	// ErrMissingWarehouse rejects a row that would move stock without
	// saying where from or to.
	ErrMissingWarehouse = errors.New("stock entry line has no warehouse")
)

// Line is a single stock movement within an entry. Issue lines carry a
// source warehouse, receipt lines a target; never both.
type Line struct {
	ItemCode        entities.ItemCode
	ItemName        string
	Qty             decimal.Decimal
	UOM             string
	SourceWarehouse string
	TargetWarehouse string
	Rate            decimal.Decimal
}

// Entry is a stock entry ready for posting.
type Entry struct {
	Purpose     string
	RecordID    string
	PostingDate entities.ShiftRef
	Lines       []Line
}

const (
	PurposeManufacture     = "Manufacture"
	PurposeMaterialReceipt = "Material Receipt"
)

// Builder assembles stock entries from production records. Valuation rates
// for receipt lines come from the ledger when available and fall back to
// the item master.
type Builder struct {
	items  repositories.ItemRepository
	ledger repositories.StockLedgerRepository
	log    *logrus.Logger

	// HopperWarehouse receives the hopper balance receipt. Empty disables
	// hopper receipts entirely.
	hopperWarehouse string
}

// NewBuilder creates a stock entry builder.
func NewBuilder(items repositories.ItemRepository, ledger repositories.StockLedgerRepository, hopperWarehouse string, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	return &Builder{
		items:           items,
		ledger:          ledger,
		hopperWarehouse: hopperWarehouse,
		log:             log,
	}
}

// BuildManufacture builds the Manufacture entry for a record: one issue
// line per raw-material row with a non-zero consumption, and one receipt
// line per main-product or scrap row with a non-zero in-quantity. Prime
// rows mirror the hopper balance and never post. Zero-quantity rows are
// skipped; negative quantities and missing warehouses abort the build.
func (b *Builder) BuildManufacture(ctx context.Context, record *entities.ProductionRecord) (*Entry, error) {
	entry := &Entry{
		Purpose:     PurposeManufacture,
		RecordID:    record.ID,
		PostingDate: record.ProductionDate,
	}

	for _, row := range record.Rows {
		line, err := b.buildLine(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", row.ItemCode, err)
		}
		if line != nil {
			entry.Lines = append(entry.Lines, *line)
		}
	}

	if len(entry.Lines) == 0 {
		return nil, fmt.Errorf("record %s has no stock movements to post", record.ID)
	}
	return entry, nil
}

func (b *Builder) buildLine(ctx context.Context, row *entities.ConsumptionRow) (*Line, error) {
	switch row.Category {
	case entities.RawMaterial:
		if row.Consumption.IsNegative() {
			return nil, fmt.Errorf("consumption %s: %w", row.Consumption, ErrNegativeQuantity)
		}
		if row.Consumption.IsZero() {
			return nil, nil
		}
		if row.SourceWarehouse == "" {
			return nil, ErrMissingWarehouse
		}
		return &Line{
			ItemCode:        row.ItemCode,
			ItemName:        row.ItemName,
			Qty:             row.Consumption,
			UOM:             row.StockUOM,
			SourceWarehouse: row.SourceWarehouse,
		}, nil

	case entities.MainProduct, entities.Scrap:
		if row.InQty.IsNegative() {
			return nil, fmt.Errorf("in-qty %s: %w", row.InQty, ErrNegativeQuantity)
		}
		if row.InQty.IsZero() {
			return nil, nil
		}
		if row.TargetWarehouse == "" {
			return nil, ErrMissingWarehouse
		}
		return &Line{
			ItemCode:        row.ItemCode,
			ItemName:        row.ItemName,
			Qty:             row.InQty,
			UOM:             row.StockUOM,
			TargetWarehouse: row.TargetWarehouse,
			Rate:            b.valuationRate(ctx, row.ItemCode, row.TargetWarehouse),
		}, nil

	default:
		return nil, nil
	}
}

// BuildHopperReceipt builds the Material Receipt posting a positive hopper
// closing balance into the hopper warehouse. It returns nil when the
// balance is zero or negative, the record has no hopper item, or the
// builder has no hopper warehouse configured.
func (b *Builder) BuildHopperReceipt(ctx context.Context, record *entities.ProductionRecord) (*Entry, error) {
	if b.hopperWarehouse == "" || record.HopperItem == "" {
		return nil, nil
	}
	if !record.HopperClosingQty.IsPositive() {
		return nil, nil
	}

	line := Line{
		ItemCode:        record.HopperItem,
		Qty:             record.HopperClosingQty,
		TargetWarehouse: b.hopperWarehouse,
		Rate:            b.valuationRate(ctx, record.HopperItem, b.hopperWarehouse),
	}
	// The item repository reports "not found" as (nil, nil).
	if item, err := b.items.GetItem(ctx, record.HopperItem); err == nil && item != nil {
		line.ItemName = item.Name
		line.UOM = item.StockUOM
	}

	return &Entry{
		Purpose:     PurposeMaterialReceipt,
		RecordID:    record.ID,
		PostingDate: record.ProductionDate,
		Lines:       []Line{line},
	}, nil
}

// valuationRate resolves a receipt line's rate: the warehouse's ledger
// valuation first, then the item master's valuation rate, standard rate,
// and last purchase rate. A chain with no positive rate resolves to zero
// and is logged, not failed; a zero-rated receipt is legal.
func (b *Builder) valuationRate(ctx context.Context, code entities.ItemCode, warehouse string) decimal.Decimal {
	if rate, err := b.ledger.ValuationRate(ctx, code, warehouse); err == nil && rate.IsPositive() {
		return rate
	}

	item, err := b.items.GetItem(ctx, code)
	if err != nil || item == nil {
		b.log.WithFields(logrus.Fields{
			"module":   "stockentry",
			"funcName": "valuationRate",
			"context":  string(code),
		}).Warn("no item master entry for rate fallback")
		return decimal.Zero
	}

	for _, rate := range []decimal.Decimal{item.ValuationRate, item.StandardRate, item.LastPurchaseRate} {
		if rate.IsPositive() {
			return rate
		}
	}
	return decimal.Zero
}

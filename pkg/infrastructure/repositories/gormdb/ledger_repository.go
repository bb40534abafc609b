package gormdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

// StockLedgerRepository reads the shift timeline and warehouse valuations
// from MySQL.
type StockLedgerRepository struct {
	db *gorm.DB
}

// NewStockLedgerRepository creates a database-backed stock ledger.
func NewStockLedgerRepository(db *gorm.DB) *StockLedgerRepository {
	return &StockLedgerRepository{db: db}
}

// Verify interface compliance
var _ repositories.StockLedgerRepository = (*StockLedgerRepository)(nil)

// beforeRef filters to rows strictly earlier than ref in the shift
// ordering, excluding the record under edit.
func beforeRef(q *gorm.DB, ref entities.ShiftRef, excludeID string) *gorm.DB {
	q = q.Where("(date < ? OR (date = ? AND shift < ?))", ref.Date, ref.Date, int(ref.Shift))
	if excludeID != "" {
		q = q.Where("record_id <> ?", excludeID)
	}
	return q
}

// PreviousClosingStock returns, per item, the closing stock written by the
// most recent prior shift that recorded one.
func (r *StockLedgerRepository) PreviousClosingStock(ctx context.Context, itemCodes []entities.ItemCode, ref entities.ShiftRef, excludeID string) (map[entities.ItemCode]decimal.Decimal, error) {
	result := make(map[entities.ItemCode]decimal.Decimal, len(itemCodes))

	for _, code := range itemCodes {
		var row ShiftClosingModel
		q := beforeRef(r.db.WithContext(ctx).Where("item_code = ?", string(code)), ref, excludeID)
		err := q.Order("date DESC, shift DESC").First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading previous closing stock for %s: %w", code, err)
		}
		result[code] = row.ClosingStock
	}
	return result, nil
}

// PreviousHopperClosing returns the hopper closing balance of the most
// recent prior shift record.
func (r *StockLedgerRepository) PreviousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	balance, err := r.previousBalance(ctx, ref, excludeID)
	if err != nil || balance == nil {
		return decimal.Zero, err
	}
	return balance.HopperClosing, nil
}

// PreviousMipClosing returns the material-in-process closing balance of
// the most recent prior shift record.
func (r *StockLedgerRepository) PreviousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	balance, err := r.previousBalance(ctx, ref, excludeID)
	if err != nil || balance == nil {
		return decimal.Zero, err
	}
	return balance.MipClosing, nil
}

func (r *StockLedgerRepository) previousBalance(ctx context.Context, ref entities.ShiftRef, excludeID string) (*ShiftBalanceModel, error) {
	var row ShiftBalanceModel
	q := beforeRef(r.db.WithContext(ctx).Model(&ShiftBalanceModel{}), ref, excludeID)
	err := q.Order("date DESC, shift DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading previous shift balance: %w", err)
	}
	return &row, nil
}

// ValuationRate returns the latest valuation for an item in a warehouse,
// zero when none is recorded.
func (r *StockLedgerRepository) ValuationRate(ctx context.Context, code entities.ItemCode, warehouse string) (decimal.Decimal, error) {
	var row ValuationModel
	err := r.db.WithContext(ctx).
		Where("item_code = ? AND warehouse = ?", string(code), warehouse).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading valuation for %s in %s: %w", code, warehouse, err)
	}
	return row.Rate, nil
}

// WriteSnapshot stores a submitted record's closing balances on the shift
// timeline, replacing any previous rows for the record.
func (r *StockLedgerRepository) WriteSnapshot(ctx context.Context, record *entities.ProductionRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.deleteSnapshot(tx, record.ID); err != nil {
			return err
		}

		balance := ShiftBalanceModel{
			RecordID:      record.ID,
			Date:          record.ProductionDate.Date,
			Shift:         int(record.ProductionDate.Shift),
			HopperClosing: record.HopperClosingQty,
			MipClosing:    record.MipClosingQty,
		}
		if err := tx.Create(&balance).Error; err != nil {
			return fmt.Errorf("writing shift balance for %s: %w", record.ID, err)
		}

		for _, row := range record.Rows {
			if row.Category != entities.RawMaterial || row.ItemCode == "" {
				continue
			}
			closing := ShiftClosingModel{
				RecordID:     record.ID,
				Date:         record.ProductionDate.Date,
				Shift:        int(record.ProductionDate.Shift),
				ItemCode:     string(row.ItemCode),
				ClosingStock: row.ClosingStock,
			}
			if err := tx.Create(&closing).Error; err != nil {
				return fmt.Errorf("writing closing stock for %s/%s: %w", record.ID, row.ItemCode, err)
			}
		}
		return nil
	})
}

// RemoveSnapshot drops a cancelled record's rows from the shift timeline.
func (r *StockLedgerRepository) RemoveSnapshot(ctx context.Context, recordID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.deleteSnapshot(tx, recordID)
	})
}

func (r *StockLedgerRepository) deleteSnapshot(tx *gorm.DB, recordID string) error {
	if err := tx.Delete(&ShiftBalanceModel{}, "record_id = ?", recordID).Error; err != nil {
		return fmt.Errorf("deleting shift balance for %s: %w", recordID, err)
	}
	if err := tx.Delete(&ShiftClosingModel{}, "record_id = ?", recordID).Error; err != nil {
		return fmt.Errorf("deleting closing stocks for %s: %w", recordID, err)
	}
	return nil
}

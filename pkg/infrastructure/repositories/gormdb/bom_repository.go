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

// BOMRepository reads Bills of Materials from MySQL.
type BOMRepository struct {
	db *gorm.DB
}

// NewBOMRepository creates a database-backed BOM repository.
func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// ReferenceQty returns the batch size the BOM's item ratios are expressed
// against.
func (r *BOMRepository) ReferenceQty(ctx context.Context, bomID string) (decimal.Decimal, error) {
	var bom BOMModel
	err := r.db.WithContext(ctx).Select("id", "reference_qty").First(&bom, "id = ?", bomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, fmt.Errorf("bom not found: %s", bomID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading bom %s: %w", bomID, err)
	}
	return bom.ReferenceQty, nil
}

// ItemQuantities returns the BOM quantity for each requested item code.
func (r *BOMRepository) ItemQuantities(ctx context.Context, bomID string, itemCodes []entities.ItemCode) (map[entities.ItemCode]decimal.Decimal, error) {
	if len(itemCodes) == 0 {
		return map[entities.ItemCode]decimal.Decimal{}, nil
	}

	codes := make([]string, len(itemCodes))
	for i, code := range itemCodes {
		codes[i] = string(code)
	}

	var lines []BOMLineModel
	err := r.db.WithContext(ctx).
		Where("bom_id = ? AND item_code IN ?", bomID, codes).
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("loading bom %s lines: %w", bomID, err)
	}

	result := make(map[entities.ItemCode]decimal.Decimal, len(lines))
	for _, line := range lines {
		result[entities.ItemCode(line.ItemCode)] = line.Qty
	}
	return result, nil
}

// RawMaterialItems returns the BOM's raw-material lines in BOM order.
func (r *BOMRepository) RawMaterialItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.linesByType(ctx, bomID, []string{entities.ItemTypeRawMaterial})
}

// MainAndScrapItems returns the BOM's output lines in BOM order.
func (r *BOMRepository) MainAndScrapItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.linesByType(ctx, bomID, []string{entities.ItemTypeMainItem, entities.ItemTypeScrapItem})
}

func (r *BOMRepository) linesByType(ctx context.Context, bomID string, itemTypes []string) ([]entities.BOMItem, error) {
	var lines []BOMLineModel
	err := r.db.WithContext(ctx).
		Where("bom_id = ? AND item_type IN ?", bomID, itemTypes).
		Order("position ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("loading bom %s lines: %w", bomID, err)
	}

	items := make([]entities.BOMItem, 0, len(lines))
	for i := range lines {
		items = append(items, lines[i].toEntity())
	}
	return items, nil
}

// ScrapRatio returns the scrap quantity per reference-quantity unit for an
// item, zero when the item is not a scrap line of the BOM.
func (r *BOMRepository) ScrapRatio(ctx context.Context, bomID string, itemCode entities.ItemCode) (decimal.Decimal, error) {
	refQty, err := r.ReferenceQty(ctx, bomID)
	if err != nil {
		return decimal.Zero, err
	}
	if !refQty.IsPositive() {
		return decimal.Zero, nil
	}

	var line BOMLineModel
	err = r.db.WithContext(ctx).
		Where("bom_id = ? AND item_code = ? AND item_type = ?", bomID, string(itemCode), entities.ItemTypeScrapItem).
		First(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("loading bom %s scrap line %s: %w", bomID, itemCode, err)
	}
	return line.Qty.Div(refQty), nil
}

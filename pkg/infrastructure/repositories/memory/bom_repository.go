package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

// BOM is a stored Bill of Materials: the reference batch size and the
// ordered lines, raw materials and outputs together.
type BOM struct {
	ID           string
	ReferenceQty decimal.Decimal
	Items        []entities.BOMItem
}

// BOMRepository is an in-memory BOM store. It backs tests and the CSV
// scenario runner; production deployments use the database-backed
// implementation.
type BOMRepository struct {
	mu   sync.RWMutex
	boms map[string]*BOM
}

// NewBOMRepository creates an empty in-memory BOM repository.
func NewBOMRepository() *BOMRepository {
	return &BOMRepository{boms: make(map[string]*BOM)}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*BOMRepository)(nil)

// AddBOM stores a BOM, replacing any previous definition under the same ID.
func (r *BOMRepository) AddBOM(bom BOM) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := bom
	r.boms[bom.ID] = &stored
}

func (r *BOMRepository) get(bomID string) (*BOM, error) {
	bom, ok := r.boms[bomID]
	if !ok {
		return nil, fmt.Errorf("bom not found: %s", bomID)
	}
	return bom, nil
}

// ReferenceQty returns the batch size the BOM's item ratios are expressed
// against.
func (r *BOMRepository) ReferenceQty(ctx context.Context, bomID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bom, err := r.get(bomID)
	if err != nil {
		return decimal.Zero, err
	}
	return bom.ReferenceQty, nil
}

// ItemQuantities returns the BOM quantity for each requested item code.
// Items absent from the BOM are missing from the result.
func (r *BOMRepository) ItemQuantities(ctx context.Context, bomID string, itemCodes []entities.ItemCode) (map[entities.ItemCode]decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bom, err := r.get(bomID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[entities.ItemCode]bool, len(itemCodes))
	for _, code := range itemCodes {
		wanted[code] = true
	}

	result := make(map[entities.ItemCode]decimal.Decimal)
	for _, item := range bom.Items {
		if wanted[item.ItemCode] {
			result[item.ItemCode] = item.Qty
		}
	}
	return result, nil
}

// RawMaterialItems returns the BOM's raw-material lines in BOM order.
func (r *BOMRepository) RawMaterialItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.itemsByType(bomID, func(itemType string) bool {
		return itemType == entities.ItemTypeRawMaterial
	})
}

// MainAndScrapItems returns the BOM's output lines in BOM order.
func (r *BOMRepository) MainAndScrapItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.itemsByType(bomID, func(itemType string) bool {
		return itemType == entities.ItemTypeMainItem || itemType == entities.ItemTypeScrapItem
	})
}

func (r *BOMRepository) itemsByType(bomID string, match func(string) bool) ([]entities.BOMItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bom, err := r.get(bomID)
	if err != nil {
		return nil, err
	}

	var items []entities.BOMItem
	for _, item := range bom.Items {
		if match(item.ItemType) {
			items = append(items, item)
		}
	}
	return items, nil
}

// ScrapRatio returns the scrap quantity per reference-quantity unit for an
// item, zero when the item is not a scrap line or the reference quantity
// is not positive.
func (r *BOMRepository) ScrapRatio(ctx context.Context, bomID string, itemCode entities.ItemCode) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bom, err := r.get(bomID)
	if err != nil {
		return decimal.Zero, err
	}
	if !bom.ReferenceQty.IsPositive() {
		return decimal.Zero, nil
	}

	for _, item := range bom.Items {
		if item.ItemCode == itemCode && item.ItemType == entities.ItemTypeScrapItem {
			return item.Qty.Div(bom.ReferenceQty), nil
		}
	}
	return decimal.Zero, nil
}

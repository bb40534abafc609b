package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// BOMRepository provides read access to Bill of Materials data held by the
// external BOM service. All methods tolerate absent data: an item missing
// from the BOM yields a zero quantity, and callers treat a non-positive
// reference quantity as "every ratio is zero".
type BOMRepository interface {
	// ReferenceQty returns the batch size the BOM's item ratios are
	// expressed against.
	ReferenceQty(ctx context.Context, bomID string) (decimal.Decimal, error)

	// ItemQuantities returns the BOM quantity for each requested item code.
	// Items absent from the BOM are simply missing from the result map.
	ItemQuantities(ctx context.Context, bomID string, itemCodes []entities.ItemCode) (map[entities.ItemCode]decimal.Decimal, error)

	// RawMaterialItems returns the BOM's raw-material lines in BOM order,
	// used to populate the consumption table when a BOM is selected.
	RawMaterialItems(ctx context.Context, bomID string) ([]entities.BOMItem, error)

	// MainAndScrapItems returns the BOM's main-product and scrap lines,
	// used to auto-add output rows once a manufactured quantity is entered.
	MainAndScrapItems(ctx context.Context, bomID string) ([]entities.BOMItem, error)

	// ScrapRatio returns the scrap quantity per reference-quantity unit for
	// an item, or zero when the item is not a scrap line of the BOM.
	ScrapRatio(ctx context.Context, bomID string, itemCode entities.ItemCode) (decimal.Decimal, error)
}

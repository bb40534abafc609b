package entities

import "github.com/shopspring/decimal"

// ItemCode represents a unique item identifier in the item master
type ItemCode string

// Item type tags as they appear on BOM lines and consumption rows. The tag
// is advisory input to classification; the PRIME item-code prefix takes
// priority over it.
const (
	ItemTypeRawMaterial = "Raw Material"
	ItemTypeMainItem    = "Main Item"
	ItemTypeScrapItem   = "Scrap Item"
)

// Item represents an item-master entry. Rate fields feed the valuation
// fallback chain used when pricing stock-entry receipt lines.
type Item struct {
	Code             ItemCode
	Name             string
	StockUOM         string
	ItemType         string
	ValuationRate    decimal.Decimal
	StandardRate     decimal.Decimal
	LastPurchaseRate decimal.Decimal
}

// BOMItem represents a single line of a Bill of Materials: the item and the
// quantity required per ReferenceQty units of the BOM's product.
type BOMItem struct {
	ItemCode ItemCode
	ItemName string
	ItemType string
	Qty      decimal.Decimal
	UOM      string
}

// Package gormdb provides the MySQL-backed repository implementations used
// when the reconciliation engine runs against the live ERP database.
package gormdb

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// ItemModel mirrors the item-master table.
type ItemModel struct {
	Code             string          `gorm:"primaryKey;size:140"`
	Name             string          `gorm:"size:255"`
	StockUOM         string          `gorm:"size:50"`
	ItemType         string          `gorm:"size:50;index"`
	ValuationRate    decimal.Decimal `gorm:"type:decimal(18,6)"`
	StandardRate     decimal.Decimal `gorm:"type:decimal(18,6)"`
	LastPurchaseRate decimal.Decimal `gorm:"type:decimal(18,6)"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (ItemModel) TableName() string {
	return "items"
}

func (m *ItemModel) toEntity() *entities.Item {
	return &entities.Item{
		Code:             entities.ItemCode(m.Code),
		Name:             m.Name,
		StockUOM:         m.StockUOM,
		ItemType:         m.ItemType,
		ValuationRate:    m.ValuationRate,
		StandardRate:     m.StandardRate,
		LastPurchaseRate: m.LastPurchaseRate,
	}
}

// BOMModel is the Bill of Materials header.
type BOMModel struct {
	ID           string          `gorm:"primaryKey;size:140"`
	ReferenceQty decimal.Decimal `gorm:"type:decimal(18,6)"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`

	Lines []BOMLineModel `gorm:"foreignKey:BOMID"`
}

func (BOMModel) TableName() string {
	return "boms"
}

// BOMLineModel is one ordered line of a BOM.
type BOMLineModel struct {
	ID       uint            `gorm:"primaryKey;autoIncrement"`
	BOMID    string          `gorm:"size:140;index;not null"`
	Position int             `gorm:"not null"`
	ItemCode string          `gorm:"size:140;index;not null"`
	ItemName string          `gorm:"size:255"`
	ItemType string          `gorm:"size:50"`
	Qty      decimal.Decimal `gorm:"type:decimal(18,6)"`
	UOM      string          `gorm:"size:50"`
}

func (BOMLineModel) TableName() string {
	return "bom_lines"
}

func (m *BOMLineModel) toEntity() entities.BOMItem {
	return entities.BOMItem{
		ItemCode: entities.ItemCode(m.ItemCode),
		ItemName: m.ItemName,
		ItemType: m.ItemType,
		Qty:      m.Qty,
		UOM:      m.UOM,
	}
}

// ShiftBalanceModel is one submitted record's record-level closing
// balances on the shift timeline.
type ShiftBalanceModel struct {
	RecordID      string          `gorm:"primaryKey;size:140"`
	Date          time.Time       `gorm:"index:idx_shift_balance_ref;not null"`
	Shift         int             `gorm:"index:idx_shift_balance_ref;not null"`
	HopperClosing decimal.Decimal `gorm:"type:decimal(18,6)"`
	MipClosing    decimal.Decimal `gorm:"type:decimal(18,6)"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

func (ShiftBalanceModel) TableName() string {
	return "shift_balances"
}

// ShiftClosingModel is one item's closing stock within a submitted record.
type ShiftClosingModel struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	RecordID     string          `gorm:"size:140;index;not null"`
	Date         time.Time       `gorm:"index:idx_shift_closing_ref;not null"`
	Shift        int             `gorm:"index:idx_shift_closing_ref;not null"`
	ItemCode     string          `gorm:"size:140;index;not null"`
	ClosingStock decimal.Decimal `gorm:"type:decimal(18,6)"`
}

func (ShiftClosingModel) TableName() string {
	return "shift_closings"
}

// ValuationModel is the latest ledger valuation per item and warehouse.
type ValuationModel struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	ItemCode  string          `gorm:"size:140;uniqueIndex:idx_valuation_scope;not null"`
	Warehouse string          `gorm:"size:140;uniqueIndex:idx_valuation_scope;not null"`
	Rate      decimal.Decimal `gorm:"type:decimal(18,6)"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (ValuationModel) TableName() string {
	return "warehouse_valuations"
}

// Migrate creates or updates every table the repositories read.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ItemModel{},
		&BOMModel{},
		&BOMLineModel{},
		&ShiftBalanceModel{},
		&ShiftClosingModel{},
		&ValuationModel{},
	)
}

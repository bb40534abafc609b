package events

import (
	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

const (
	RecordFieldChangedEvent = "record.field.changed"
	RowFieldChangedEvent    = "row.field.changed"
	RowAddedEvent           = "row.added"
	RecordStateChangedEvent = "record.state.changed"
	RecordSubmittedEvent    = "record.submitted"
	BOMPopulatedEvent       = "bom.populated"
)

type RecordFieldChanged struct {
	RecordID string          `json:"record_id"`
	Field    string          `json:"field"`
	Old      decimal.Decimal `json:"old"`
	New      decimal.Decimal `json:"new"`
	Origin   string          `json:"origin"`
}

type RowFieldChanged struct {
	RecordID string            `json:"record_id"`
	ItemCode entities.ItemCode `json:"item_code"`
	Field    string            `json:"field"`
	Old      string            `json:"old"`
	New      string            `json:"new"`
	Origin   string            `json:"origin"`
}

type RowAdded struct {
	RecordID string            `json:"record_id"`
	ItemCode entities.ItemCode `json:"item_code"`
	Category string            `json:"category"`
}

type RecordStateChanged struct {
	RecordID string `json:"record_id"`
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
	Saving   bool   `json:"saving"`
}

type RecordSubmitted struct {
	RecordID     string `json:"record_id"`
	StockEntryNo string `json:"stock_entry_no"`
}

type BOMPopulated struct {
	RecordID string `json:"record_id"`
	BOMID    string `json:"bom_id"`
	RowCount int    `json:"row_count"`
}

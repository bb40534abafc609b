// Package output renders production records and stock entries for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hexplastics/prodlog/pkg/application/services/stockentry"
	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	Out    io.Writer
}

// RenderRecord writes a production record in the configured format.
func RenderRecord(record *entities.ProductionRecord, entries []*stockentry.Entry, config Config) error {
	switch config.Format {
	case "text":
		return renderText(record, entries, config.Out)
	case "json":
		return renderJSON(record, entries, config.Out)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func renderText(record *entities.ProductionRecord, entries []*stockentry.Entry, w io.Writer) error {
	fmt.Fprintf(w, "Production Record %s (%s, %s)\n", record.ID, record.ProductionDate, record.State)
	fmt.Fprintf(w, "==========================================\n\n")

	fmt.Fprintf(w, "BOM: %s\n", orDash(record.BOMID))
	fmt.Fprintf(w, "Qty to Manufacture: %s   Manufactured: %s\n",
		record.QtyToManufacture, record.ManufacturedQty)
	fmt.Fprintf(w, "Gross: %s   Packing: %s   Net: %s\n",
		record.GrossWeight, record.PackingWeight, record.NetWeight)
	fmt.Fprintf(w, "Hopper: opening %s, add/used %s, closing %s\n",
		record.HopperOpeningQty, record.HopperAddOrUsed, record.HopperClosingQty)
	fmt.Fprintf(w, "MIP: opening %s, generated %s, used %s, closing %s\n\n",
		record.MipOpeningQty, record.MipGenerated, record.MipUsed, record.MipClosingQty)

	if len(record.Rows) > 0 {
		fmt.Fprintf(w, "Material Consumption:\n")
		fmt.Fprintf(w, "%-15s %-14s %-10s %-10s %-12s %-10s %-10s %-22s\n",
			"Item", "Category", "Opening", "Issued", "Consumption", "In Qty", "Closing", "Warehouse")
		fmt.Fprintf(w, "%-15s %-14s %-10s %-10s %-12s %-10s %-10s %-22s\n",
			"---------------", "--------------", "----------", "----------",
			"------------", "----------", "----------", "----------------------")

		for _, row := range record.Rows {
			warehouse := row.SourceWarehouse
			if warehouse == "" {
				warehouse = row.TargetWarehouse
			}
			fmt.Fprintf(w, "%-15s %-14s %-10s %-10s %-12s %-10s %-10s %-22s\n",
				row.ItemCode,
				row.Category,
				row.OpeningStock,
				row.Issued,
				markOverride(row.Consumption.String(), row.Overrides.Consumption),
				markOverride(row.InQty.String(), row.Overrides.InQty),
				row.ClosingStock,
				warehouse)
		}
		fmt.Fprintln(w)
	}

	for _, entry := range entries {
		renderEntryText(entry, w)
	}
	return nil
}

func renderEntryText(entry *stockentry.Entry, w io.Writer) {
	fmt.Fprintf(w, "Stock Entry (%s):\n", entry.Purpose)
	fmt.Fprintf(w, "%-15s %-10s %-22s %-22s %-10s\n",
		"Item", "Qty", "Source", "Target", "Rate")
	fmt.Fprintf(w, "%-15s %-10s %-22s %-22s %-10s\n",
		"---------------", "----------", "----------------------", "----------------------", "----------")
	for _, line := range entry.Lines {
		fmt.Fprintf(w, "%-15s %-10s %-22s %-22s %-10s\n",
			line.ItemCode, line.Qty,
			orDash(line.SourceWarehouse), orDash(line.TargetWarehouse), line.Rate)
	}
	fmt.Fprintln(w)
}

type jsonRow struct {
	ItemCode        string `json:"item_code"`
	Category        string `json:"category"`
	OpeningStock    string `json:"opening_stock"`
	Issued          string `json:"issued"`
	Consumption     string `json:"consumption"`
	ConsumptionUser bool   `json:"consumption_overridden"`
	InQty           string `json:"in_qty"`
	InQtyUser       bool   `json:"in_qty_overridden"`
	ClosingStock    string `json:"closing_stock"`
	SourceWarehouse string `json:"source_warehouse,omitempty"`
	TargetWarehouse string `json:"target_warehouse,omitempty"`
}

type jsonRecord struct {
	ID               string              `json:"id"`
	Date             string              `json:"date"`
	Shift            string              `json:"shift"`
	State            string              `json:"state"`
	BOMID            string              `json:"bom_id,omitempty"`
	QtyToManufacture string              `json:"qty_to_manufacture"`
	ManufacturedQty  string              `json:"manufactured_qty"`
	NetWeight        string              `json:"net_weight"`
	HopperClosing    string              `json:"hopper_closing_qty"`
	MipClosing       string              `json:"mip_closing_qty"`
	StockEntryNo     string              `json:"stock_entry_no,omitempty"`
	Rows             []jsonRow           `json:"rows"`
	Entries          []*stockentry.Entry `json:"stock_entries,omitempty"`
}

func renderJSON(record *entities.ProductionRecord, entries []*stockentry.Entry, w io.Writer) error {
	out := jsonRecord{
		ID:               record.ID,
		Date:             record.ProductionDate.Date.Format("2006-01-02"),
		Shift:            record.ProductionDate.Shift.String(),
		State:            record.State.String(),
		BOMID:            record.BOMID,
		QtyToManufacture: record.QtyToManufacture.String(),
		ManufacturedQty:  record.ManufacturedQty.String(),
		NetWeight:        record.NetWeight.String(),
		HopperClosing:    record.HopperClosingQty.String(),
		MipClosing:       record.MipClosingQty.String(),
		StockEntryNo:     record.StockEntryNo,
		Entries:          entries,
	}
	for _, row := range record.Rows {
		out.Rows = append(out.Rows, jsonRow{
			ItemCode:        string(row.ItemCode),
			Category:        row.Category.String(),
			OpeningStock:    row.OpeningStock.String(),
			Issued:          row.Issued.String(),
			Consumption:     row.Consumption.String(),
			ConsumptionUser: row.Overrides.Consumption,
			InQty:           row.InQty.String(),
			InQtyUser:       row.Overrides.InQty,
			ClosingStock:    row.ClosingStock.String(),
			SourceWarehouse: row.SourceWarehouse,
			TargetWarehouse: row.TargetWarehouse,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// markOverride suffixes a user-owned value so overrides stand out in the
// table.
func markOverride(value string, overridden bool) string {
	if overridden {
		return value + "*"
	}
	return value
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

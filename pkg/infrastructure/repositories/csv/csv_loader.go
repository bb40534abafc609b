// Package csv loads scenario data for the CLI: an item master, BOM
// definitions, and prior-shift ledger history, all from flat CSV files.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/infrastructure/repositories/memory"
)

// Loader handles loading scenario data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems loads the item master from a CSV file
func (l *Loader) LoadItems(filename string) ([]entities.Item, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}

	expectedHeader := []string{"item_code", "item_name", "stock_uom", "item_type", "valuation_rate", "standard_rate", "last_purchase_rate"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("items CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var items []entities.Item
	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("items CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		item, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// LoadBOMs loads BOM definitions from a CSV file. Lines sharing a bom_id
// are grouped into one BOM; every line of a BOM must repeat the same
// reference_qty.
func (l *Loader) LoadBOMs(filename string) ([]memory.BOM, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}

	expectedHeader := []string{"bom_id", "reference_qty", "item_code", "item_name", "item_type", "qty", "uom"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("BOM CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var order []string
	boms := make(map[string]*memory.BOM)

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("BOM CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		bomID := record[0]
		refQty, err := parseDecimal(record[1], "reference_qty")
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		qty, err := parseDecimal(record[5], "qty")
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}

		bom, exists := boms[bomID]
		if !exists {
			bom = &memory.BOM{ID: bomID, ReferenceQty: refQty}
			boms[bomID] = bom
			order = append(order, bomID)
		} else if !bom.ReferenceQty.Equal(refQty) {
			return nil, fmt.Errorf("BOM CSV row %d: bom %s has conflicting reference_qty %s vs %s", i+2, bomID, refQty, bom.ReferenceQty)
		}

		bom.Items = append(bom.Items, entities.BOMItem{
			ItemCode: entities.ItemCode(record[2]),
			ItemName: record[3],
			ItemType: record[4],
			Qty:      qty,
			UOM:      record[6],
		})
	}

	result := make([]memory.BOM, 0, len(order))
	for _, id := range order {
		result = append(result, *boms[id])
	}
	return result, nil
}

// LoadLedgerHistory loads prior-shift closing balances from a CSV file.
// Rows sharing a record_id form one shift snapshot; the hopper and MIP
// balances are taken from the snapshot's first row.
func (l *Loader) LoadLedgerHistory(filename string) ([]memory.ShiftSnapshot, error) {
	records, err := readAll(filename)
	if err != nil {
		return nil, err
	}

	expectedHeader := []string{"record_id", "date", "shift", "item_code", "closing_stock", "hopper_closing", "mip_closing"}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("ledger CSV header mismatch. Expected: %v, Got: %v", expectedHeader, records[0])
	}

	var order []string
	snapshots := make(map[string]*memory.ShiftSnapshot)

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("ledger CSV row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}

		recordID := record[0]

		date, err := time.Parse("2006-01-02", record[1])
		if err != nil {
			return nil, fmt.Errorf("ledger CSV row %d: invalid date %s (expected YYYY-MM-DD)", i+2, record[1])
		}
		shift, err := entities.ParseShift(record[2])
		if err != nil {
			return nil, fmt.Errorf("ledger CSV row %d: %w", i+2, err)
		}

		snapshot, exists := snapshots[recordID]
		if !exists {
			hopper, err := parseDecimal(record[5], "hopper_closing")
			if err != nil {
				return nil, fmt.Errorf("ledger CSV row %d: %w", i+2, err)
			}
			mip, err := parseDecimal(record[6], "mip_closing")
			if err != nil {
				return nil, fmt.Errorf("ledger CSV row %d: %w", i+2, err)
			}

			snapshot = &memory.ShiftSnapshot{
				RecordID:      recordID,
				Ref:           entities.NewShiftRef(date, shift),
				ClosingStocks: make(map[entities.ItemCode]decimal.Decimal),
				HopperClosing: hopper,
				MipClosing:    mip,
			}
			snapshots[recordID] = snapshot
			order = append(order, recordID)
		}

		if record[3] != "" {
			closing, err := parseDecimal(record[4], "closing_stock")
			if err != nil {
				return nil, fmt.Errorf("ledger CSV row %d: %w", i+2, err)
			}
			snapshot.ClosingStocks[entities.ItemCode(record[3])] = closing
		}
	}

	result := make([]memory.ShiftSnapshot, 0, len(order))
	for _, id := range order {
		result = append(result, *snapshots[id])
	}
	return result, nil
}

// Helper functions for parsing CSV records

func readAll(filename string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}
	return records, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (entities.Item, error) {
	valuation, err := parseDecimal(record[4], "valuation_rate")
	if err != nil {
		return entities.Item{}, err
	}
	standard, err := parseDecimal(record[5], "standard_rate")
	if err != nil {
		return entities.Item{}, err
	}
	lastPurchase, err := parseDecimal(record[6], "last_purchase_rate")
	if err != nil {
		return entities.Item{}, err
	}

	return entities.Item{
		Code:             entities.ItemCode(record[0]),
		Name:             record[1],
		StockUOM:         record[2],
		ItemType:         record[3],
		ValuationRate:    valuation,
		StandardRate:     standard,
		LastPurchaseRate: lastPurchase,
	}, nil
}

func parseDecimal(s, column string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", column, s)
	}
	return value, nil
}

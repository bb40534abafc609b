package stockentry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

type stubItems struct {
	items map[entities.ItemCode]*entities.Item
}

func (s *stubItems) GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error) {
	if item, ok := s.items[code]; ok {
		return item, nil
	}
	return nil, errors.New("item not found")
}

type stubLedger struct {
	rates map[string]decimal.Decimal
}

func (s *stubLedger) PreviousClosingStock(ctx context.Context, codes []entities.ItemCode, ref entities.ShiftRef, excludeID string) (map[entities.ItemCode]decimal.Decimal, error) {
	return nil, nil
}

func (s *stubLedger) PreviousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubLedger) PreviousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubLedger) ValuationRate(ctx context.Context, code entities.ItemCode, warehouse string) (decimal.Decimal, error) {
	if rate, ok := s.rates[string(code)+"|"+warehouse]; ok {
		return rate, nil
	}
	return decimal.Zero, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quiet() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRecord() *entities.ProductionRecord {
	ref := entities.NewShiftRef(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), entities.ShiftDay)
	record := entities.NewProductionRecord("PLB-0042", ref)
	record.Rows = []*entities.ConsumptionRow{
		{
			ItemCode:        "LDPE",
			ItemName:        "LDPE Granules",
			StockUOM:        "Kg",
			Category:        entities.RawMaterial,
			Consumption:     dec("8"),
			SourceWarehouse: "Raw Material - HEX",
		},
		{
			ItemCode:        "FABRIC",
			ItemName:        "Woven Fabric",
			StockUOM:        "Kg",
			Category:        entities.MainProduct,
			InQty:           dec("40"),
			TargetWarehouse: "Finished Goods - HEX",
		},
		{
			ItemCode:        "SCRAP-FILM",
			ItemName:        "Film Scrap",
			StockUOM:        "Kg",
			Category:        entities.Scrap,
			InQty:           dec("4"),
			TargetWarehouse: "Production - HEX",
		},
	}
	return record
}

func TestBuildManufacture(t *testing.T) {
	builder := NewBuilder(
		&stubItems{items: map[entities.ItemCode]*entities.Item{
			"FABRIC": {Code: "FABRIC", ValuationRate: dec("110")},
		}},
		&stubLedger{},
		"Hopper - HEX",
		quiet(),
	)

	entry, err := builder.BuildManufacture(context.Background(), testRecord())
	if err != nil {
		t.Fatalf("BuildManufacture failed: %v", err)
	}
	if entry.Purpose != PurposeManufacture {
		t.Errorf("purpose = %q", entry.Purpose)
	}
	if len(entry.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(entry.Lines))
	}

	issue := entry.Lines[0]
	if issue.SourceWarehouse != "Raw Material - HEX" || issue.TargetWarehouse != "" {
		t.Errorf("raw line warehouses = %q/%q", issue.SourceWarehouse, issue.TargetWarehouse)
	}
	if !issue.Qty.Equal(dec("8")) {
		t.Errorf("raw line qty = %s, want consumption 8", issue.Qty)
	}

	receipt := entry.Lines[1]
	if receipt.TargetWarehouse != "Finished Goods - HEX" || receipt.SourceWarehouse != "" {
		t.Errorf("main line warehouses = %q/%q", receipt.SourceWarehouse, receipt.TargetWarehouse)
	}
	if !receipt.Qty.Equal(dec("40")) {
		t.Errorf("main line qty = %s, want in-qty 40", receipt.Qty)
	}
	if !receipt.Rate.Equal(dec("110")) {
		t.Errorf("main line rate = %s, want item master valuation 110", receipt.Rate)
	}
}

func TestBuildManufacture_SkipsZeroAndPrimeRows(t *testing.T) {
	builder := NewBuilder(&stubItems{}, &stubLedger{}, "", quiet())

	record := testRecord()
	record.Rows[0].Consumption = decimal.Zero
	record.Rows = append(record.Rows, &entities.ConsumptionRow{
		ItemCode:     "PRIME-FABRIC",
		Category:     entities.PrimeProduct,
		ClosingStock: dec("12"),
	})

	entry, err := builder.BuildManufacture(context.Background(), record)
	if err != nil {
		t.Fatalf("BuildManufacture failed: %v", err)
	}
	if len(entry.Lines) != 2 {
		t.Fatalf("got %d lines, want 2 (zero raw and prime rows skipped)", len(entry.Lines))
	}
	for _, line := range entry.Lines {
		if line.ItemCode == "LDPE" || line.ItemCode == "PRIME-FABRIC" {
			t.Errorf("line for %s should have been skipped", line.ItemCode)
		}
	}
}

func TestBuildManufacture_RejectsNegativeQuantity(t *testing.T) {
	builder := NewBuilder(&stubItems{}, &stubLedger{}, "", quiet())

	record := testRecord()
	record.Rows[0].Consumption = dec("-2")

	if _, err := builder.BuildManufacture(context.Background(), record); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("expected ErrNegativeQuantity, got %v", err)
	}

	record = testRecord()
	record.Rows[2].InQty = dec("-1")
	if _, err := builder.BuildManufacture(context.Background(), record); !errors.Is(err, ErrNegativeQuantity) {
		t.Errorf("expected ErrNegativeQuantity for negative in-qty, got %v", err)
	}
}

func TestBuildManufacture_RejectsMissingWarehouse(t *testing.T) {
	builder := NewBuilder(&stubItems{}, &stubLedger{}, "", quiet())

	record := testRecord()
	record.Rows[1].TargetWarehouse = ""

	if _, err := builder.BuildManufacture(context.Background(), record); !errors.Is(err, ErrMissingWarehouse) {
		t.Errorf("expected ErrMissingWarehouse, got %v", err)
	}
}

func TestBuildManufacture_EmptyRecord(t *testing.T) {
	builder := NewBuilder(&stubItems{}, &stubLedger{}, "", quiet())

	record := testRecord()
	for _, row := range record.Rows {
		row.Consumption = decimal.Zero
		row.InQty = decimal.Zero
	}

	if _, err := builder.BuildManufacture(context.Background(), record); err == nil {
		t.Error("expected error for record with no movements")
	}
}

func TestBuildHopperReceipt(t *testing.T) {
	builder := NewBuilder(
		&stubItems{items: map[entities.ItemCode]*entities.Item{
			"MIX-HOPPER": {Code: "MIX-HOPPER", Name: "Hopper Mix", StockUOM: "Kg"},
		}},
		&stubLedger{rates: map[string]decimal.Decimal{"MIX-HOPPER|Hopper - HEX": dec("95")}},
		"Hopper - HEX",
		quiet(),
	)

	record := testRecord()
	record.HopperItem = "MIX-HOPPER"
	record.HopperClosingQty = dec("17")

	entry, err := builder.BuildHopperReceipt(context.Background(), record)
	if err != nil {
		t.Fatalf("BuildHopperReceipt failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a receipt entry")
	}
	if entry.Purpose != PurposeMaterialReceipt {
		t.Errorf("purpose = %q", entry.Purpose)
	}
	line := entry.Lines[0]
	if !line.Qty.Equal(dec("17")) || line.TargetWarehouse != "Hopper - HEX" {
		t.Errorf("line = %+v", line)
	}
	if !line.Rate.Equal(dec("95")) {
		t.Errorf("rate = %s, want ledger valuation 95", line.Rate)
	}
	if line.ItemName != "Hopper Mix" {
		t.Errorf("item name = %q", line.ItemName)
	}
}

func TestBuildHopperReceipt_SkipsNonPositiveBalance(t *testing.T) {
	builder := NewBuilder(&stubItems{}, &stubLedger{}, "Hopper - HEX", quiet())

	for _, qty := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		record := testRecord()
		record.HopperItem = "MIX-HOPPER"
		record.HopperClosingQty = qty

		entry, err := builder.BuildHopperReceipt(context.Background(), record)
		if err != nil {
			t.Fatalf("BuildHopperReceipt failed: %v", err)
		}
		if entry != nil {
			t.Errorf("balance %s: expected no receipt", qty)
		}
	}
}

func TestValuationRateFallbackChain(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		ledgerRate string
		item       *entities.Item
		want       string
	}{
		{
			name:       "ledger rate wins",
			ledgerRate: "120",
			item:       &entities.Item{ValuationRate: dec("100")},
			want:       "120",
		},
		{
			name: "item valuation rate",
			item: &entities.Item{ValuationRate: dec("100"), StandardRate: dec("90")},
			want: "100",
		},
		{
			name: "standard rate",
			item: &entities.Item{StandardRate: dec("90"), LastPurchaseRate: dec("80")},
			want: "90",
		},
		{
			name: "last purchase rate",
			item: &entities.Item{LastPurchaseRate: dec("80")},
			want: "80",
		},
		{
			name: "no rate anywhere",
			item: &entities.Item{},
			want: "0",
		},
		{
			name: "no item master entry",
			want: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{rates: map[string]decimal.Decimal{}}
			if tt.ledgerRate != "" {
				ledger.rates["X|WH"] = dec(tt.ledgerRate)
			}
			items := &stubItems{items: map[entities.ItemCode]*entities.Item{}}
			if tt.item != nil {
				items.items["X"] = tt.item
			}

			builder := NewBuilder(items, ledger, "", quiet())
			got := builder.valuationRate(ctx, "X", "WH")
			if !got.Equal(dec(tt.want)) {
				t.Errorf("rate = %s, want %s", got, tt.want)
			}
		})
	}
}

// absentItems reports a missing item master entry as (nil, nil), the
// repository interface's other legal miss shape.
type absentItems struct{}

func (absentItems) GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error) {
	return nil, nil
}

func TestBuildHopperReceipt_MissingItemMaster(t *testing.T) {
	builder := NewBuilder(absentItems{}, &stubLedger{}, "Hopper - HEX", quiet())

	record := testRecord()
	record.HopperItem = "MIX-HOPPER"
	record.HopperClosingQty = dec("17")

	entry, err := builder.BuildHopperReceipt(context.Background(), record)
	if err != nil {
		t.Fatalf("BuildHopperReceipt failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a receipt entry")
	}
	line := entry.Lines[0]
	if line.ItemName != "" || line.UOM != "" {
		t.Errorf("line description = %q/%q, want empty without item master", line.ItemName, line.UOM)
	}
	if !line.Rate.IsZero() {
		t.Errorf("rate = %s, want zero with no rate source", line.Rate)
	}
}

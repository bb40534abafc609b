package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

func seededLedger() *StockLedgerRepository {
	ledger := NewStockLedgerRepository()
	ledger.RecordSnapshot(ShiftSnapshot{
		RecordID: "PLB-A",
		Ref:      ref(9, entities.ShiftNight),
		ClosingStocks: map[entities.ItemCode]decimal.Decimal{
			"LDPE":  dec("5"),
			"CACO3": dec("2"),
		},
		HopperClosing: dec("12"),
		MipClosing:    dec("3"),
	})
	ledger.RecordSnapshot(ShiftSnapshot{
		RecordID: "PLB-B",
		Ref:      ref(10, entities.ShiftDay),
		ClosingStocks: map[entities.ItemCode]decimal.Decimal{
			"LDPE": dec("7"),
		},
		HopperClosing: dec("15"),
		MipClosing:    dec("4"),
	})
	return ledger
}

func TestLedger_PreviousClosingStock(t *testing.T) {
	ledger := seededLedger()

	// Night shift of the 10th looks back to the Day shift of the 10th for
	// LDPE, and skips through to the 9th for CACO3 which the Day record
	// did not carry.
	stocks, err := ledger.PreviousClosingStock(context.Background(),
		[]entities.ItemCode{"LDPE", "CACO3", "UNSEEN"},
		ref(10, entities.ShiftNight), "")
	if err != nil {
		t.Fatalf("PreviousClosingStock failed: %v", err)
	}

	if !stocks["LDPE"].Equal(dec("7")) {
		t.Errorf("LDPE = %s, want 7 from the same-day Day shift", stocks["LDPE"])
	}
	if !stocks["CACO3"].Equal(dec("2")) {
		t.Errorf("CACO3 = %s, want 2 from the prior night", stocks["CACO3"])
	}
	if _, ok := stocks["UNSEEN"]; ok {
		t.Error("item with no history should be missing from the result")
	}
}

func TestLedger_DayShiftLooksToPreviousNight(t *testing.T) {
	ledger := seededLedger()

	stocks, err := ledger.PreviousClosingStock(context.Background(),
		[]entities.ItemCode{"LDPE"}, ref(10, entities.ShiftDay), "")
	if err != nil {
		t.Fatalf("PreviousClosingStock failed: %v", err)
	}
	if !stocks["LDPE"].Equal(dec("5")) {
		t.Errorf("LDPE = %s, want 5; the Day shift must not see its own snapshot", stocks["LDPE"])
	}
}

func TestLedger_ExcludesRecordUnderEdit(t *testing.T) {
	ledger := seededLedger()

	// Re-editing PLB-B: its own snapshot must not feed its carry-forward.
	stocks, err := ledger.PreviousClosingStock(context.Background(),
		[]entities.ItemCode{"LDPE"}, ref(10, entities.ShiftNight), "PLB-B")
	if err != nil {
		t.Fatalf("PreviousClosingStock failed: %v", err)
	}
	if !stocks["LDPE"].Equal(dec("5")) {
		t.Errorf("LDPE = %s, want 5 with PLB-B excluded", stocks["LDPE"])
	}

	hopper, err := ledger.PreviousHopperClosing(context.Background(), ref(10, entities.ShiftNight), "PLB-B")
	if err != nil {
		t.Fatalf("PreviousHopperClosing failed: %v", err)
	}
	if !hopper.Equal(dec("12")) {
		t.Errorf("hopper = %s, want 12 with PLB-B excluded", hopper)
	}
}

func TestLedger_HopperAndMipClosing(t *testing.T) {
	ledger := seededLedger()

	hopper, err := ledger.PreviousHopperClosing(context.Background(), ref(10, entities.ShiftNight), "")
	if err != nil {
		t.Fatalf("PreviousHopperClosing failed: %v", err)
	}
	if !hopper.Equal(dec("15")) {
		t.Errorf("hopper = %s, want 15", hopper)
	}

	mip, err := ledger.PreviousMipClosing(context.Background(), ref(11, entities.ShiftDay), "")
	if err != nil {
		t.Fatalf("PreviousMipClosing failed: %v", err)
	}
	if !mip.Equal(dec("4")) {
		t.Errorf("mip = %s, want 4", mip)
	}
}

func TestLedger_NoHistoryYieldsZero(t *testing.T) {
	ledger := seededLedger()

	hopper, err := ledger.PreviousHopperClosing(context.Background(), ref(9, entities.ShiftDay), "")
	if err != nil {
		t.Fatalf("PreviousHopperClosing failed: %v", err)
	}
	if !hopper.IsZero() {
		t.Errorf("hopper = %s, want 0 before any history", hopper)
	}
}

func TestLedger_SnapshotReplaceAndRemove(t *testing.T) {
	ledger := seededLedger()

	ledger.RecordSnapshot(ShiftSnapshot{
		RecordID:      "PLB-B",
		Ref:           ref(10, entities.ShiftDay),
		ClosingStocks: map[entities.ItemCode]decimal.Decimal{"LDPE": dec("9")},
	})

	stocks, _ := ledger.PreviousClosingStock(context.Background(),
		[]entities.ItemCode{"LDPE"}, ref(10, entities.ShiftNight), "")
	if !stocks["LDPE"].Equal(dec("9")) {
		t.Errorf("LDPE = %s, want replaced value 9", stocks["LDPE"])
	}

	ledger.RemoveSnapshot("PLB-B")
	stocks, _ = ledger.PreviousClosingStock(context.Background(),
		[]entities.ItemCode{"LDPE"}, ref(10, entities.ShiftNight), "")
	if !stocks["LDPE"].Equal(dec("5")) {
		t.Errorf("LDPE = %s, want 5 after removal", stocks["LDPE"])
	}
}

func TestLedger_ValuationRate(t *testing.T) {
	ledger := NewStockLedgerRepository()
	ledger.SetValuationRate("LDPE", "Raw Material - HEX", dec("92.5"))

	rate, err := ledger.ValuationRate(context.Background(), "LDPE", "Raw Material - HEX")
	if err != nil {
		t.Fatalf("ValuationRate failed: %v", err)
	}
	if !rate.Equal(dec("92.5")) {
		t.Errorf("rate = %s, want 92.5", rate)
	}

	rate, err = ledger.ValuationRate(context.Background(), "LDPE", "Other - HEX")
	if err != nil {
		t.Fatalf("ValuationRate failed: %v", err)
	}
	if !rate.IsZero() {
		t.Errorf("rate = %s, want 0 for unknown warehouse", rate)
	}
}

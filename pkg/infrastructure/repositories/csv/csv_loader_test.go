package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoadItems(t *testing.T) {
	path := writeFile(t, "items.csv",
		"item_code,item_name,stock_uom,item_type,valuation_rate,standard_rate,last_purchase_rate\n"+
			"LDPE,LDPE Granules,Kg,Raw Material,92.5,90,88\n"+
			"FABRIC,Woven Fabric,Kg,Main Item,,,\n")

	items, err := NewLoader().LoadItems(path)
	if err != nil {
		t.Fatalf("LoadItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].Code != "LDPE" || !items[0].ValuationRate.Equal(dec("92.5")) {
		t.Errorf("item[0] = %+v", items[0])
	}
	// Empty rate columns parse as zero.
	if !items[1].ValuationRate.IsZero() || !items[1].StandardRate.IsZero() {
		t.Errorf("item[1] rates = %s/%s, want zero", items[1].ValuationRate, items[1].StandardRate)
	}
}

func TestLoadItems_BadHeader(t *testing.T) {
	path := writeFile(t, "items.csv",
		"code,name\nLDPE,LDPE Granules\n")

	if _, err := NewLoader().LoadItems(path); err == nil {
		t.Error("expected header mismatch error")
	}
}

func TestLoadBOMs(t *testing.T) {
	path := writeFile(t, "boms.csv",
		"bom_id,reference_qty,item_code,item_name,item_type,qty,uom\n"+
			"BOM-FABRIC-001,100,LDPE,LDPE Granules,Raw Material,20,Kg\n"+
			"BOM-FABRIC-001,100,FABRIC,Woven Fabric,Main Item,90,Kg\n"+
			"BOM-FABRIC-001,100,SCRAP-FILM,Film Scrap,Scrap Item,10,Kg\n"+
			"BOM-TAPE-002,50,PP,PP Granules,Raw Material,30,Kg\n")

	boms, err := NewLoader().LoadBOMs(path)
	if err != nil {
		t.Fatalf("LoadBOMs failed: %v", err)
	}
	if len(boms) != 2 {
		t.Fatalf("got %d BOMs, want 2", len(boms))
	}

	fabric := boms[0]
	if fabric.ID != "BOM-FABRIC-001" || !fabric.ReferenceQty.Equal(dec("100")) {
		t.Errorf("bom[0] = %+v", fabric)
	}
	if len(fabric.Items) != 3 || fabric.Items[0].ItemCode != "LDPE" {
		t.Errorf("fabric items = %v", fabric.Items)
	}
	if boms[1].ID != "BOM-TAPE-002" {
		t.Errorf("bom[1] = %+v", boms[1])
	}
}

func TestLoadBOMs_ConflictingReferenceQty(t *testing.T) {
	path := writeFile(t, "boms.csv",
		"bom_id,reference_qty,item_code,item_name,item_type,qty,uom\n"+
			"BOM-X,100,LDPE,LDPE,Raw Material,20,Kg\n"+
			"BOM-X,200,PP,PP,Raw Material,10,Kg\n")

	if _, err := NewLoader().LoadBOMs(path); err == nil {
		t.Error("expected error for conflicting reference_qty")
	}
}

func TestLoadLedgerHistory(t *testing.T) {
	path := writeFile(t, "ledger.csv",
		"record_id,date,shift,item_code,closing_stock,hopper_closing,mip_closing\n"+
			"PLB-A,2025-03-09,Night,LDPE,5,12,3\n"+
			"PLB-A,2025-03-09,Night,CACO3,2,12,3\n"+
			"PLB-B,2025-03-10,Day,LDPE,7,15,4\n")

	snapshots, err := NewLoader().LoadLedgerHistory(path)
	if err != nil {
		t.Fatalf("LoadLedgerHistory failed: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snapshots))
	}

	a := snapshots[0]
	if a.RecordID != "PLB-A" || a.Ref.Shift != entities.ShiftNight {
		t.Errorf("snapshot[0] = %+v", a)
	}
	if len(a.ClosingStocks) != 2 || !a.ClosingStocks["CACO3"].Equal(dec("2")) {
		t.Errorf("closing stocks = %v", a.ClosingStocks)
	}
	if !a.HopperClosing.Equal(dec("12")) || !a.MipClosing.Equal(dec("3")) {
		t.Errorf("balances = %s/%s", a.HopperClosing, a.MipClosing)
	}
}

func TestLoadLedgerHistory_BadShift(t *testing.T) {
	path := writeFile(t, "ledger.csv",
		"record_id,date,shift,item_code,closing_stock,hopper_closing,mip_closing\n"+
			"PLB-A,2025-03-09,Graveyard,LDPE,5,12,3\n")

	if _, err := NewLoader().LoadLedgerHistory(path); err == nil {
		t.Error("expected error for unknown shift label")
	}
}

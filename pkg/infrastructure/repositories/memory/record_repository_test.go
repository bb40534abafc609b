package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/application/services/stockentry"
	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
)

func newSubmittableRecord(id string) *entities.ProductionRecord {
	record := entities.NewProductionRecord(id, ref(10, entities.ShiftDay))
	record.Rows = []*entities.ConsumptionRow{
		{
			ItemCode:        "LDPE",
			Category:        entities.RawMaterial,
			Consumption:     dec("8"),
			ClosingStock:    dec("7"),
			SourceWarehouse: "Raw Material - HEX",
		},
		{
			ItemCode:        "FABRIC",
			Category:        entities.MainProduct,
			InQty:           dec("40"),
			TargetWarehouse: "Finished Goods - HEX",
		},
	}
	record.HopperClosingQty = dec("11")
	record.MipClosingQty = dec("3")
	return record
}

func newRecordFixture() (*RecordRepository, *StockLedgerRepository, *events.InMemoryEventStore) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	items := NewItemRepository()
	items.AddItem(entities.Item{Code: "FABRIC", Name: "Woven Fabric", ValuationRate: dec("110")})

	ledger := NewStockLedgerRepository()
	builder := stockentry.NewBuilder(items, ledger, "", log)
	store := events.NewInMemoryEventStore()
	return NewRecordRepository(builder, ledger, store), ledger, store
}

func TestRecordRepository_CreateAssignsID(t *testing.T) {
	repo, _, _ := newRecordFixture()

	record := entities.NewProductionRecord("", ref(10, entities.ShiftDay))
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(record.ID, "PLB-") {
		t.Errorf("ID = %q, want PLB- prefix", record.ID)
	}

	got, err := repo.Get(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != record {
		t.Error("Get returned a different record")
	}
}

func TestRecordRepository_SubmitPostsAndFeedsLedger(t *testing.T) {
	ctx := context.Background()
	repo, ledger, store := newRecordFixture()

	record := newSubmittableRecord("PLB-1001")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Submit(ctx, record); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if record.State != entities.StateSubmitted {
		t.Errorf("state = %s, want Submitted", record.State)
	}
	if record.StockEntryNo == "" {
		t.Fatal("no stock entry reference assigned")
	}

	entry, ok := repo.PostedEntry(record.StockEntryNo)
	if !ok {
		t.Fatal("posted entry not found")
	}
	if entry.Purpose != stockentry.PurposeManufacture || len(entry.Lines) != 2 {
		t.Errorf("entry = %+v", entry)
	}

	// The record's closing balances now feed the next shift.
	stocks, err := ledger.PreviousClosingStock(ctx, []entities.ItemCode{"LDPE"}, ref(10, entities.ShiftNight), "")
	if err != nil {
		t.Fatalf("PreviousClosingStock failed: %v", err)
	}
	if !stocks["LDPE"].Equal(dec("7")) {
		t.Errorf("carried-forward LDPE = %s, want 7", stocks["LDPE"])
	}
	hopper, _ := ledger.PreviousHopperClosing(ctx, ref(10, entities.ShiftNight), "")
	if !hopper.Equal(dec("11")) {
		t.Errorf("carried-forward hopper = %s, want 11", hopper)
	}

	stream, err := store.ReadEvents(record.ID, 1)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	var submitted bool
	for _, event := range stream {
		if payload, ok := event.Data().(events.RecordSubmitted); ok {
			submitted = payload.StockEntryNo == record.StockEntryNo
		}
	}
	if !submitted {
		t.Error("no record-submitted event carrying the stock entry reference")
	}
}

func TestRecordRepository_SubmitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRecordFixture()

	record := newSubmittableRecord("PLB-1002")
	record.Rows[0].Consumption = dec("-1")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Submit(ctx, record); err == nil {
		t.Fatal("expected Submit to fail on negative consumption")
	}
	if record.State != entities.StateDraft {
		t.Errorf("state = %s, want Draft after failed submit", record.State)
	}
	if record.StockEntryNo != "" {
		t.Errorf("stock entry reference %q assigned despite failure", record.StockEntryNo)
	}
}

func TestRecordRepository_CancelRetractsLedger(t *testing.T) {
	ctx := context.Background()
	repo, ledger, _ := newRecordFixture()

	record := newSubmittableRecord("PLB-1003")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Submit(ctx, record); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := repo.Cancel(ctx, record); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if record.State != entities.StateCancelled {
		t.Errorf("state = %s, want Cancelled", record.State)
	}

	stocks, err := ledger.PreviousClosingStock(ctx, []entities.ItemCode{"LDPE"}, ref(10, entities.ShiftNight), "")
	if err != nil {
		t.Fatalf("PreviousClosingStock failed: %v", err)
	}
	if _, ok := stocks["LDPE"]; ok {
		t.Error("cancelled record still feeds carry-forward queries")
	}
}

func TestRecordRepository_LifecycleGuards(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := newRecordFixture()

	record := newSubmittableRecord("PLB-1004")
	if err := repo.Create(ctx, record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Cancel(ctx, record); err == nil {
		t.Error("cancelling a draft should fail")
	}

	if err := repo.Submit(ctx, record); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := repo.Submit(ctx, record); err == nil {
		t.Error("double submit should fail")
	}
	if err := repo.Save(ctx, record); err == nil {
		t.Error("saving a submitted record should fail")
	}
}

func TestRecordRepository_SaveAnnouncesSavingEdges(t *testing.T) {
	repo, _, store := newRecordFixture()

	record := newSubmittableRecord("PLB-0031")
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Save(context.Background(), record); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if record.Saving {
		t.Error("Saving flag still set after Save returned")
	}

	stream, err := store.ReadEvents(record.ID, 1)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	var changes []events.RecordStateChanged
	for _, event := range stream {
		if payload, ok := event.Data().(events.RecordStateChanged); ok {
			changes = append(changes, payload)
		}
	}
	if len(changes) != 2 {
		t.Fatalf("got %d state change events, want one per Saving edge", len(changes))
	}
	if !changes[0].Saving || changes[1].Saving {
		t.Errorf("saving edges = %v/%v, want true then false", changes[0].Saving, changes[1].Saving)
	}
	for _, change := range changes {
		if change.OldState != "Draft" || change.NewState != "Draft" {
			t.Errorf("states = %s -> %s, want Draft -> Draft", change.OldState, change.NewState)
		}
	}
}

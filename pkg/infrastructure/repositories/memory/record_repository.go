package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/application/services/stockentry"
	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
)

// RecordRepository is an in-memory production record store. Submit drives
// the one permitted side effect of the lifecycle: building and posting the
// record's stock entries and feeding the shift ledger so later shifts can
// carry the balances forward.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]*entities.ProductionRecord

	builder *stockentry.Builder
	ledger  *StockLedgerRepository
	events  events.EventStore

	// posted keeps every stock entry generated by Submit, keyed by entry
	// reference, for inspection.
	posted map[string]*stockentry.Entry
}

// NewRecordRepository creates a record store. builder and ledger may be nil
// when submit-time posting is not exercised; events may be nil to disable
// lifecycle notifications.
func NewRecordRepository(builder *stockentry.Builder, ledger *StockLedgerRepository, store events.EventStore) *RecordRepository {
	return &RecordRepository{
		records: make(map[string]*entities.ProductionRecord),
		builder: builder,
		ledger:  ledger,
		events:  store,
		posted:  make(map[string]*stockentry.Entry),
	}
}

// Verify interface compliance
var _ repositories.RecordRepository = (*RecordRepository)(nil)

// Create mints an identity for a new draft record and stores it.
func (r *RecordRepository) Create(ctx context.Context, record *entities.ProductionRecord) error {
	if record.State != entities.StateDraft {
		return fmt.Errorf("only draft records can be created, got %s", record.State)
	}
	if record.ID == "" {
		record.ID = "PLB-" + uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return fmt.Errorf("record already exists: %s", record.ID)
	}
	r.records[record.ID] = record
	return nil
}

// Save persists a draft. The record's Saving flag is set for the duration
// so engine writes stay suspended during the round-trip, and both edges of
// the flag are announced so the UI can track the round-trip.
func (r *RecordRepository) Save(ctx context.Context, record *entities.ProductionRecord) error {
	if record.State != entities.StateDraft {
		return fmt.Errorf("record %s is %s, only drafts can be saved", record.ID, record.State)
	}

	record.Saving = true
	r.emitStateChange(record, record.State)
	defer func() {
		record.Saving = false
		r.emitStateChange(record, record.State)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; !exists {
		return fmt.Errorf("record not found: %s", record.ID)
	}
	r.records[record.ID] = record
	return nil
}

// Submit transitions Draft -> Submitted: the record's stock entries are
// built and posted, its closing balances enter the shift ledger, and the
// record freezes. A build failure leaves the record a draft.
func (r *RecordRepository) Submit(ctx context.Context, record *entities.ProductionRecord) error {
	if record.State != entities.StateDraft {
		return fmt.Errorf("record %s is %s, only drafts can be submitted", record.ID, record.State)
	}

	record.Saving = true
	defer func() { record.Saving = false }()

	if r.builder != nil {
		entry, err := r.builder.BuildManufacture(ctx, record)
		if err != nil {
			return fmt.Errorf("building stock entry for %s: %w", record.ID, err)
		}
		record.StockEntryNo = r.post(entry)

		receipt, err := r.builder.BuildHopperReceipt(ctx, record)
		if err != nil {
			return fmt.Errorf("building hopper receipt for %s: %w", record.ID, err)
		}
		if receipt != nil {
			r.post(receipt)
		}
	}

	oldState := record.State
	record.State = entities.StateSubmitted

	if r.ledger != nil {
		r.ledger.RecordSnapshot(snapshotOf(record))
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	r.emitStateChange(record, oldState)
	r.emit(record.ID, events.RecordSubmittedEvent, events.RecordSubmitted{
		RecordID:     record.ID,
		StockEntryNo: record.StockEntryNo,
	})
	return nil
}

// Cancel transitions Submitted -> Cancelled and retracts the record's
// contribution to the shift ledger.
func (r *RecordRepository) Cancel(ctx context.Context, record *entities.ProductionRecord) error {
	if record.State != entities.StateSubmitted {
		return fmt.Errorf("record %s is %s, only submitted records can be cancelled", record.ID, record.State)
	}

	oldState := record.State
	record.State = entities.StateCancelled

	if r.ledger != nil {
		// A cancelled record must stop feeding carry-forward queries.
		r.ledger.RemoveSnapshot(record.ID)
	}

	r.mu.Lock()
	r.records[record.ID] = record
	r.mu.Unlock()

	r.emitStateChange(record, oldState)
	return nil
}

// Get returns a stored record by ID.
func (r *RecordRepository) Get(ctx context.Context, id string) (*entities.ProductionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: %s", id)
	}
	return record, nil
}

// PostedEntry returns a stock entry generated by Submit.
func (r *RecordRepository) PostedEntry(ref string) (*stockentry.Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.posted[ref]
	return entry, ok
}

func (r *RecordRepository) post(entry *stockentry.Entry) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := fmt.Sprintf("STE-%05d", len(r.posted)+1)
	r.posted[ref] = entry
	return ref
}

func snapshotOf(record *entities.ProductionRecord) ShiftSnapshot {
	closings := make(map[entities.ItemCode]decimal.Decimal)
	for _, row := range record.Rows {
		if row.Category == entities.RawMaterial && row.ItemCode != "" {
			closings[row.ItemCode] = row.ClosingStock
		}
	}
	return ShiftSnapshot{
		RecordID:      record.ID,
		Ref:           record.ProductionDate,
		ClosingStocks: closings,
		HopperClosing: record.HopperClosingQty,
		MipClosing:    record.MipClosingQty,
	}
}

func (r *RecordRepository) emitStateChange(record *entities.ProductionRecord, from entities.LifecycleState) {
	r.emit(record.ID, events.RecordStateChangedEvent, events.RecordStateChanged{
		RecordID: record.ID,
		OldState: from.String(),
		NewState: record.State.String(),
		Saving:   record.Saving,
	})
}

func (r *RecordRepository) emit(recordID, eventType string, payload interface{}) {
	if r.events == nil {
		return
	}
	// Delivery failures are not the lifecycle's problem.
	_ = r.events.AppendEvent(recordID, events.NewEvent(eventType, recordID, payload))
}

package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
	"github.com/hexplastics/prodlog/pkg/domain/services"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
)

// Config holds the engine's injected collaborators and policy.
type Config struct {
	// Warehouses is the category-to-warehouse mapping (injected, never a
	// hard-coded literal).
	Warehouses *entities.WarehouseMap

	// Logger receives resolver failures and recompute diagnostics. A nil
	// logger is replaced with a JSON-formatted default.
	Logger *logrus.Logger

	// Events, when set, receives field-changed / row-added / state
	// notifications for the UI layer.
	Events events.EventStore

	// QueueDepth bounds pending recompute passes per record.
	QueueDepth int
}

// Engine is the material-consumption reconciliation engine for production
// records. Every entry point corresponds to a field edit or row addition in
// the editing session; each one checks the lifecycle guard, serializes onto
// the record's single recompute worker, and commits derived values under
// last-issued-wins sequencing.
type Engine struct {
	boms   repositories.BOMRepository
	ledger repositories.StockLedgerRepository
	items  repositories.ItemRepository

	classifier *services.Classifier
	assigner   *services.WarehouseAssigner
	calc       *Calculator
	overrides  *OverrideTracker
	guard      *LifecycleGuard
	seq        *SequenceTracker
	queue      *RecordQueue
	flight     singleflight.Group

	// rowLocks guards each record's row set. Entry points read the rows
	// on the caller's goroutine to issue sequence numbers while the
	// record's worker may be rebuilding them, so both sides hold the lock.
	rowLocksMu sync.Mutex
	rowLocks   map[string]*sync.Mutex

	log    *logrus.Logger
	events events.EventStore
}

// NewEngine creates a reconciliation engine over the external collaborators.
func NewEngine(
	boms repositories.BOMRepository,
	ledger repositories.StockLedgerRepository,
	items repositories.ItemRepository,
	config Config,
) (*Engine, error) {
	if config.Warehouses == nil {
		return nil, fmt.Errorf("warehouse map is required")
	}

	log := config.Logger
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return &Engine{
		boms:       boms,
		ledger:     ledger,
		items:      items,
		classifier: services.NewClassifier(),
		assigner:   services.NewWarehouseAssigner(config.Warehouses),
		calc:       NewCalculator(),
		overrides:  NewOverrideTracker(),
		guard:      NewLifecycleGuard(),
		seq:        NewSequenceTracker(),
		queue:      NewRecordQueueWithDepth(config.QueueDepth),
		rowLocks:   make(map[string]*sync.Mutex),
		log:        log,
		events:     config.Events,
	}, nil
}

// Overrides exposes the override tracker, letting the UI layer ask whether
// a field is user-protected without reaching into row internals.
func (e *Engine) Overrides() *OverrideTracker {
	return e.overrides
}

func (e *Engine) rowsLock(recordID string) *sync.Mutex {
	e.rowLocksMu.Lock()
	defer e.rowLocksMu.Unlock()

	mu, ok := e.rowLocks[recordID]
	if !ok {
		mu = &sync.Mutex{}
		e.rowLocks[recordID] = mu
	}
	return mu
}

// issueRowKeys walks the record's rows under the rows lock so a worker
// rebuilding the row set never races the issuance read.
func (e *Engine) issueRowKeys(record *entities.ProductionRecord, issue func(row *entities.ConsumptionRow)) {
	mu := e.rowsLock(record.ID)
	mu.Lock()
	defer mu.Unlock()
	for _, row := range record.Rows {
		issue(row)
	}
}

// SelectBOM sets the record's BOM and repopulates the consumption table
// with the BOM's raw-material lines. Existing rows are replaced; issued
// quantities, warehouses and opening stocks are derived for the new rows.
func (e *Engine) SelectBOM(ctx context.Context, record *entities.ProductionRecord, bomID string) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()
	e.issueRowKeys(record, func(row *entities.ConsumptionRow) {
		pass.issue(RowKey(record.ID, row.ItemCode, entities.FieldIssued))
	})

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		return e.populateFromBOM(ctx, record, bomID, pass)
	})
}

// ClearBOM deselects the BOM and clears the consumption table. Rows are
// only clearable while the record is a draft.
func (e *Engine) ClearBOM(ctx context.Context, record *entities.ProductionRecord) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		mu := e.rowsLock(record.ID)
		mu.Lock()
		record.BOMID = ""
		record.Rows = nil
		mu.Unlock()
		e.recomputeMassBalance(record, e.newPass())
		return nil
	})
}

// SetQtyToManufacture records the planned quantity and re-derives issued
// quantities (and the raw closing stocks that depend on them).
func (e *Engine) SetQtyToManufacture(ctx context.Context, record *entities.ProductionRecord, qty decimal.Decimal) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()
	e.issueRowKeys(record, func(row *entities.ConsumptionRow) {
		if row.Category.UsesBOMRatio() {
			pass.issue(RowKey(record.ID, row.ItemCode, entities.FieldIssued))
		}
	})

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		record.QtyToManufacture = qty
		return e.recomputeIssued(ctx, record, pass)
	})
}

// SetManufacturedQty records the realized quantity and re-derives
// consumption, in-quantities, and every closing balance. Output rows (main
// product and scrap) are auto-added from the BOM on the first non-zero
// quantity.
func (e *Engine) SetManufacturedQty(ctx context.Context, record *entities.ProductionRecord, qty decimal.Decimal) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()
	e.issueRowKeys(record, func(row *entities.ConsumptionRow) {
		if row.Category.UsesBOMRatio() {
			pass.issue(RowKey(record.ID, row.ItemCode, entities.FieldConsumption))
			pass.issue(RowKey(record.ID, row.ItemCode, entities.FieldInQty))
		}
	})

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		record.ManufacturedQty = qty
		if err := e.ensureOutputRows(ctx, record); err != nil {
			return err
		}
		return e.recomputeConsumption(ctx, record, pass)
	})
}

// SetGrossWeight updates the gross weight and the dependent net weight and
// mass balances.
func (e *Engine) SetGrossWeight(ctx context.Context, record *entities.ProductionRecord, weight decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.GrossWeight = weight })
}

// SetPackingWeight updates the fabric/packing weight and the dependent net
// weight and mass balances.
func (e *Engine) SetPackingWeight(ctx context.Context, record *entities.ProductionRecord, weight decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.PackingWeight = weight })
}

// SetHopperAddOrUsed updates the hopper input quantity.
func (e *Engine) SetHopperAddOrUsed(ctx context.Context, record *entities.ProductionRecord, qty decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.HopperAddOrUsed = qty })
}

// SetMipGenerated updates the material-in-process generated quantity.
func (e *Engine) SetMipGenerated(ctx context.Context, record *entities.ProductionRecord, qty decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.MipGenerated = qty })
}

// SetMipUsed updates the material-in-process used quantity.
func (e *Engine) SetMipUsed(ctx context.Context, record *entities.ProductionRecord, qty decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.MipUsed = qty })
}

// SetProcessLossWeight updates the process loss weight.
func (e *Engine) SetProcessLossWeight(ctx context.Context, record *entities.ProductionRecord, weight decimal.Decimal) error {
	return e.setScalar(ctx, record, func() { record.ProcessLossWeight = weight })
}

// SetShift moves the record to a different date/shift and re-queries every
// carry-forward opening value for the new position in the timeline.
func (e *Engine) SetShift(ctx context.Context, record *entities.ProductionRecord, ref entities.ShiftRef) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()
	pass.issue(RecordKey(record.ID, entities.RecordFieldHopperOpeningQty))
	pass.issue(RecordKey(record.ID, entities.RecordFieldMipOpeningQty))
	e.issueRowKeys(record, func(row *entities.ConsumptionRow) {
		pass.issue(RowKey(record.ID, row.ItemCode, entities.FieldOpeningStock))
	})

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		record.ProductionDate = ref
		return e.refreshOpenings(ctx, record, pass)
	})
}

// EditRowConsumption applies a user-entered consumption value. The row's
// consumption becomes user-owned and is never recomputed afterwards.
func (e *Engine) EditRowConsumption(ctx context.Context, record *entities.ProductionRecord, item entities.ItemCode, qty decimal.Decimal) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		row := record.RowByItem(item)
		if row == nil {
			return fmt.Errorf("no consumption row for item %s", item)
		}
		e.setRowQty(record, row, entities.FieldConsumption, qty, UserEdited)
		e.recomputeRowClosing(record, row)
		e.recomputeMassBalance(record, e.newPass())
		return nil
	})
}

// EditRowInQty applies a user-entered in-quantity.
func (e *Engine) EditRowInQty(ctx context.Context, record *entities.ProductionRecord, item entities.ItemCode, qty decimal.Decimal) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		row := record.RowByItem(item)
		if row == nil {
			return fmt.Errorf("no consumption row for item %s", item)
		}
		e.setRowQty(record, row, entities.FieldInQty, qty, UserEdited)
		return nil
	})
}

// EditRowWarehouse applies a user-chosen warehouse. The row's warehouses
// become user-owned; the assigner will neither fill nor clear them again.
func (e *Engine) EditRowWarehouse(ctx context.Context, record *entities.ProductionRecord, item entities.ItemCode, source, target string) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		row := record.RowByItem(item)
		if row == nil {
			return fmt.Errorf("no consumption row for item %s", item)
		}
		e.setRowWarehouse(record, row, source, target, UserEdited)
		return nil
	})
}

// AddRow appends a consumption row for an item outside BOM population. The
// row is classified from the item master, assigned a warehouse, and its
// opening stock carried forward.
func (e *Engine) AddRow(ctx context.Context, record *entities.ProductionRecord, item entities.ItemCode) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()
	pass.issue(RowKey(record.ID, item, entities.FieldOpeningStock))

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		if record.RowByItem(item) != nil {
			return fmt.Errorf("item %s already has a consumption row", item)
		}

		row := &entities.ConsumptionRow{ItemCode: item}
		e.describeRow(ctx, row)
		e.assigner.Assign(row)
		mu := e.rowsLock(record.ID)
		mu.Lock()
		record.Rows = append(record.Rows, row)
		mu.Unlock()
		e.emit(record.ID, events.RowAddedEvent, events.RowAdded{
			RecordID: record.ID,
			ItemCode: item,
			Category: row.Category.String(),
		})

		return e.refreshOpenings(ctx, record, pass)
	})
}

// Reconcile runs one unified pass over the whole record: classification,
// warehouse assignment, carry-forward fill, and every derived field. It is
// the convergence point invoked after a batch of row mutations settles,
// replacing the legacy racing per-trigger handlers.
func (e *Engine) Reconcile(ctx context.Context, record *entities.ProductionRecord) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	pass := e.newPass()

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}

		mu := e.rowsLock(record.ID)
		mu.Lock()
		for _, row := range record.Rows {
			row.Category = e.classifier.Classify(row.ItemType, row.ItemCode)
			e.assigner.Assign(row)
		}
		mu.Unlock()

		if err := e.refreshOpenings(ctx, record, pass); err != nil {
			return err
		}
		if err := e.recomputeIssued(ctx, record, pass); err != nil {
			return err
		}
		return e.recomputeConsumption(ctx, record, pass)
	})
}

// Release drops the record's worker and sequencing state. Call it after
// the record leaves Draft for good.
func (e *Engine) Release(recordID string) {
	e.seq.Forget(recordID)
	e.queue.Close(recordID)

	e.rowLocksMu.Lock()
	delete(e.rowLocks, recordID)
	e.rowLocksMu.Unlock()
}

// setScalar serializes a record-scalar write plus the pure mass-balance
// recompute that follows every one of them.
func (e *Engine) setScalar(ctx context.Context, record *entities.ProductionRecord, write func()) error {
	if err := e.guard.Check(record); err != nil {
		return err
	}

	return e.queue.Do(ctx, record.ID, func(ctx context.Context) error {
		if err := e.guard.Check(record); err != nil {
			return err
		}
		write()
		e.recomputeMassBalance(record, e.newPass())
		return nil
	})
}

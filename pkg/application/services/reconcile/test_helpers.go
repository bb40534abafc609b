package reconcile

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
)

// stubBOMRepo is a scriptable in-memory BOM service for engine tests.
type stubBOMRepo struct {
	mu          sync.Mutex
	refQty      decimal.Decimal
	itemQtys    map[entities.ItemCode]decimal.Decimal
	rawItems    []entities.BOMItem
	outputItems []entities.BOMItem
	scrapRatios map[entities.ItemCode]decimal.Decimal

	// refQtyHook, when set, intercepts ReferenceQty calls.
	refQtyHook func(ctx context.Context) (decimal.Decimal, error)

	refQtyCalls int
}

var _ repositories.BOMRepository = (*stubBOMRepo)(nil)

func (r *stubBOMRepo) ReferenceQty(ctx context.Context, bomID string) (decimal.Decimal, error) {
	r.mu.Lock()
	r.refQtyCalls++
	hook := r.refQtyHook
	refQty := r.refQty
	r.mu.Unlock()

	if hook != nil {
		return hook(ctx)
	}
	return refQty, nil
}

func (r *stubBOMRepo) ItemQuantities(ctx context.Context, bomID string, itemCodes []entities.ItemCode) (map[entities.ItemCode]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[entities.ItemCode]decimal.Decimal)
	for _, code := range itemCodes {
		if qty, ok := r.itemQtys[code]; ok {
			result[code] = qty
		}
	}
	return result, nil
}

func (r *stubBOMRepo) RawMaterialItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.rawItems, nil
}

func (r *stubBOMRepo) MainAndScrapItems(ctx context.Context, bomID string) ([]entities.BOMItem, error) {
	return r.outputItems, nil
}

func (r *stubBOMRepo) ScrapRatio(ctx context.Context, bomID string, itemCode entities.ItemCode) (decimal.Decimal, error) {
	if ratio, ok := r.scrapRatios[itemCode]; ok {
		return ratio, nil
	}
	return decimal.Zero, nil
}

// stubLedgerRepo is a scriptable stock-ledger service for engine tests.
type stubLedgerRepo struct {
	mu        sync.Mutex
	closings  map[entities.ItemCode]decimal.Decimal
	hopper    decimal.Decimal
	mip       decimal.Decimal
	stockHook func(ctx context.Context) error

	stockCalls int
}

var _ repositories.StockLedgerRepository = (*stubLedgerRepo)(nil)

func (r *stubLedgerRepo) PreviousClosingStock(ctx context.Context, itemCodes []entities.ItemCode, ref entities.ShiftRef, excludeID string) (map[entities.ItemCode]decimal.Decimal, error) {
	r.mu.Lock()
	r.stockCalls++
	hook := r.stockHook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[entities.ItemCode]decimal.Decimal)
	for _, code := range itemCodes {
		if qty, ok := r.closings[code]; ok {
			result[code] = qty
		}
	}
	return result, nil
}

func (r *stubLedgerRepo) PreviousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	return r.hopper, nil
}

func (r *stubLedgerRepo) PreviousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	return r.mip, nil
}

func (r *stubLedgerRepo) ValuationRate(ctx context.Context, itemCode entities.ItemCode, warehouse string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// stubItemRepo serves item master lookups from a map.
type stubItemRepo struct {
	items map[entities.ItemCode]*entities.Item
}

var _ repositories.ItemRepository = (*stubItemRepo)(nil)

func (r *stubItemRepo) GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error) {
	if item, ok := r.items[code]; ok {
		return item, nil
	}
	return nil, nil
}

// quietLogger returns a logger that swallows output during tests.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEngine wires an engine over the given stubs with the standard
// test warehouse map and an in-memory event store.
func newTestEngine(boms repositories.BOMRepository, ledger repositories.StockLedgerRepository, items repositories.ItemRepository) (*Engine, *events.InMemoryEventStore) {
	warehouses, err := entities.NewWarehouseMap("Raw Material - HEX", "Production - HEX", "Finished Goods - HEX")
	if err != nil {
		panic(err)
	}

	store := events.NewInMemoryEventStore()
	engine, err := NewEngine(boms, ledger, items, Config{
		Warehouses: warehouses,
		Logger:     quietLogger(),
		Events:     store,
	})
	if err != nil {
		panic(err)
	}
	return engine, store
}

// newDraftRecord returns a draft record positioned on a fixed shift.
func newDraftRecord(id string) *entities.ProductionRecord {
	ref := entities.NewShiftRef(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), entities.ShiftDay)
	return entities.NewProductionRecord(id, ref)
}

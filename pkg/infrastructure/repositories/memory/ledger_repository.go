package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

// ShiftSnapshot is what one finished production record contributes to the
// shift timeline: its closing balances, keyed by record identity so the
// record under edit can be excluded from its own carry-forward queries.
type ShiftSnapshot struct {
	RecordID      string
	Ref           entities.ShiftRef
	ClosingStocks map[entities.ItemCode]decimal.Decimal
	HopperClosing decimal.Decimal
	MipClosing    decimal.Decimal
}

// StockLedgerRepository is an in-memory stock ledger. Snapshots form the
// shift timeline for carry-forward queries; valuation rates are a flat
// item/warehouse table.
type StockLedgerRepository struct {
	mu        sync.RWMutex
	snapshots []ShiftSnapshot
	rates     map[string]decimal.Decimal
}

// NewStockLedgerRepository creates an empty in-memory ledger.
func NewStockLedgerRepository() *StockLedgerRepository {
	return &StockLedgerRepository{rates: make(map[string]decimal.Decimal)}
}

// Verify interface compliance
var _ repositories.StockLedgerRepository = (*StockLedgerRepository)(nil)

// RecordSnapshot appends or replaces a record's snapshot in the timeline.
func (r *StockLedgerRepository) RecordSnapshot(snapshot ShiftSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.snapshots {
		if existing.RecordID == snapshot.RecordID {
			r.snapshots[i] = snapshot
			return
		}
	}
	r.snapshots = append(r.snapshots, snapshot)
}

// RemoveSnapshot drops a record's snapshot from the timeline.
func (r *StockLedgerRepository) RemoveSnapshot(recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.snapshots {
		if existing.RecordID == recordID {
			r.snapshots = append(r.snapshots[:i], r.snapshots[i+1:]...)
			return
		}
	}
}

// SetValuationRate stores the valuation rate for an item in a warehouse.
func (r *StockLedgerRepository) SetValuationRate(code entities.ItemCode, warehouse string, rate decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rates[string(code)+"|"+warehouse] = rate
}

// latestBefore returns the most recent snapshot strictly before ref in the
// shift ordering, skipping excludeID and, when match is non-nil, snapshots
// it rejects.
func (r *StockLedgerRepository) latestBefore(ref entities.ShiftRef, excludeID string, match func(ShiftSnapshot) bool) *ShiftSnapshot {
	var best *ShiftSnapshot
	for i := range r.snapshots {
		s := &r.snapshots[i]
		if s.RecordID == excludeID && excludeID != "" {
			continue
		}
		if !s.Ref.Before(ref) {
			continue
		}
		if match != nil && !match(*s) {
			continue
		}
		if best == nil || best.Ref.Before(s.Ref) {
			best = s
		}
	}
	return best
}

// PreviousClosingStock returns, per item, the closing stock of the most
// recent prior shift that recorded one. Items with no history are missing
// from the result.
func (r *StockLedgerRepository) PreviousClosingStock(ctx context.Context, itemCodes []entities.ItemCode, ref entities.ShiftRef, excludeID string) (map[entities.ItemCode]decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[entities.ItemCode]decimal.Decimal)
	for _, code := range itemCodes {
		code := code
		snapshot := r.latestBefore(ref, excludeID, func(s ShiftSnapshot) bool {
			_, ok := s.ClosingStocks[code]
			return ok
		})
		if snapshot != nil {
			result[code] = snapshot.ClosingStocks[code]
		}
	}
	return result, nil
}

// PreviousHopperClosing returns the hopper closing balance of the most
// recent prior shift record, zero when there is none.
func (r *StockLedgerRepository) PreviousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if snapshot := r.latestBefore(ref, excludeID, nil); snapshot != nil {
		return snapshot.HopperClosing, nil
	}
	return decimal.Zero, nil
}

// PreviousMipClosing returns the material-in-process closing balance of
// the most recent prior shift record, zero when there is none.
func (r *StockLedgerRepository) PreviousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if snapshot := r.latestBefore(ref, excludeID, nil); snapshot != nil {
		return snapshot.MipClosing, nil
	}
	return decimal.Zero, nil
}

// ValuationRate returns the stored rate for an item in a warehouse, zero
// when none was recorded.
func (r *StockLedgerRepository) ValuationRate(ctx context.Context, code entities.ItemCode, warehouse string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rate, ok := r.rates[string(code)+"|"+warehouse]; ok {
		return rate, nil
	}
	return decimal.Zero, nil
}

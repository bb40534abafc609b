package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/infrastructure/events"
)

// pass carries the sequence numbers a recompute request took at issue
// time. A field issued by this pass commits only while its sequence is
// still the newest; a field the pass never issued is uncontended and
// commits freely under the record worker's serialization.
type pass struct {
	tracker *SequenceTracker
	seqs    map[FieldKey]uint64
}

func (e *Engine) newPass() *pass {
	return &pass{tracker: e.seq, seqs: make(map[FieldKey]uint64)}
}

func (p *pass) issue(key FieldKey) {
	p.seqs[key] = p.tracker.Issue(key)
}

func (p *pass) commit(key FieldKey) bool {
	seq, ok := p.seqs[key]
	if !ok {
		return true
	}
	return p.tracker.IsLatest(key, seq)
}

// populateFromBOM replaces the consumption table with the BOM's
// raw-material lines and derives everything the new rows need.
func (e *Engine) populateFromBOM(ctx context.Context, record *entities.ProductionRecord, bomID string, p *pass) error {
	lines, err := e.boms.RawMaterialItems(ctx, bomID)
	if err != nil {
		e.logFailure("populateFromBOM", record.ID, err)
		lines = nil
	}

	// Rows are assembled off to the side and published under the rows
	// lock, since issuance loops read the slice from caller goroutines.
	var rows []*entities.ConsumptionRow
	for _, line := range lines {
		row := &entities.ConsumptionRow{
			ItemCode: line.ItemCode,
			ItemName: line.ItemName,
			StockUOM: line.UOM,
			ItemType: line.ItemType,
			Category: e.classifier.Classify(line.ItemType, line.ItemCode),
		}
		e.assigner.Assign(row)
		rows = append(rows, row)
	}

	mu := e.rowsLock(record.ID)
	mu.Lock()
	record.BOMID = bomID
	record.Rows = rows
	mu.Unlock()

	for _, row := range rows {
		e.emit(record.ID, events.RowAddedEvent, events.RowAdded{
			RecordID: record.ID,
			ItemCode: row.ItemCode,
			Category: row.Category.String(),
		})
	}

	e.emit(record.ID, events.BOMPopulatedEvent, events.BOMPopulated{
		RecordID: record.ID,
		BOMID:    bomID,
		RowCount: len(record.Rows),
	})
	if len(record.Rows) == 0 {
		e.log.WithFields(logrus.Fields{
			"module":   "reconcile",
			"funcName": "populateFromBOM",
			"record":   record.ID,
			"bom":      bomID,
		}).Warn("BOM yielded no raw material rows")
	}

	if err := e.refreshOpenings(ctx, record, p); err != nil {
		return err
	}
	return e.recomputeIssued(ctx, record, p)
}

// ensureOutputRows auto-adds the BOM's main-product and scrap rows the
// first time a manufactured quantity is entered.
func (e *Engine) ensureOutputRows(ctx context.Context, record *entities.ProductionRecord) error {
	if record.BOMID == "" || record.ManufacturedQty.Sign() <= 0 {
		return nil
	}
	if len(record.RowsByCategory(entities.MainProduct)) > 0 ||
		len(record.RowsByCategory(entities.Scrap)) > 0 ||
		len(record.RowsByCategory(entities.PrimeProduct)) > 0 {
		return nil
	}

	lines, err := e.boms.MainAndScrapItems(ctx, record.BOMID)
	if err != nil {
		e.logFailure("ensureOutputRows", record.ID, err)
		return nil
	}

	var added []*entities.ConsumptionRow
	for _, line := range lines {
		if record.RowByItem(line.ItemCode) != nil {
			continue
		}
		row := &entities.ConsumptionRow{
			ItemCode: line.ItemCode,
			ItemName: line.ItemName,
			StockUOM: line.UOM,
			ItemType: line.ItemType,
			Category: e.classifier.Classify(line.ItemType, line.ItemCode),
		}
		e.assigner.Assign(row)
		added = append(added, row)
	}
	if len(added) == 0 {
		return nil
	}

	mu := e.rowsLock(record.ID)
	mu.Lock()
	record.Rows = append(record.Rows, added...)
	mu.Unlock()

	for _, row := range added {
		e.emit(record.ID, events.RowAddedEvent, events.RowAdded{
			RecordID: record.ID,
			ItemCode: row.ItemCode,
			Category: row.Category.String(),
		})
	}

	return nil
}

// describeRow resolves display name, UOM and type from the item master and
// classifies the row. Lookup failure leaves the row classifiable by code
// prefix only.
func (e *Engine) describeRow(ctx context.Context, row *entities.ConsumptionRow) {
	item, err := e.items.GetItem(ctx, row.ItemCode)
	if err != nil {
		e.logFailure("describeRow", string(row.ItemCode), err)
	} else if item != nil {
		row.ItemName = item.Name
		row.StockUOM = item.StockUOM
		row.ItemType = item.ItemType
	}
	row.Category = e.classifier.Classify(row.ItemType, row.ItemCode)
}

// recomputeIssued derives issued = ratio * qtyToManufacture for every
// BOM-ratio row, then the raw closing stocks that depend on it.
func (e *Engine) recomputeIssued(ctx context.Context, record *entities.ProductionRecord, p *pass) error {
	refQty, perItem := e.fetchBOMQuantities(ctx, record)

	for _, row := range record.Rows {
		if !row.Category.UsesBOMRatio() {
			continue
		}
		if !p.commit(RowKey(record.ID, row.ItemCode, entities.FieldIssued)) {
			continue
		}
		ratio := e.calc.Ratio(perItem[row.ItemCode], refQty)
		e.setRowQty(record, row, entities.FieldIssued, e.calc.Issued(ratio, record.QtyToManufacture), SystemDerived)
		e.recomputeRowClosing(record, row)
	}

	return nil
}

// recomputeConsumption derives consumption and in-quantities from the
// manufactured quantity, honoring user overrides, then refreshes every
// balance that consumption feeds.
func (e *Engine) recomputeConsumption(ctx context.Context, record *entities.ProductionRecord, p *pass) error {
	refQty, perItem := e.fetchBOMQuantities(ctx, record)

	for _, row := range record.Rows {
		if row.Category.UsesBOMRatio() &&
			!row.Overrides.Consumption &&
			p.commit(RowKey(record.ID, row.ItemCode, entities.FieldConsumption)) {
			ratio := e.calc.Ratio(perItem[row.ItemCode], refQty)
			e.setRowQty(record, row, entities.FieldConsumption, e.calc.Consumption(ratio, record.ManufacturedQty), SystemDerived)
		}

		switch row.Category {
		case entities.MainProduct:
			if !row.Overrides.InQty && p.commit(RowKey(record.ID, row.ItemCode, entities.FieldInQty)) {
				e.setRowQty(record, row, entities.FieldInQty, record.ManufacturedQty, SystemDerived)
			}

		case entities.Scrap:
			if record.ManufacturedQty.IsZero() {
				// Carve-out: clearing the manufactured quantity force-resets
				// scrap in-quantity, override or not, and releases ownership.
				e.overrides.ResetInQty(row)
				e.setRowQty(record, row, entities.FieldInQty, decimal.Zero, SystemDerived)
			} else if !row.Overrides.InQty && p.commit(RowKey(record.ID, row.ItemCode, entities.FieldInQty)) {
				scrapRatio := e.fetchScrapRatio(ctx, record, row.ItemCode)
				e.setRowQty(record, row, entities.FieldInQty, scrapRatio.Mul(record.ManufacturedQty), SystemDerived)
			}
		}
	}

	for _, row := range record.RowsByCategory(entities.RawMaterial) {
		e.recomputeRowClosing(record, row)
	}
	e.recomputeMassBalance(record, p)

	return nil
}

// recomputeRowClosing refreshes a Raw Material row's closing stock. Other
// categories have no per-row closing formula.
func (e *Engine) recomputeRowClosing(record *entities.ProductionRecord, row *entities.ConsumptionRow) {
	if row.Category != entities.RawMaterial {
		return
	}
	closing := e.calc.RawClosing(row.OpeningStock, row.Issued, row.Consumption)
	e.setRowQty(record, row, entities.FieldClosingStock, closing, SystemDerived)
}

// recomputeMassBalance refreshes the pure record-level derivations: net
// weight, hopper/tray closing, MIP closing, and the Prime row closing that
// shares the hopper formula.
func (e *Engine) recomputeMassBalance(record *entities.ProductionRecord, p *pass) {
	net := e.calc.NetWeight(record.GrossWeight, record.PackingWeight)
	if p.commit(RecordKey(record.ID, entities.RecordFieldNetWeight)) {
		e.setRecordQty(record, entities.RecordFieldNetWeight, &record.NetWeight, net)
	}

	hopperClosing := e.calc.HopperClosing(
		record.HopperAddOrUsed,
		record.RawConsumptionSum(),
		record.MipUsed,
		record.NetWeight,
		record.MipGenerated,
		record.ProcessLossWeight,
	)
	if p.commit(RecordKey(record.ID, entities.RecordFieldHopperClosingQty)) {
		e.setRecordQty(record, entities.RecordFieldHopperClosingQty, &record.HopperClosingQty, hopperClosing)
	}

	mipClosing := e.calc.MipClosing(record.MipOpeningQty, record.MipGenerated, record.MipUsed)
	if p.commit(RecordKey(record.ID, entities.RecordFieldMipClosingQty)) {
		e.setRecordQty(record, entities.RecordFieldMipClosingQty, &record.MipClosingQty, mipClosing)
	}

	for _, row := range record.RowsByCategory(entities.PrimeProduct) {
		e.setRowQty(record, row, entities.FieldClosingStock, hopperClosing, SystemDerived)
	}
}

// refreshOpenings carries forward the previous shift's closing balances.
// Values land only in fields that are currently zero, so a user's own
// opening entry is never overwritten.
func (e *Engine) refreshOpenings(ctx context.Context, record *entities.ProductionRecord, p *pass) error {
	codes := record.ItemCodes()

	if len(codes) > 0 {
		openings := e.previousClosingStock(ctx, codes, record.ProductionDate, record.ID)
		for _, row := range record.Rows {
			if !row.OpeningStock.IsZero() {
				continue
			}
			if !p.commit(RowKey(record.ID, row.ItemCode, entities.FieldOpeningStock)) {
				continue
			}
			if opening, ok := openings[row.ItemCode]; ok && !opening.IsZero() {
				e.setRowQty(record, row, entities.FieldOpeningStock, opening, SystemDerived)
				e.recomputeRowClosing(record, row)
			}
		}
	}

	if record.HopperOpeningQty.IsZero() && p.commit(RecordKey(record.ID, entities.RecordFieldHopperOpeningQty)) {
		hopper := e.previousHopperClosing(ctx, record.ProductionDate, record.ID)
		if !hopper.IsZero() {
			e.setRecordQty(record, entities.RecordFieldHopperOpeningQty, &record.HopperOpeningQty, hopper)
		}
	}

	if record.MipOpeningQty.IsZero() && p.commit(RecordKey(record.ID, entities.RecordFieldMipOpeningQty)) {
		mip := e.previousMipClosing(ctx, record.ProductionDate, record.ID)
		if !mip.IsZero() {
			e.setRecordQty(record, entities.RecordFieldMipOpeningQty, &record.MipOpeningQty, mip)
		}
	}

	e.recomputeMassBalance(record, p)

	return nil
}

// fetchBOMQuantities reads the reference quantity and per-item quantities
// for the record's BOM-ratio rows. Any failure degrades to zeros, which
// zero every derived ratio downstream.
func (e *Engine) fetchBOMQuantities(ctx context.Context, record *entities.ProductionRecord) (decimal.Decimal, map[entities.ItemCode]decimal.Decimal) {
	if record.BOMID == "" {
		return decimal.Zero, nil
	}

	var codes []entities.ItemCode
	for _, row := range record.Rows {
		if row.Category.UsesBOMRatio() {
			codes = append(codes, row.ItemCode)
		}
	}
	if len(codes) == 0 {
		return decimal.Zero, nil
	}

	refQty, err := e.boms.ReferenceQty(ctx, record.BOMID)
	if err != nil {
		e.logFailure("fetchBOMQuantities", record.ID, err)
		return decimal.Zero, nil
	}

	perItem, err := e.boms.ItemQuantities(ctx, record.BOMID, codes)
	if err != nil {
		e.logFailure("fetchBOMQuantities", record.ID, err)
		return decimal.Zero, nil
	}

	return refQty, perItem
}

// fetchScrapRatio reads a scrap row's per-unit ratio, degrading to zero on
// failure.
func (e *Engine) fetchScrapRatio(ctx context.Context, record *entities.ProductionRecord, item entities.ItemCode) decimal.Decimal {
	if record.BOMID == "" {
		return decimal.Zero
	}
	ratio, err := e.boms.ScrapRatio(ctx, record.BOMID, item)
	if err != nil {
		e.logFailure("fetchScrapRatio", record.ID, err)
		return decimal.Zero
	}
	return ratio
}

// previousClosingStock collapses identical in-flight carry-forward queries
// through singleflight; rapid successive edits share one ledger read.
func (e *Engine) previousClosingStock(ctx context.Context, codes []entities.ItemCode, ref entities.ShiftRef, excludeID string) map[entities.ItemCode]decimal.Decimal {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	key := fmt.Sprintf("stock|%s|%s|%s", ref, excludeID, strings.Join(parts, ","))

	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		return e.ledger.PreviousClosingStock(ctx, codes, ref, excludeID)
	})
	if err != nil {
		e.logFailure("previousClosingStock", excludeID, err)
		return nil
	}
	return v.(map[entities.ItemCode]decimal.Decimal)
}

func (e *Engine) previousHopperClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) decimal.Decimal {
	key := fmt.Sprintf("hopper|%s|%s", ref, excludeID)
	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		return e.ledger.PreviousHopperClosing(ctx, ref, excludeID)
	})
	if err != nil {
		e.logFailure("previousHopperClosing", excludeID, err)
		return decimal.Zero
	}
	return v.(decimal.Decimal)
}

func (e *Engine) previousMipClosing(ctx context.Context, ref entities.ShiftRef, excludeID string) decimal.Decimal {
	key := fmt.Sprintf("mip|%s|%s", ref, excludeID)
	v, err, _ := e.flight.Do(key, func() (interface{}, error) {
		return e.ledger.PreviousMipClosing(ctx, ref, excludeID)
	})
	if err != nil {
		e.logFailure("previousMipClosing", excludeID, err)
		return decimal.Zero
	}
	return v.(decimal.Decimal)
}

// setRowQty writes a quantity field with its origin tag applied atomically
// with the value, and emits a field-changed event when the value moved.
func (e *Engine) setRowQty(record *entities.ProductionRecord, row *entities.ConsumptionRow, field entities.RowField, value decimal.Decimal, origin Origin) {
	ptr := rowFieldPtr(row, field)
	if ptr == nil {
		return
	}

	e.overrides.Mark(row, field, origin)

	if ptr.Equal(value) {
		return
	}
	old := *ptr
	*ptr = value

	e.emit(record.ID, events.RowFieldChangedEvent, events.RowFieldChanged{
		RecordID: record.ID,
		ItemCode: row.ItemCode,
		Field:    field.String(),
		Old:      old.String(),
		New:      value.String(),
		Origin:   origin.String(),
	})
}

// setRowWarehouse writes the row's warehouse pair under the same origin
// rules as quantity fields.
func (e *Engine) setRowWarehouse(record *entities.ProductionRecord, row *entities.ConsumptionRow, source, target string, origin Origin) {
	e.overrides.Mark(row, entities.FieldWarehouse, origin)

	if row.SourceWarehouse == source && row.TargetWarehouse == target {
		return
	}
	old := row.SourceWarehouse + "/" + row.TargetWarehouse
	row.SourceWarehouse = source
	row.TargetWarehouse = target

	e.emit(record.ID, events.RowFieldChangedEvent, events.RowFieldChanged{
		RecordID: record.ID,
		ItemCode: row.ItemCode,
		Field:    entities.FieldWarehouse.String(),
		Old:      old,
		New:      source + "/" + target,
		Origin:   origin.String(),
	})
}

// setRecordQty writes a record-level derived scalar and emits its event.
func (e *Engine) setRecordQty(record *entities.ProductionRecord, field entities.RecordField, ptr *decimal.Decimal, value decimal.Decimal) {
	if ptr.Equal(value) {
		return
	}
	old := *ptr
	*ptr = value

	e.emit(record.ID, events.RecordFieldChangedEvent, events.RecordFieldChanged{
		RecordID: record.ID,
		Field:    field.String(),
		Old:      old,
		New:      value,
		Origin:   SystemDerived.String(),
	})
}

func (e *Engine) emit(recordID, eventType string, payload interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.AppendEvent(recordID, events.NewEvent(eventType, recordID, payload)); err != nil {
		e.logFailure("emit", recordID, err)
	}
}

func (e *Engine) logFailure(funcName, context string, err error) {
	e.log.WithFields(logrus.Fields{
		"module":   "reconcile",
		"funcName": funcName,
		"context":  context,
	}).Error(err.Error())
}

func rowFieldPtr(row *entities.ConsumptionRow, field entities.RowField) *decimal.Decimal {
	switch field {
	case entities.FieldOpeningStock:
		return &row.OpeningStock
	case entities.FieldIssued:
		return &row.Issued
	case entities.FieldConsumption:
		return &row.Consumption
	case entities.FieldInQty:
		return &row.InQty
	case entities.FieldClosingStock:
		return &row.ClosingStock
	default:
		return nil
	}
}

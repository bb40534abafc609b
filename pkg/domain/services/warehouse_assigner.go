package services

import (
	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// WarehouseAssigner maps a row's category to its source/target warehouses
// using the injected WarehouseMap. Assignment fills blanks only, clears
// fields inconsistent with the category, and never touches a warehouse the
// user has set (warehouse override flag). Calling Assign repeatedly on a
// settled row is a no-op, which makes it safe against the population races
// around newly added rows.
type WarehouseAssigner struct {
	warehouses *entities.WarehouseMap
}

// NewWarehouseAssigner creates a new assigner over the given mapping
func NewWarehouseAssigner(warehouses *entities.WarehouseMap) *WarehouseAssigner {
	return &WarehouseAssigner{warehouses: warehouses}
}

// Assign reconciles the row's warehouses with its category. It returns
// true when either warehouse field changed.
func (a *WarehouseAssigner) Assign(row *entities.ConsumptionRow) bool {
	if row.Category == entities.CategoryUnknown {
		return false
	}
	if row.Overrides.Warehouse {
		return false
	}

	want := a.warehouses.For(row.Category)
	changed := false

	// Fill blanks only; an existing value is kept even without an override,
	// so repeated passes converge instead of toggling.
	if want.Source != "" && row.SourceWarehouse == "" {
		row.SourceWarehouse = want.Source
		changed = true
	}
	if want.Target != "" && row.TargetWarehouse == "" {
		row.TargetWarehouse = want.Target
		changed = true
	}

	// Clear stray values the category forbids.
	if want.Source == "" && row.SourceWarehouse != "" {
		row.SourceWarehouse = ""
		changed = true
	}
	if want.Target == "" && row.TargetWarehouse != "" {
		row.TargetWarehouse = ""
		changed = true
	}

	return changed
}

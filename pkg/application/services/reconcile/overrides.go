package reconcile

import (
	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// Origin tags who is writing a field value. Every mutation carries its
// origin at the point of the write, so a calculator write can never be
// misread as a user edit after the fact.
type Origin int

const (
	SystemDerived Origin = iota
	UserEdited
)

// String method for Origin enum
func (o Origin) String() string {
	switch o {
	case SystemDerived:
		return "SystemDerived"
	case UserEdited:
		return "UserEdited"
	default:
		return "Unknown"
	}
}

// OverrideTracker answers whether a row field is user-protected and
// records ownership transitions. MarkUserEdit is one-way; the single
// sanctioned reset is the Scrap in-quantity carve-out, which the engine
// performs through ResetInQty when the manufactured quantity is cleared.
type OverrideTracker struct{}

// NewOverrideTracker creates a new tracker
func NewOverrideTracker() *OverrideTracker {
	return &OverrideTracker{}
}

// IsProtected reports whether the field on this row is owned by the user.
func (t *OverrideTracker) IsProtected(row *entities.ConsumptionRow, field entities.RowField) bool {
	switch field {
	case entities.FieldConsumption:
		return row.Overrides.Consumption
	case entities.FieldInQty:
		return row.Overrides.InQty
	case entities.FieldWarehouse:
		return row.Overrides.Warehouse
	default:
		return false
	}
}

// MarkUserEdit permanently transfers ownership of the field to the user.
func (t *OverrideTracker) MarkUserEdit(row *entities.ConsumptionRow, field entities.RowField) {
	switch field {
	case entities.FieldConsumption:
		row.Overrides.Consumption = true
	case entities.FieldInQty:
		row.Overrides.InQty = true
	case entities.FieldWarehouse:
		row.Overrides.Warehouse = true
	}
}

// MarkSystemEdit records a calculator write. It never changes ownership.
func (t *OverrideTracker) MarkSystemEdit(row *entities.ConsumptionRow, field entities.RowField) {
	// Ownership is sticky; a system write over an unprotected field leaves
	// it unprotected.
}

// Mark applies the appropriate transition for the given origin.
func (t *OverrideTracker) Mark(row *entities.ConsumptionRow, field entities.RowField, origin Origin) {
	if origin == UserEdited {
		t.MarkUserEdit(row, field)
	} else {
		t.MarkSystemEdit(row, field)
	}
}

// ResetInQty clears in-quantity ownership. This is the documented
// exception for Scrap rows when the manufactured quantity is cleared to
// zero: the value is force-reset even if previously overridden.
func (t *OverrideTracker) ResetInQty(row *entities.ConsumptionRow) {
	row.Overrides.InQty = false
}

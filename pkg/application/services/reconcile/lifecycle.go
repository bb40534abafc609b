package reconcile

import (
	"fmt"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// ErrRecordFrozen is returned when an engine entry point is invoked on a
// record the lifecycle guard has frozen. Callers inside the engine treat
// it as a silent no-op; reaching it from outside the engine indicates a
// contract violation by the caller.
var ErrRecordFrozen = fmt.Errorf("record is not editable")

// LifecycleGuard gates every engine mutation on the record's lifecycle
// state. Only a Draft record with no save in flight may be mutated.
type LifecycleGuard struct{}

// NewLifecycleGuard creates a new guard
func NewLifecycleGuard() *LifecycleGuard {
	return &LifecycleGuard{}
}

// Check returns ErrRecordFrozen unless the record is mutable.
func (g *LifecycleGuard) Check(record *entities.ProductionRecord) error {
	if !record.Editable() {
		return ErrRecordFrozen
	}
	return nil
}

// ValidateTransition checks a lifecycle transition request.
func (g *LifecycleGuard) ValidateTransition(from, to entities.LifecycleState) error {
	switch {
	case from == entities.StateDraft && to == entities.StateSubmitted:
		return nil
	case from == entities.StateSubmitted && to == entities.StateCancelled:
		return nil
	default:
		return fmt.Errorf("invalid lifecycle transition %s -> %s", from, to)
	}
}

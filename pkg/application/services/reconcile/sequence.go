package reconcile

import (
	"sync"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// FieldKey identifies a recompute target for sequencing: a record-level
// field (empty ItemCode) or a row field.
type FieldKey struct {
	RecordID string
	ItemCode entities.ItemCode
	Field    string
}

// RowKey builds a FieldKey for a row-level field.
func RowKey(recordID string, item entities.ItemCode, field entities.RowField) FieldKey {
	return FieldKey{RecordID: recordID, ItemCode: item, Field: field.String()}
}

// RecordKey builds a FieldKey for a record-level field.
func RecordKey(recordID string, field entities.RecordField) FieldKey {
	return FieldKey{RecordID: recordID, Field: field.String()}
}

// SequenceTracker implements last-issued-wins for overlapping recompute
// requests. Each request takes a sequence number at issue time; a response
// may commit only while it still holds the highest issued number for its
// field. Stale responses are discarded regardless of arrival order, which
// replaces the fixed-delay settling timers of the legacy scripts.
type SequenceTracker struct {
	mu     sync.Mutex
	issued map[FieldKey]uint64
}

// NewSequenceTracker creates a new tracker
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{issued: make(map[FieldKey]uint64)}
}

// Issue allocates the next sequence number for the field.
func (t *SequenceTracker) Issue(key FieldKey) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued[key]++
	return t.issued[key]
}

// Current returns the most recently issued sequence for the field.
func (t *SequenceTracker) Current(key FieldKey) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issued[key]
}

// IsLatest reports whether seq is still the newest issued request for the
// field. A recompute holding a stale sequence must drop its result.
func (t *SequenceTracker) IsLatest(key FieldKey, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.issued[key] == seq
}

// Forget drops sequencing state for a record, e.g. after submit.
func (t *SequenceTracker) Forget(recordID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.issued {
		if key.RecordID == recordID {
			delete(t.issued, key)
		}
	}
}

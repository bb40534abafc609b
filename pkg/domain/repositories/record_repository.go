package repositories

import (
	"context"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// RecordRepository is the persistence collaborator for production records.
// The engine observes the lifecycle transitions it performs but never
// drives persistence itself.
type RecordRepository interface {
	// Create mints an identity for a new draft record and stores it.
	Create(ctx context.Context, record *entities.ProductionRecord) error

	// Save persists a draft. Implementations set record.Saving for the
	// duration of the round-trip.
	Save(ctx context.Context, record *entities.ProductionRecord) error

	// Submit transitions Draft -> Submitted. The one permitted side effect
	// is generating the stock entry and surfacing its reference number.
	Submit(ctx context.Context, record *entities.ProductionRecord) error

	// Cancel transitions Submitted -> Cancelled.
	Cancel(ctx context.Context, record *entities.ProductionRecord) error

	Get(ctx context.Context, id string) (*entities.ProductionRecord, error)
}

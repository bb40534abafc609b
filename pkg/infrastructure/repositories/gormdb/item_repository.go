package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

// ItemRepository reads the item master from MySQL.
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a database-backed item master.
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// GetItem returns the item master entry for a code.
func (r *ItemRepository) GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error) {
	var model ItemModel
	err := r.db.WithContext(ctx).First(&model, "code = ?", string(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("item not found: %s", code)
	}
	if err != nil {
		return nil, fmt.Errorf("loading item %s: %w", code, err)
	}
	return model.toEntity(), nil
}

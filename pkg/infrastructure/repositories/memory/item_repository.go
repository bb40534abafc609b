package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
	"github.com/hexplastics/prodlog/pkg/domain/repositories"
)

// ItemRepository is an in-memory item master.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[entities.ItemCode]entities.Item
}

// NewItemRepository creates an empty in-memory item master.
func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[entities.ItemCode]entities.Item)}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// AddItem stores an item, replacing any previous entry for its code.
func (r *ItemRepository) AddItem(item entities.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Code] = item
}

// GetItem returns the item master entry for a code.
func (r *ItemRepository) GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[code]
	if !ok {
		return nil, fmt.Errorf("item not found: %s", code)
	}
	return &item, nil
}

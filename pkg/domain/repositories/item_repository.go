package repositories

import (
	"context"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// ItemRepository resolves item codes against the item master. It is used
// for row population (display name, stock UOM) and for the valuation-rate
// fallback chain; it takes no part in the derivation math. A missing item
// may surface as an error or as (nil, nil); callers treat both as absent.
type ItemRepository interface {
	GetItem(ctx context.Context, code entities.ItemCode) (*entities.Item, error)
}

package entities

import "fmt"

// WarehouseMap is the injected category-to-warehouse configuration. The
// historical scripts disagreed on the Raw Material source location, so the
// mapping is data, not a hard-coded literal.
type WarehouseMap struct {
	RawMaterialSource string
	ScrapTarget       string
	MainProductTarget string
}

// NewWarehouseMap creates a validated WarehouseMap
func NewWarehouseMap(rawSource, scrapTarget, mainTarget string) (*WarehouseMap, error) {
	if rawSource == "" {
		return nil, fmt.Errorf("raw material source warehouse cannot be empty")
	}
	if scrapTarget == "" {
		return nil, fmt.Errorf("scrap target warehouse cannot be empty")
	}
	if mainTarget == "" {
		return nil, fmt.Errorf("main product target warehouse cannot be empty")
	}

	return &WarehouseMap{
		RawMaterialSource: rawSource,
		ScrapTarget:       scrapTarget,
		MainProductTarget: mainTarget,
	}, nil
}

// Assignment is the source/target pair a category resolves to. Prime
// Product rows carry neither warehouse.
type Assignment struct {
	Source string
	Target string
}

// For returns the warehouse assignment for a category.
func (m *WarehouseMap) For(c Category) Assignment {
	switch c {
	case RawMaterial:
		return Assignment{Source: m.RawMaterialSource}
	case Scrap:
		return Assignment{Target: m.ScrapTarget}
	case MainProduct:
		return Assignment{Target: m.MainProductTarget}
	default:
		return Assignment{}
	}
}

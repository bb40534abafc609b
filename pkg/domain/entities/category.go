package entities

// Category classifies a consumption row and drives every derived-field
// formula and the warehouse assignment for that row.
type Category int

const (
	CategoryUnknown Category = iota
	RawMaterial
	Scrap
	MainProduct
	PrimeProduct
)

// String method for Category enum
func (c Category) String() string {
	switch c {
	case RawMaterial:
		return "Raw Material"
	case Scrap:
		return "Scrap"
	case MainProduct:
		return "Main Product"
	case PrimeProduct:
		return "Prime Product"
	default:
		return "Unknown"
	}
}

// UsesBOMRatio reports whether issued/consumption are derived from BOM
// ratios for this category. Prime Product rows are reconciled through the
// record-level mass balance instead and never enter ratio math.
func (c Category) UsesBOMRatio() bool {
	return c == RawMaterial || c == Scrap || c == MainProduct
}

package services

import (
	"strings"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

// PrimePrefix is the legacy item-code naming convention that marks prime
// products. The prefix check outranks the item-type tag: an item tagged as
// a main product but coded PRIME-... is a Prime Product everywhere
// downstream.
const PrimePrefix = "PRIME"

// Classifier determines the category of a consumption row from its item
// type tag and item code. Classification is pure and total; rows without
// an item code classify as Unknown and are skipped by every calculator.
type Classifier struct{}

// NewClassifier creates a new classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the category for an item type tag and item code.
func (c *Classifier) Classify(itemType string, itemCode entities.ItemCode) entities.Category {
	if itemCode == "" {
		return entities.CategoryUnknown
	}

	if c.IsPrimeCode(itemCode) {
		return entities.PrimeProduct
	}

	switch strings.TrimSpace(itemType) {
	case entities.ItemTypeRawMaterial:
		return entities.RawMaterial
	case entities.ItemTypeScrapItem:
		return entities.Scrap
	case entities.ItemTypeMainItem:
		return entities.MainProduct
	default:
		return entities.CategoryUnknown
	}
}

// IsPrimeCode reports whether the item code carries the PRIME prefix,
// case-insensitively.
func (c *Classifier) IsPrimeCode(itemCode entities.ItemCode) bool {
	return len(itemCode) >= len(PrimePrefix) &&
		strings.EqualFold(string(itemCode)[:len(PrimePrefix)], PrimePrefix)
}

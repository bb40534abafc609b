package services

import (
	"testing"

	"github.com/hexplastics/prodlog/pkg/domain/entities"
)

func TestClassifier_Classify(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name     string
		itemType string
		itemCode entities.ItemCode
		expected entities.Category
	}{
		{
			name:     "raw_material_tag",
			itemType: entities.ItemTypeRawMaterial,
			itemCode: "LDPE-GRANULE",
			expected: entities.RawMaterial,
		},
		{
			name:     "scrap_tag",
			itemType: entities.ItemTypeScrapItem,
			itemCode: "SCRAP-FILM",
			expected: entities.Scrap,
		},
		{
			name:     "main_item_tag",
			itemType: entities.ItemTypeMainItem,
			itemCode: "FABRIC-ROLL",
			expected: entities.MainProduct,
		},
		{
			name:     "prime_prefix_beats_main_tag",
			itemType: entities.ItemTypeMainItem,
			itemCode: "PRIME-FABRIC",
			expected: entities.PrimeProduct,
		},
		{
			name:     "prime_prefix_beats_raw_tag",
			itemType: entities.ItemTypeRawMaterial,
			itemCode: "prime-regrind",
			expected: entities.PrimeProduct,
		},
		{
			name:     "prime_prefix_case_insensitive",
			itemType: "",
			itemCode: "PrImE01",
			expected: entities.PrimeProduct,
		},
		{
			name:     "empty_code_is_unknown",
			itemType: entities.ItemTypeRawMaterial,
			itemCode: "",
			expected: entities.CategoryUnknown,
		},
		{
			name:     "unrecognized_tag_is_unknown",
			itemType: "Packaging",
			itemCode: "BOX-01",
			expected: entities.CategoryUnknown,
		},
		{
			name:     "tag_with_surrounding_whitespace",
			itemType: " Scrap Item ",
			itemCode: "SCRAP-EDGE",
			expected: entities.Scrap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Classify(tt.itemType, tt.itemCode)
			if got != tt.expected {
				t.Errorf("Classify(%q, %q) = %v, want %v", tt.itemType, tt.itemCode, got, tt.expected)
			}
		})
	}
}

func TestClassifier_ClassifyIsDeterministic(t *testing.T) {
	classifier := NewClassifier()

	first := classifier.Classify(entities.ItemTypeMainItem, "PRIME-SHEET")
	for i := 0; i < 10; i++ {
		if got := classifier.Classify(entities.ItemTypeMainItem, "PRIME-SHEET"); got != first {
			t.Fatalf("classification changed between calls: %v then %v", first, got)
		}
	}
}

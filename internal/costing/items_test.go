package costing

import (
	"errors"
	"testing"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestItemCost(t *testing.T) {
	resolver := NewRecipeResolver(testCatalog())

	withOverride := flavorRow(1, 7, 1)
	withOverride.Quantity = dec("0.5")
	withOverride.UnitCostOverride = decimal.NullDecimal{Decimal: dec("1.00"), Valid: true}
	secondHalf := flavorRow(2, 7, 3)
	secondHalf.Quantity = dec("0.5")

	tests := []struct {
		name     string
		item     models.OrderItem
		mappings []models.OrderItemMapping
		want     string
		warnings []WarningKind
	}{
		{
			name: "single main mapping times item quantity",
			item: models.OrderItem{ID: 7, Quantity: dec("3")},
			mappings: []models.OrderItemMapping{
				{ID: 1, OrderItemID: 7, InternalProductID: int64Ptr(3), Quantity: dec("1"), MappingType: models.MappingTypeMain},
			},
			want: "10.5",
		},
		{
			name: "lone main without quantity counts as one",
			item: models.OrderItem{ID: 7, Quantity: dec("2")},
			mappings: []models.OrderItemMapping{
				{ID: 1, OrderItemID: 7, InternalProductID: int64Ptr(3), MappingType: models.MappingTypeMain},
			},
			want: "7",
		},
		{
			name:     "frozen override wins over the recipe",
			item:     models.OrderItem{ID: 7, Quantity: dec("2")},
			mappings: []models.OrderItemMapping{secondHalf, withOverride},
			// (1.00 + 3.50 * 0.5) * 2
			want: "5.5",
		},
		{
			name:     "item without mappings",
			item:     models.OrderItem{ID: 7, Name: "Combo", Quantity: dec("1")},
			want:     "0",
			warnings: []WarningKind{WarningUnmappedItem},
		},
		{
			name: "missing product contributes zero",
			item: models.OrderItem{ID: 7, Quantity: dec("1")},
			mappings: []models.OrderItemMapping{
				{ID: 1, OrderItemID: 7, InternalProductID: int64Ptr(42), Quantity: dec("1"), MappingType: models.MappingTypeMain},
				{ID: 2, OrderItemID: 7, InternalProductID: int64Ptr(3), Quantity: dec("1"), MappingType: models.MappingTypeAddon},
			},
			want:     "3.5",
			warnings: []WarningKind{WarningMissingProduct},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings, err := ItemCost(tt.item, tt.mappings, resolver)
			if err != nil {
				t.Fatalf("ItemCost returned error: %v", err)
			}
			assertDecimal(t, "cost", got, tt.want)
			if len(warnings) != len(tt.warnings) {
				t.Fatalf("got warnings %v, want kinds %v", warnings, tt.warnings)
			}
			for i, w := range warnings {
				if w.Kind != tt.warnings[i] {
					t.Errorf("warning %d = %s, want %s", i, w.Kind, tt.warnings[i])
				}
			}
		})
	}
}

func TestItemCostCorruptMappings(t *testing.T) {
	resolver := NewRecipeResolver(testCatalog())
	item := models.OrderItem{ID: 7, Quantity: dec("1")}

	badSum1 := flavorRow(1, 7, 1)
	badSum1.Quantity = dec("0.5")
	badSum2 := flavorRow(2, 7, 1)
	badSum2.Quantity = dec("0.4")

	tests := []struct {
		name     string
		mappings []models.OrderItemMapping
	}{
		{"mapping of another item", []models.OrderItemMapping{
			{ID: 1, OrderItemID: 8, InternalProductID: int64Ptr(3), Quantity: dec("1"), MappingType: models.MappingTypeMain},
		}},
		{"negative quantity", []models.OrderItemMapping{
			{ID: 1, OrderItemID: 7, InternalProductID: int64Ptr(3), Quantity: dec("1"), MappingType: models.MappingTypeMain},
			{ID: 2, OrderItemID: 7, InternalProductID: int64Ptr(3), Quantity: dec("-1"), MappingType: models.MappingTypeAddon},
		}},
		{"flavor group does not sum to one", []models.OrderItemMapping{badSum1, badSum2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ItemCost(item, tt.mappings, resolver)
			if !errors.Is(err, ErrCorruptMapping) {
				t.Fatalf("err = %v, want ErrCorruptMapping", err)
			}
		})
	}
}

func TestOrderItemTotals(t *testing.T) {
	resolver := NewRecipeResolver(testCatalog())
	items := []models.OrderItem{
		{ID: 1, Quantity: dec("1")},
		{ID: 2, Quantity: dec("2")},
		{ID: 3, Name: "Taxa de embalagem", Quantity: dec("1")},
	}
	mappings := []models.OrderItemMapping{
		{ID: 10, OrderItemID: 1, InternalProductID: int64Ptr(1), Quantity: dec("1"), MappingType: models.MappingTypeMain},
		{ID: 11, OrderItemID: 2, InternalProductID: int64Ptr(3), Quantity: dec("1"), MappingType: models.MappingTypeMain},
	}

	totals, err := OrderItemTotals(items, mappings, resolver)
	if err != nil {
		t.Fatalf("OrderItemTotals returned error: %v", err)
	}
	assertDecimal(t, "items cost", totals.ItemsCost, "11.4")
	if len(totals.Warnings) != 1 || totals.Warnings[0].Kind != WarningUnmappedItem {
		t.Errorf("warnings = %v, want one unmapped_item", totals.Warnings)
	}

	orphan := models.OrderItemMapping{ID: 12, OrderItemID: 99, InternalProductID: int64Ptr(3), Quantity: dec("1")}
	if _, err := OrderItemTotals(items, append(mappings, orphan), resolver); !errors.Is(err, ErrCorruptMapping) {
		t.Errorf("err = %v, want ErrCorruptMapping for a mapping of an unknown item", err)
	}
}

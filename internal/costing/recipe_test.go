package costing

import (
	"testing"

	"delivery_costs_backend/internal/models"
)

func testCatalog() *Catalog {
	products := []models.InternalProduct{
		{ID: 1, Name: "Pizza Calabresa", UnitCost: dec("99")},
		{ID: 2, Name: "Massa", UnitCost: dec("0")},
		{ID: 3, Name: "Refrigerante Lata", UnitCost: dec("3.50")},
		{ID: 4, Name: "Loop A"},
		{ID: 5, Name: "Loop B"},
		{ID: 6, Name: "Broken"},
	}
	ingredients := []models.Ingredient{
		{ID: 10, Name: "Farinha", Unit: "kg", UnitPrice: dec("5.00")},
		{ID: 11, Name: "Calabresa", Unit: "kg", UnitPrice: dec("30.00")},
		{ID: 12, Name: "Molho", Unit: "l", UnitPrice: dec("8.00")},
	}
	rows := []models.ProductCost{
		// dough: 200 g of flour
		{ID: 100, InternalProductID: 2, Component: models.IngredientRef(10), Quantity: dec("200"), Unit: strPtr("g")},
		// pizza: one dough, sausage and sauce, with a larger variant
		{ID: 101, InternalProductID: 1, Component: models.ProductRef(2), Quantity: dec("1")},
		{ID: 102, InternalProductID: 1, Component: models.IngredientRef(11), Quantity: dec("100"), Unit: strPtr("g")},
		{ID: 103, InternalProductID: 1, Component: models.IngredientRef(12), Quantity: dec("50"), Unit: strPtr("ml")},
		{ID: 104, InternalProductID: 1, Component: models.ProductRef(2), Size: strPtr("grande"), Quantity: dec("2")},
		{ID: 105, InternalProductID: 1, Component: models.IngredientRef(11), Size: strPtr("grande"), Quantity: dec("0.2"), Unit: strPtr("kg")},
		{ID: 106, InternalProductID: 4, Component: models.ProductRef(5), Quantity: dec("1")},
		{ID: 107, InternalProductID: 5, Component: models.ProductRef(4), Quantity: dec("1")},
		{ID: 108, InternalProductID: 5, Component: models.IngredientRef(10), Quantity: dec("1")},
		{ID: 109, InternalProductID: 6, Component: models.IngredientRef(99), Quantity: dec("1")},
		{ID: 110, InternalProductID: 6, Component: models.IngredientRef(12), Quantity: dec("1"), Unit: strPtr("kg")},
		{ID: 111, InternalProductID: 6, Component: models.ProductRef(98), Quantity: dec("1")},
		{ID: 112, InternalProductID: 6, Component: models.IngredientRef(10), Quantity: dec("0.1")},
	}
	return NewCatalog(products, ingredients, rows)
}

func TestRecipeResolverCost(t *testing.T) {
	resolver := NewRecipeResolver(testCatalog())

	tests := []struct {
		name      string
		productID int64
		size      string
		want      string
		warnings  []WarningKind
	}{
		// 1.00 dough + 3.00 sausage + 0.40 sauce
		{name: "generic recipe with nested product", productID: 1, want: "4.4"},
		{name: "unknown size falls back to generic rows", productID: 1, size: "broto", want: "4.4"},
		// 2 doughs + 6.00 sausage
		{name: "size specific rows win", productID: 1, size: "grande", want: "8"},
		{name: "product without recipe uses cached cost", productID: 3, want: "3.5"},
		{name: "missing product", productID: 42, want: "0", warnings: []WarningKind{WarningMissingProduct}},
		{name: "recipe cycle contributes zero", productID: 4, want: "5", warnings: []WarningKind{WarningRecipeCycle}},
		{
			name:      "broken rows are skipped with warnings",
			productID: 6,
			want:      "0.5",
			warnings:  []WarningKind{WarningMissingIngredient, WarningUnitMismatch, WarningMissingProduct},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := resolver.Cost(tt.productID, tt.size)
			assertDecimal(t, "cost", got, tt.want)
			if len(warnings) != len(tt.warnings) {
				t.Fatalf("got %d warnings (%v), want %d", len(warnings), warnings, len(tt.warnings))
			}
			for i, w := range warnings {
				if w.Kind != tt.warnings[i] {
					t.Errorf("warning %d kind = %s, want %s", i, w.Kind, tt.warnings[i])
				}
			}
		})
	}
}

func TestRecipeResolverIsRepeatable(t *testing.T) {
	resolver := NewRecipeResolver(testCatalog())
	first, _ := resolver.Cost(1, "grande")
	for i := 0; i < 5; i++ {
		got, _ := resolver.Cost(1, "grande")
		if !got.Equal(first) {
			t.Fatalf("run %d: cost = %s, want %s", i, got, first)
		}
	}
}

func TestCatalogProductIDsSorted(t *testing.T) {
	ids := testCatalog().ProductIDs()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("product ids not sorted: %v", ids)
		}
	}
}

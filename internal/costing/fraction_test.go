package costing

import (
	"errors"
	"testing"

	"delivery_costs_backend/internal/models"

	"github.com/shopspring/decimal"
)

func flavorRow(id, itemID, productID int64) models.OrderItemMapping {
	return models.OrderItemMapping{
		ID:                id,
		OrderItemID:       itemID,
		InternalProductID: int64Ptr(productID),
		MappingType:       models.MappingTypeOption,
		OptionType:        flavor(),
		AutoFraction:      true,
	}
}

func TestEqualShares(t *testing.T) {
	tests := []struct {
		n    int
		want []string
	}{
		{1, []string{"1"}},
		{2, []string{"0.5", "0.5"}},
		{3, []string{"0.3333", "0.3333", "0.3334"}},
		{4, []string{"0.25", "0.25", "0.25", "0.25"}},
		{6, []string{"0.1667", "0.1667", "0.1667", "0.1667", "0.1667", "0.1665"}},
	}
	for _, tt := range tests {
		shares := equalShares(tt.n)
		sum := decimal.Zero
		for i, s := range shares {
			assertDecimal(t, "share", s, tt.want[i])
			sum = sum.Add(s)
		}
		assertDecimal(t, "sum", sum, "1")
	}
}

func TestAllocateThreeFlavors(t *testing.T) {
	allocator := NewFractionAllocator(NewRecipeResolver(testCatalog()))
	item := models.OrderItem{ID: 7, Quantity: dec("1")}
	mappings := []models.OrderItemMapping{
		flavorRow(3, 7, 1),
		flavorRow(1, 7, 1),
		flavorRow(2, 7, 3),
	}

	result, err := allocator.Allocate(item, mappings)
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	if len(result.Mappings) != 3 {
		t.Fatalf("got %d mappings, want 3", len(result.Mappings))
	}

	wantQty := []string{"0.3333", "0.3333", "0.3334"}
	wantOverride := []string{"1.4665", "1.1666", "1.4670"}
	sum := decimal.Zero
	for i, m := range result.Mappings {
		if m.ID != int64(i+1) {
			t.Errorf("mapping %d has id %d, want ordered by id", i, m.ID)
		}
		assertDecimal(t, "quantity", m.Quantity, wantQty[i])
		if !m.UnitCostOverride.Valid {
			t.Fatalf("mapping %d has no unit cost override", m.ID)
		}
		assertDecimal(t, "override", m.UnitCostOverride.Decimal, wantOverride[i])
		sum = sum.Add(m.Quantity)
	}
	assertDecimal(t, "sum", sum, "1")
	if len(result.Changed) != 3 {
		t.Errorf("changed = %v, want all three rows", result.Changed)
	}

	// the input slice is not mutated
	if !mappings[0].Quantity.IsZero() {
		t.Errorf("input mapping mutated: %s", mappings[0].Quantity)
	}
}

func TestAllocateKeepsOptionsAndAddons(t *testing.T) {
	allocator := NewFractionAllocator(NewRecipeResolver(testCatalog()))
	item := models.OrderItem{ID: 7, Quantity: dec("2")}
	addon := models.OrderItemMapping{ID: 9, OrderItemID: 7, InternalProductID: int64Ptr(3), Quantity: dec("2"), MappingType: models.MappingTypeAddon}

	result, err := allocator.Allocate(item, []models.OrderItemMapping{flavorRow(1, 7, 1), flavorRow(2, 7, 1), addon})
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	assertDecimal(t, "flavor 1", result.Mappings[0].Quantity, "0.5")
	assertDecimal(t, "flavor 2", result.Mappings[1].Quantity, "0.5")
	assertDecimal(t, "addon", result.Mappings[2].Quantity, "2")
	if result.Mappings[2].UnitCostOverride.Valid {
		t.Error("addon row should not get an override")
	}
}

func TestAllocateLoneMainWithoutQuantity(t *testing.T) {
	allocator := NewFractionAllocator(NewRecipeResolver(testCatalog()))
	item := models.OrderItem{ID: 7, Quantity: dec("1")}
	main := models.OrderItemMapping{ID: 1, OrderItemID: 7, InternalProductID: int64Ptr(3), MappingType: models.MappingTypeMain}

	result, err := allocator.Allocate(item, []models.OrderItemMapping{main})
	if err != nil {
		t.Fatalf("Allocate returned error: %v", err)
	}
	assertDecimal(t, "quantity", result.Mappings[0].Quantity, "1")
	if len(result.Changed) != 1 || result.Changed[0] != 1 {
		t.Errorf("changed = %v, want [1]", result.Changed)
	}
}

func TestAllocateRejectsInvalidGroups(t *testing.T) {
	limited := NewCatalog([]models.InternalProduct{
		{ID: 1, MaxFlavors: 2},
		{ID: 2, MaxFlavors: 0},
		{ID: 3, MaxFlavors: 4},
	}, nil, nil)
	allocator := NewFractionAllocator(NewRecipeResolver(limited))
	item := models.OrderItem{ID: 7, Quantity: dec("1")}

	manual := flavorRow(3, 7, 3)
	manual.AutoFraction = false
	wrongItem := flavorRow(4, 8, 3)

	tests := []struct {
		name     string
		mappings []models.OrderItemMapping
		wantErr  error
	}{
		{"mixed auto fraction flags", []models.OrderItemMapping{flavorRow(1, 7, 3), flavorRow(2, 7, 3), manual}, ErrAmbiguousFractionGroup},
		{"too many flavors", []models.OrderItemMapping{flavorRow(1, 7, 1), flavorRow(2, 7, 2), flavorRow(3, 7, 3)}, ErrTooManyFlavors},
		{"mapping of another item", []models.OrderItemMapping{flavorRow(1, 7, 3), wrongItem}, ErrCorruptMapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := allocator.Allocate(item, tt.mappings)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != ErrCorruptMapping {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("err = %T, want *ValidationError", err)
				}
			}
		})
	}
}
